package main

import (
	"io"
	"log"
	"os"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/config"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/logging"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/repository/postgres"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/service"
	transporthttp "github.com/Mehedi7242/jwt-refresh-auth-system/internal/transport/http"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/transport/mail"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("Warning: logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	tokens := util.NewTokenManager(util.TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})

	mailer := mail.NewResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	auth := service.NewAuthService(postgres.NewUserRepo(db), tokens, mailer, service.AuthConfig{
		GoogleAudience: cfg.GoogleAudience,
		OTPLength:      cfg.PasswordResetOTPLength,
		ResetTTL:       cfg.PasswordResetTTL,
		ResetWindow:    cfg.ResetRateWindow,
		ResetMaxTries:  cfg.ResetMaxRequests,
	})

	e := transporthttp.NewRouter(cfg.AllowOrigins)
	transporthttp.RegisterAuth(e, auth, tokens, transporthttp.RateLimit(transporthttp.StrictLimit))
	transporthttp.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
