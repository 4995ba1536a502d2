package http

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/util"
)

const requestBodyLogKey = "http.request.body.summary"

// Fields whose values must never reach the logs.
var redactedFields = map[string]bool{
	"password":     true,
	"new_password": true,
	"newPassword":  true,
	"otp":          true,
	"accessToken":  true,
	"refreshToken": true,
	"id_token":     true,
}

func registerLogging(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			identity := "anonymous"
			if claims, ok := CurrentClaims(c); ok {
				identity = claims.Email
			}

			payload := struct {
				Time      string      `json:"time"`
				Identity  string      `json:"identity"`
				Method    string      `json:"method"`
				URI       string      `json:"uri"`
				Status    int         `json:"status"`
				LatencyMS int64       `json:"latency_ms"`
				Body      interface{} `json:"body,omitempty"`
				Error     string      `json:"error,omitempty"`
			}{
				Time:      v.StartTime.Format(time.RFC3339),
				Identity:  identity,
				Method:    v.Method,
				URI:       v.URI,
				Status:    v.Status,
				LatencyMS: v.Latency.Milliseconds(),
			}
			if summary := c.Get(requestBodyLogKey); summary != nil {
				payload.Body = summary
			}
			if v.Error != nil {
				payload.Error = v.Error.Error()
			}

			buf, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		contentType := c.Request().Header.Get(echo.HeaderContentType)
		if summary := redactBody(reqBody, contentType); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
	}))
}

// redactBody returns a loggable copy of a JSON request body with credential
// fields masked. Non-JSON bodies are dropped from the logs entirely.
func redactBody(body []byte, contentType string) interface{} {
	if len(body) == 0 {
		return nil
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json") && !json.Valid(body) {
		return nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}

	out := util.Envelope{}
	for key, value := range data {
		if redactedFields[key] {
			out[key] = "[REDACTED]"
			continue
		}
		out[key] = value
	}
	return out
}
