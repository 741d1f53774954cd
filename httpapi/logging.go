package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gaborage/mcpanel/logger"
)

func (c *client) logRequest(req *http.Request, body []byte) {
	requestID, _ := RequestIDFromContext(req.Context())
	c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Str("request_id", requestID).
		Int("header_count", len(req.Header)).
		Int("body_size", len(body)).
		Msg("REST client request")

	if c.logPayloads {
		c.logger.Debug().
			Interface("headers", req.Header).
			Str("body", c.truncate(body)).
			Msg("REST client request payload")
	}
}

func (c *client) logResponse(ctx context.Context, resp *http.Response, body []byte, elapsed time.Duration) {
	c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Int64("call_count", logger.GetAPICounter(ctx)).
		Msg("REST client response")

	if c.logPayloads {
		c.logger.Debug().
			Interface("headers", resp.Header).
			Str("body", c.truncate(body)).
			Msg("REST client response payload")
	}
}

func (c *client) truncate(body []byte) string {
	if len(body) <= c.maxPayloadLogBytes {
		return string(body)
	}
	return string(body[:c.maxPayloadLogBytes]) + "...(truncated)"
}
