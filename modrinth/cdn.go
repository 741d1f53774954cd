package modrinth

import (
	"context"
	"fmt"

	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/httpapi"
	"github.com/gaborage/mcpanel/logger"
)

// CDN downloads files by absolute url. It has no base URL.
type CDN struct {
	client httpapi.Client
	agent  string
	policy httpapi.RetryPolicy
}

// NewCDN creates a CDN client sharing the modrinth credentials of cfg.
func NewCDN(cfg *config.Config, log logger.Logger, opts ...Option) (*CDN, error) {
	o := newOptions(opts)
	client, err := newBuilder(cfg, log, o).Build()
	if err != nil {
		return nil, fmt.Errorf("modrinth cdn: %w", err)
	}
	return &CDN{client: client, agent: cfg.Modrinth.Agent, policy: o.policy}, nil
}

// DownloadFile fetches fileURL and returns its content.
func (c *CDN) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	return httpapi.Retry(ctx, c.policy, func(ctx context.Context) ([]byte, error) {
		resp := httpapi.NewStreamResponse(httpapi.OctetStream)
		_, err := c.client.Get(ctx, &httpapi.Request{
			Path:     fileURL,
			Headers:  agentHeaders(c.agent),
			Response: resp,
		})
		if err != nil {
			return nil, err
		}
		return resp.Stream()
	})
}
