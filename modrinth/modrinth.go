// Package modrinth is a client for the Modrinth v2 API and its file CDN.
package modrinth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/go-viper/mapstructure/v2"

	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/httpapi"
	"github.com/gaborage/mcpanel/logger"
)

const (
	// TokenScheme prefixes the token in the Authorization header.
	TokenScheme = "apiKey "

	HeaderUserAgent = "User-Agent"

	serviceName = "modrinth"
)

// ErrNoFiles is returned when a version list has no downloadable file.
var ErrNoFiles = errors.New("modrinth: no downloadable file")

// API calls the Modrinth REST API.
type API struct {
	client httpapi.Client
	agent  string
	policy httpapi.RetryPolicy
}

// New creates an API client from the modrinth section of cfg.
func New(cfg *config.Config, log logger.Logger, opts ...Option) (*API, error) {
	o := newOptions(opts)
	client, err := newBuilder(cfg, log, o).
		WithBaseURL(cfg.Modrinth.API.URL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("modrinth: %w", err)
	}
	return &API{client: client, agent: cfg.Modrinth.Agent, policy: o.policy}, nil
}

func (a *API) get(ctx context.Context, p string, query map[string]string) (*httpapi.JSONResponse, error) {
	return httpapi.Retry(ctx, a.policy, func(ctx context.Context) (*httpapi.JSONResponse, error) {
		resp := httpapi.NewJSONResponse()
		_, err := a.client.Get(ctx, &httpapi.Request{
			Path:     p,
			Query:    query,
			Headers:  agentHeaders(a.agent),
			Response: resp,
		})
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
}

// ProjectInfo returns the raw project document for slug or id.
func (a *API) ProjectInfo(ctx context.Context, slug string) (map[string]any, error) {
	resp, err := a.get(ctx, "project/"+url.PathEscape(slug), nil)
	if err != nil {
		return nil, err
	}
	return resp.JSON()
}

// Project returns the project document decoded into a Project.
func (a *API) Project(ctx context.Context, slug string) (*Project, error) {
	raw, err := a.ProjectInfo(ctx, slug)
	if err != nil {
		return nil, err
	}
	return DecodeProject(raw)
}

// ProjectDependencies returns the projects and versions slug depends on.
func (a *API) ProjectDependencies(ctx context.Context, slug string) (map[string]any, error) {
	resp, err := a.get(ctx, "project/"+url.PathEscape(slug)+"/dependencies", nil)
	if err != nil {
		return nil, err
	}
	return resp.JSON()
}

// ProjectVersions lists the versions of slug matching the filters. Empty
// loaders or gameVersions match everything.
func (a *API) ProjectVersions(ctx context.Context, slug string, loaders, gameVersions []string, featured bool) (Versions, error) {
	query, err := versionsQuery(loaders, gameVersions, featured)
	if err != nil {
		return nil, err
	}

	resp, err := a.get(ctx, "project/"+url.PathEscape(slug)+"/version", query)
	if err != nil {
		return nil, err
	}
	raw, err := resp.Raw()
	if err != nil {
		return nil, err
	}
	return Versions(raw), nil
}

// VerifyCredentials checks the configured token against the user endpoint.
func (a *API) VerifyCredentials(ctx context.Context) error {
	return a.client.VerifyCredentials(ctx, "user", nil)
}

func versionsQuery(loaders, gameVersions []string, featured bool) (map[string]string, error) {
	if loaders == nil {
		loaders = []string{}
	}
	if gameVersions == nil {
		gameVersions = []string{}
	}
	l, err := json.Marshal(loaders)
	if err != nil {
		return nil, httpapi.BadRequest(fmt.Sprintf("invalid loaders: %v", err))
	}
	g, err := json.Marshal(gameVersions)
	if err != nil {
		return nil, httpapi.BadRequest(fmt.Sprintf("invalid game versions: %v", err))
	}
	return map[string]string{
		"loaders":       string(l),
		"game_versions": string(g),
		"featured":      strconv.FormatBool(featured),
	}, nil
}

func agentHeaders(agent string) http.Header {
	h := http.Header{}
	if agent != "" {
		h.Set(HeaderUserAgent, agent)
	}
	return h
}

// DecodeProject converts a raw project document into a Project.
func DecodeProject(raw map[string]any) (*Project, error) {
	var p Project
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("modrinth: decode project: %w", err)
	}
	return &p, nil
}

// FileNameFromURL returns the unescaped last path segment of a CDN url.
func FileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("modrinth: invalid file url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("modrinth: file url %q has no file name", rawURL)
	}
	return name, nil
}
