// Package pterodactyl is a client for the Pterodactyl panel client API.
package pterodactyl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/httpapi"
	"github.com/gaborage/mcpanel/logger"
)

const serviceName = "pterodactyl"

// ErrNoSignedURL is returned when a signed url document has no url.
var ErrNoSignedURL = errors.New("pterodactyl: response carries no signed url")

// PowerSignal is a server power action.
type PowerSignal string

const (
	SignalStart   PowerSignal = "start"
	SignalStop    PowerSignal = "stop"
	SignalRestart PowerSignal = "restart"
	SignalKill    PowerSignal = "kill"
)

// Valid reports whether s is a signal the panel accepts.
func (s PowerSignal) Valid() bool {
	switch s {
	case SignalStart, SignalStop, SignalRestart, SignalKill:
		return true
	default:
		return false
	}
}

// API calls the panel on behalf of one client API key.
type API struct {
	client httpapi.Client
	log    logger.Logger
	policy httpapi.RetryPolicy
	dryRun bool
}

// New creates an API client from the pterodactyl section of cfg. The panel
// url is required.
func New(cfg *config.Config, log logger.Logger, opts ...Option) (*API, error) {
	if cfg.Pterodactyl.API.URL == "" {
		key := "pterodactyl.api.url"
		return nil, config.NewMissingFieldError(key)
	}
	if log == nil {
		log = logger.Nop()
	}

	o := options{policy: httpapi.OperationPolicy(), dryRun: cfg.Pterodactyl.DryRun}
	for _, opt := range opts {
		opt(&o)
	}

	var auth httpapi.Authorizer = httpapi.NoAuth{}
	if cfg.Pterodactyl.Token != "" {
		auth = httpapi.NewTokenAuth(httpapi.NewSecret(cfg.Pterodactyl.Token))
	}

	b := httpapi.NewBuilder(log).
		WithServiceName(serviceName).
		WithBaseURL(cfg.Pterodactyl.API.URL).
		WithTimeout(cfg.Request.Duration()).
		WithConnectTimeout(cfg.Connect.Duration()).
		WithProxy(cfg.Proxy).
		WithAuthorizer(auth)
	if o.dryRun {
		b.WithRequestInterceptor(dryRunInterceptor(log))
	}
	for _, fn := range o.configure {
		fn(b)
	}

	client, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("pterodactyl: %w", err)
	}
	return &API{client: client, log: log, policy: o.policy, dryRun: o.dryRun}, nil
}

// dryRunInterceptor answers every mutating request with a placeholder.
func dryRunInterceptor(log logger.Logger) httpapi.RequestInterceptor {
	return func(_ context.Context, req *http.Request) error {
		if req.Method == http.MethodGet {
			return nil
		}
		log.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("Dry run, request not sent")
		return httpapi.ErrPlaceholder
	}
}

// DryRun reports whether mutating calls are suppressed.
func (a *API) DryRun() bool {
	return a.dryRun
}

// call runs req under the operation retry policy.
func (a *API) call(ctx context.Context, method httpapi.Method, req *httpapi.Request) (*httpapi.JSONResponse, error) {
	return httpapi.Retry(ctx, a.policy, func(ctx context.Context) (*httpapi.JSONResponse, error) {
		return a.once(ctx, method, req)
	})
}

// once runs req a single time with a fresh response.
func (a *API) once(ctx context.Context, method httpapi.Method, req *httpapi.Request) (*httpapi.JSONResponse, error) {
	resp := httpapi.NewJSONResponse()
	call := *req
	call.Response = resp
	if _, err := a.client.Do(ctx, method, &call); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *API) document(ctx context.Context, method httpapi.Method, req *httpapi.Request) (map[string]any, error) {
	resp, err := a.call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	return resp.JSON()
}

func serverPath(serverID, suffix string) string {
	return "client/servers/" + url.PathEscape(serverID) + "/" + suffix
}

// ServersList returns the servers visible to the API key.
func (a *API) ServersList(ctx context.Context) (map[string]any, error) {
	return a.document(ctx, httpapi.MethodGet, &httpapi.Request{Path: "client"})
}

// ServerCommand sends a console command. The panel answers 204, so the
// returned document is nil unless dry run is on.
func (a *API) ServerCommand(ctx context.Context, serverID, command string) (map[string]any, error) {
	if command == "" {
		return nil, httpapi.BadRequest("command must not be empty")
	}
	return a.document(ctx, httpapi.MethodPost, &httpapi.Request{
		Path: serverPath(serverID, "command"),
		JSON: map[string]any{"command": command},
	})
}

// ServerPower sends a power signal.
func (a *API) ServerPower(ctx context.Context, serverID string, signal PowerSignal) (map[string]any, error) {
	if !signal.Valid() {
		return nil, httpapi.BadRequest(fmt.Sprintf("invalid power signal %q", signal))
	}
	return a.document(ctx, httpapi.MethodPost, &httpapi.Request{
		Path: serverPath(serverID, "power"),
		JSON: map[string]any{"signal": string(signal)},
	})
}

// ServerFilesList lists directory on the server.
func (a *API) ServerFilesList(ctx context.Context, serverID, directory string) (map[string]any, error) {
	return a.document(ctx, httpapi.MethodGet, &httpapi.Request{
		Path:  serverPath(serverID, "files/list"),
		Query: map[string]string{"directory": directory},
	})
}

// ServerFilesDownload returns the signed download document for file.
func (a *API) ServerFilesDownload(ctx context.Context, serverID, file string) (map[string]any, error) {
	return a.document(ctx, httpapi.MethodGet, &httpapi.Request{
		Path:  serverPath(serverID, "files/download"),
		Query: map[string]string{"file": file},
	})
}

// ServerFilesUploadURL returns a one-time upload url for the server.
func (a *API) ServerFilesUploadURL(ctx context.Context, serverID string) (string, error) {
	return httpapi.Retry(ctx, a.policy, func(ctx context.Context) (string, error) {
		return a.uploadURL(ctx, serverID)
	})
}

func (a *API) uploadURL(ctx context.Context, serverID string) (string, error) {
	resp, err := a.once(ctx, httpapi.MethodGet, &httpapi.Request{Path: serverPath(serverID, "files/upload")})
	if err != nil {
		return "", err
	}
	return signedURL(resp)
}

// ServerFilesUpload writes data as fileName into directory. The file is
// posted as multipart form data to a signed upload url. Signed urls are
// single use, so every attempt signs a new one.
func (a *API) ServerFilesUpload(ctx context.Context, serverID, directory, fileName string, data []byte) error {
	_, err := httpapi.Retry(ctx, a.policy, func(ctx context.Context) (struct{}, error) {
		uploadURL, err := a.uploadURL(ctx, serverID)
		if err != nil {
			return struct{}{}, err
		}
		_, err = a.once(ctx, httpapi.MethodPost, &httpapi.Request{
			Path:   uploadURL,
			Query:  map[string]string{"directory": directory},
			Body:   data,
			Shaper: httpapi.NewMultipartRequest(fileName),
			// the signed url authorizes the upload itself
			Auth: httpapi.NoAuth{},
		})
		return struct{}{}, err
	})
	return err
}

// ServerFilesDelete deletes files found under root.
func (a *API) ServerFilesDelete(ctx context.Context, serverID, root string, files []string) (map[string]any, error) {
	if len(files) == 0 {
		return nil, httpapi.BadRequest("no files to delete")
	}
	return a.document(ctx, httpapi.MethodPost, &httpapi.Request{
		Path: serverPath(serverID, "files/delete"),
		JSON: map[string]any{"root": root, "files": files},
	})
}

// VerifyCredentials checks the API key against the account endpoint.
func (a *API) VerifyCredentials(ctx context.Context) error {
	return a.client.VerifyCredentials(ctx, "client/account", nil)
}

// SignedURL extracts attributes.url from a signed url document, as returned
// by ServerFilesDownload.
func SignedURL(doc map[string]any) (string, error) {
	attrs, _ := doc["attributes"].(map[string]any)
	u, _ := attrs["url"].(string)
	if u == "" {
		return "", ErrNoSignedURL
	}
	return u, nil
}

func signedURL(resp *httpapi.JSONResponse) (string, error) {
	u, err := resp.Get("attributes.url")
	if err != nil {
		return "", err
	}
	if u.String() == "" {
		return "", ErrNoSignedURL
	}
	return u.String(), nil
}
