// Package studentapi is the HTTP client for the municipal student-records
// API. Authentication uses OAuth2 client credentials; the token source
// caches and refreshes tokens transparently.
package studentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	apperrors "github.com/Sundsvallskommun/web-app-student-account-admin/internal/errors"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
)

const defaultTimeout = 15 * time.Second

// Config carries connection settings for the student-records API.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client implements ports.StudentDirectory.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// New builds a Client. The returned client owns a token source bound to
// ctx; cancel it to stop background token refreshes.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("studentapi: base URL is required")
	}
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("studentapi: token URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	httpClient := cc.Client(ctx)
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}, nil
}

func (c *Client) Schools(ctx context.Context, loginName string) (json.RawMessage, error) {
	return c.getData(ctx, "/education/1.0/schools", url.Values{"loginName": {loginName}})
}

func (c *Client) Classes(ctx context.Context, schoolID, loginName string) (json.RawMessage, error) {
	path := "/education/1.0/school/" + url.PathEscape(schoolID) + "/classes"
	return c.getData(ctx, path, url.Values{"loginName": {loginName}})
}

func (c *Client) ClassPupils(ctx context.Context, schoolClassID, loginName string) (json.RawMessage, error) {
	path := "/education/1.0/schoolclass/" + url.PathEscape(schoolClassID) + "/pupils"
	return c.getData(ctx, path, url.Values{"loginName": {loginName}})
}

func (c *Client) SearchPupils(ctx context.Context, loginName string, params url.Values) (json.RawMessage, error) {
	query := url.Values{"loginName": {loginName}}
	for key, vals := range params {
		for _, v := range vals {
			query.Add(key, v)
		}
	}
	return c.getData(ctx, "/education/1.0/pupil/search", query)
}

func (c *Client) GeneratePupilPassword(ctx context.Context, loginName string) (json.RawMessage, error) {
	return c.getData(ctx, "/education/1.0/pupil/password", url.Values{"loginName": {loginName}})
}

func (c *Client) UpdatePupil(ctx context.Context, pupilLoginName, loginName string, change ports.PupilChange) (json.RawMessage, error) {
	path := "/education/1.0/pupil/" + url.PathEscape(pupilLoginName) + "/password"

	body, err := json.Marshal(change)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal pupil change")
	}

	resp, err := c.do(ctx, http.MethodPatch, path, url.Values{"loginName": {loginName}}, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return c.readBody(resp)
}

func (c *Client) PersonImage(ctx context.Context, personID string, width int) ([]byte, error) {
	path := "/employee/1.0/" + url.PathEscape(personID) + "/personimage"
	resp, err := c.do(ctx, http.MethodGet, path, url.Values{"width": {strconv.Itoa(width)}}, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "read image body")
	}
	return data, nil
}

func (c *Client) getData(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return c.readBody(resp)
}

// do performs the request and maps non-2xx statuses onto the error
// taxonomy. The caller owns the returned body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("student API request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err))
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUpstream, "%s %s", method, path)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.logger.Error("student API returned error status",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("body", string(snippet)))

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFoundf("%s %s: not found", method, path)
	}
	return nil, apperrors.Upstreamf("%s %s: status %d", method, path, resp.StatusCode)
}

// readBody returns the upstream JSON body untouched. The upstream serves
// plain arrays and objects; the {data, message} envelope is added by our
// handlers on the way out, never consumed from upstream.
func (c *Client) readBody(resp *http.Response) (json.RawMessage, error) {
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "read response body")
	}
	if !json.Valid(data) {
		return nil, apperrors.Upstream("response is not valid JSON")
	}
	return json.RawMessage(data), nil
}
