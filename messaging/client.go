// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bureau-foundation/deploywatch/lib/netutil"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the homeserver, e.g.
	// "https://matrix.example.org".
	HomeserverURL string
	// HTTPClient is used for all requests. Nil means http.DefaultClient.
	HTTPClient *http.Client
	// UserAgent, when set, is sent with every request.
	UserAgent string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is an unauthenticated Matrix client shared by sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL is required")
	}
	parsed, err := url.Parse(config.HomeserverURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("messaging: HomeserverURL %q must be http or https", config.HomeserverURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Request URLs are built by concatenation onto the trimmed base
	// so that escaped path segments are sent exactly as escaped.
	return &Client{
		baseURL:    strings.TrimRight(config.HomeserverURL, "/"),
		httpClient: httpClient,
		userAgent:  config.UserAgent,
		logger:     logger,
	}, nil
}

// SessionFromToken returns a session for an existing access token.
// The token is not checked; call WhoAmI for that.
func (c *Client) SessionFromToken(userID, accessToken string) (*DirectSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("messaging: user ID is required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("messaging: access token is required")
	}
	return &DirectSession{
		client:      c,
		userID:      userID,
		accessToken: accessToken,
	}, nil
}

// CloseIdleConnections drops pooled connections, so the next request
// dials afresh. The sync loop calls it after a failed long-poll.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// doRequest performs one API call and returns the response body. A
// non-2xx response with a Matrix error body returns *MatrixError.
// query may be nil.
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, requestBody any, query url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	if netutil.IsSuccess(response.StatusCode) {
		responseBody, err := netutil.ReadResponse(response.Body)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to read response body: %w", err)
		}
		return responseBody, nil
	}

	errorBody := netutil.ErrorBody(response.Body)
	var matrixErr MatrixError
	if jsonErr := json.Unmarshal([]byte(errorBody), &matrixErr); jsonErr != nil || matrixErr.Code == "" {
		return nil, fmt.Errorf("messaging: unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, errorBody)
	}
	matrixErr.StatusCode = response.StatusCode
	c.logger.Debug("matrix request failed",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"errcode", matrixErr.Code,
	)
	return nil, &matrixErr
}
