package gql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/drops-miner/pkg/types"
	"go.uber.org/zap"
)

// Platform identity sent with every request.
const (
	DefaultURL       = "https://gql.twitch.tv/gql"
	DefaultClientID  = "kimne78kx3ncx6brgo4mv6wki5h1ko"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Config holds GQL client configuration.
type Config struct {
	URL       string
	ClientID  string
	UserAgent string
	ProxyURL  string
	Timeout   time.Duration
	Token     func() string // current OAuth token, read on every request
	Logger    *zap.Logger
}

// Client is the request/response gateway to the GQL endpoint.
// The underlying http.Client is opened lazily and reused until Close.
type Client struct {
	cfg        Config
	logger     *zap.Logger
	mu         sync.Mutex
	httpClient *http.Client
}

// NewClient creates a new GQL client.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Token == nil {
		cfg.Token = func() string { return "" }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// session returns the shared http.Client, creating it on first use.
// A closed client is reopened on next use so that the miner can restart.
func (c *Client) session() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient != nil {
		return c.httpClient, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.cfg.ProxyURL != "" {
		proxy, err := url.Parse(c.cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	c.httpClient = &http.Client{
		Timeout:   c.cfg.Timeout,
		Transport: transport,
	}

	c.logger.Debug("gql-session-opened", zap.String("url", c.cfg.URL))

	return c.httpClient, nil
}

// Request posts one operation and returns the decoded response envelope.
func (c *Client) Request(ctx context.Context, op types.Operation) (*types.GQLResponse, error) {
	start := time.Now()
	defer func() {
		RequestDurationSeconds.WithLabelValues(op.OperationName).Observe(time.Since(start).Seconds())
	}()

	httpClient, err := c.session()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("marshal operation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-ID", c.cfg.ClientID)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if token := c.cfg.Token(); token != "" {
		req.Header.Set("Authorization", "OAuth "+token)
	}

	c.logger.Debug("gql-request", zap.String("operation", op.OperationName))

	resp, err := httpClient.Do(req)
	if err != nil {
		RequestsTotal.WithLabelValues(op.OperationName, "network_error").Inc()
		return nil, &NetworkError{Operation: op.OperationName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		RequestsTotal.WithLabelValues(op.OperationName, "unauthorized").Inc()
		return nil, fmt.Errorf("%s: %w", op.OperationName, ErrUnauthorized)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		RequestsTotal.WithLabelValues(op.OperationName, "network_error").Inc()
		return nil, &NetworkError{Operation: op.OperationName, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		RequestsTotal.WithLabelValues(op.OperationName, "http_error").Inc()
		return nil, &RemoteError{
			Operation:  op.OperationName,
			Message:    http.StatusText(resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	var gqlResp types.GQLResponse
	err = json.Unmarshal(raw, &gqlResp)
	if err != nil {
		RequestsTotal.WithLabelValues(op.OperationName, "decode_error").Inc()
		return nil, &RemoteError{Operation: op.OperationName, Message: fmt.Sprintf("invalid response: %v", err)}
	}

	if len(gqlResp.Errors) > 0 {
		RequestsTotal.WithLabelValues(op.OperationName, "remote_error").Inc()
		return nil, &RemoteError{Operation: op.OperationName, Message: gqlResp.Errors[0].Message}
	}

	RequestsTotal.WithLabelValues(op.OperationName, "ok").Inc()

	return &gqlResp, nil
}

// Close releases the shared http.Client. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient == nil {
		return nil
	}

	c.httpClient.CloseIdleConnections()
	c.httpClient = nil

	c.logger.Debug("gql-session-closed")

	return nil
}

// requestData runs op and decodes the data object into out.
func (c *Client) requestData(ctx context.Context, op types.Operation, out any) error {
	resp, err := c.Request(ctx, op)
	if err != nil {
		return err
	}
	if !resp.HasData() {
		return &RemoteError{Operation: op.OperationName, Message: "response has no data"}
	}

	err = json.Unmarshal(resp.Data, out)
	if err != nil {
		return &RemoteError{Operation: op.OperationName, Message: fmt.Sprintf("decode data: %v", err)}
	}
	return nil
}

// CurrentUser fetches the identity bound to the current token.
func (c *Client) CurrentUser(ctx context.Context) (*types.CurrentUserData, error) {
	var data types.CurrentUserData
	err := c.requestData(ctx, CurrentUserOp(), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// DropCampaigns fetches the raw campaign listing.
func (c *Client) DropCampaigns(ctx context.Context) (*types.DropCampaignsData, error) {
	var data types.DropCampaignsData
	err := c.requestData(ctx, DropCampaignsOp(), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Inventory lists the account's in-progress campaigns.
func (c *Client) Inventory(ctx context.Context) (*types.InventoryData, error) {
	var data types.InventoryData
	err := c.requestData(ctx, InventoryOp(), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// GameDirectory lists live streams of a game.
func (c *Client) GameDirectory(ctx context.Context, slug string, limit int) (*types.GameDirectoryData, error) {
	var data types.GameDirectoryData
	err := c.requestData(ctx, GameDirectoryOp(slug, limit), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// StreamMetadata fetches live status for a channel login.
func (c *Client) StreamMetadata(ctx context.Context, login string) (*types.StreamMetadataData, error) {
	var data types.StreamMetadataData
	err := c.requestData(ctx, StreamMetadataOp(login), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// ClaimDrop redeems a drop instance. Any response carrying data counts as success.
func (c *Client) ClaimDrop(ctx context.Context, dropInstanceID string) (*types.ClaimDropData, error) {
	if dropInstanceID == "" {
		return nil, errors.New("claim drop: empty drop instance id")
	}

	var data types.ClaimDropData
	err := c.requestData(ctx, ClaimDropOp(dropInstanceID), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}
