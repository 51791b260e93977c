package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrMissingAccessToken = errors.New("shopify: no access token for shop")
	ErrProductNotFound    = errors.New("shopify: product not found")
)

type Config struct {
	APIVersion   string
	AccessTokens map[string]string
	Timeout      time.Duration
	MetafieldNS  string
	MetafieldKey string
}

// Client talks to the Admin GraphQL API of every installed shop. Each call
// resolves the shop's offline token and runs under its own deadline.
type Client struct {
	httpClient *http.Client
	cfg        Config
	baseURL    string
}

type Option func(*Client)

// WithBaseURL points every shop at one host. Used against httptest servers.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2025-10"
	}
	tokens := make(map[string]string, len(cfg.AccessTokens))
	for shop, token := range cfg.AccessTokens {
		tokens[strings.ToLower(shop)] = token
	}
	cfg.AccessTokens = tokens

	c := &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type GraphQLError struct {
	Message string `json:"message"`
}

type GraphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

// UserErrorsError reports a mutation that the API accepted but refused to apply.
type UserErrorsError struct {
	Action string
	Errors []UserError
}

func (e *UserErrorsError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		field := strings.Join(ue.Field, ".")
		if field == "" {
			parts = append(parts, ue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, ue.Message))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("shopify %s failed with user errors", e.Action)
	}
	return fmt.Sprintf("shopify %s failed: %s", e.Action, strings.Join(parts, "; "))
}

func (c *Client) endpoint(shop string) string {
	if c.baseURL != "" {
		return fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL, c.cfg.APIVersion)
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.cfg.APIVersion)
}

// execute posts one GraphQL document and decodes the data envelope into out.
func execute[T any](ctx context.Context, c *Client, shop string, query string, variables map[string]interface{}) (T, error) {
	var zero T

	token, ok := c.cfg.AccessTokens[strings.ToLower(shop)]
	if !ok || token == "" {
		return zero, fmt.Errorf("%w: %s", ErrMissingAccessToken, shop)
	}

	b, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return zero, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(shop), bytes.NewReader(b))
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Shopify-Access-Token", token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return zero, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var out GraphQLResponse[T]
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return zero, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}
	return out.Data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
