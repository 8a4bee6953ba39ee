package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"intervue/internal/utils/extractor"
)

// ErrNotFound is returned when a row query matches nothing.
var ErrNotFound = errors.New("row not found")

// Store aggregates the row-level clients for the three hosted tables. The
// backend is a hosted relational store reached through its generic row CRUD
// HTTP API; every write is a single-row insert or update and there are no
// transactions spanning tables.
type Store struct {
	Session  ISession
	Response IResponse
	Profile  IProfile
}

type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

func ReadConfig() *Config {
	viper.BindEnv("store.base_url", "STORE_BASE_URL")
	viper.BindEnv("store.service_key", "STORE_SERVICE_KEY")

	cfg := &Config{
		BaseURL:    viper.GetString("store.base_url"),
		ServiceKey: viper.GetString("store.service_key"),
		Timeout:    viper.GetDuration("store.timeout"),
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}

func New(cfg *Config, logger *zap.Logger) *Store {
	c := &client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		logger:     logger,
	}
	return &Store{
		Session:  &restSession{c},
		Response: &restResponse{c},
		Profile:  &restProfile{c},
	}
}

type client struct {
	http       *http.Client
	baseURL    string
	serviceKey string
	logger     *zap.Logger
}

// do sends one row CRUD request. The caller's bearer token, when present on
// the context, is forwarded so the store's own access rules apply to the row.
func (c *client) do(ctx context.Context, method, table string, query url.Values, body interface{}, out interface{}) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewBuffer(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", c.serviceKey)
	if out != nil && method != http.MethodGet {
		httpReq.Header.Set("Prefer", "return=representation")
	}

	token := c.serviceKey
	if id, err := extractor.FromContext(ctx); err == nil && id.Token != "" {
		token = id.Token
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "failed to send HTTP request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Store request rejected",
			zap.String("table", table),
			zap.String("method", method),
			zap.Int("status", resp.StatusCode))
		return errors.Errorf("store returned status %d for %s %s: %s", resp.StatusCode, method, table, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrap(err, "failed to unmarshal response JSON")
		}
	}
	return nil
}
