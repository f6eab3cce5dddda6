// Package ordersapi talks to the upstream order service.
package ordersapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-merchant-console/internal/config"
	"github.com/ariefcatur/go-merchant-console/internal/orders"
)

// StatusError is a non-2xx answer from the upstream service.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) retryable() bool { return e.Code >= 500 }

type Client struct {
	BaseURL string
	Token   string
	Timeout time.Duration // per attempt
	Retries int           // extra attempts on transport errors and 5xx
	Backoff time.Duration
	HTTP    *http.Client
	Log     *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		BaseURL: cfg.OrdersAPIURL,
		Token:   cfg.OrdersAPIToken,
		Timeout: cfg.OrdersAPITimeout,
		Retries: cfg.OrdersAPIRetries,
		Backoff: 200 * time.Millisecond,
		HTTP:    &http.Client{},
		Log:     log,
	}
}

func (c *Client) ListOrders(ctx context.Context) ([]orders.Order, error) {
	var recs []orderRecord
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &recs); err != nil {
		return nil, err
	}
	out := make([]orders.Order, 0, len(recs))
	for _, r := range recs {
		o, err := r.toOrder()
		if err != nil {
			c.logger().Warn("skipping order record", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, serverID string, status orders.ServerStatus) (orders.Order, error) {
	var rec orderRecord
	path := "/orders/" + url.PathEscape(serverID) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, statusBody{Status: status}, &rec); err != nil {
		return orders.Order{}, err
	}
	if rec.ID == "" {
		// some deployments answer 204
		return orders.Order{ServerID: serverID}, nil
	}
	return rec.toOrder()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = b
	}

	// 4xx and a cancelled caller stop the loop; transport errors and 5xx retry
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.Backoff), uint64(max(c.Retries, 0))), ctx)
	op := func() error {
		err := c.attempt(ctx, method, path, body, out)
		var se *StatusError
		if err != nil && ((errors.As(err, &se) && !se.retryable()) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}
	attempt := 0
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		attempt++
		c.logger().Info("retrying upstream call",
			zap.String("method", method), zap.String("path", path), zap.Int("attempt", attempt),
			zap.Duration("wait", wait), zap.Error(err))
	})
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, out any) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}
