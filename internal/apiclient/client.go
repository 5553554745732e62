package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mall-bot/internal/models"
	"mall-bot/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	// ErrAccessDenied is returned when the card does not belong to the user.
	ErrAccessDenied = errors.New("card does not belong to user")
	// ErrUnexpectedStatus wraps any status the operation does not expect.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Config holds the backend location and per-call time bounds.
type Config struct {
	BaseURL       string
	ReadTimeout   time.Duration
	SubmitTimeout time.Duration
	ProbeTimeout  time.Duration
}

// Client is a stateless wrapper over the e-commerce REST API.
// No call is retried.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new API client
func NewClient(cfg Config) *Client {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 15 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     util.GetLogger().Named("apiclient"),
	}
}

// ListProducts fetches the whole catalog.
func (c *Client) ListProducts(ctx context.Context) Result[[]models.Product] {
	const op = "list_products"
	status, body, err := c.do(ctx, op, http.MethodGet, "/products", nil, nil, c.cfg.ReadTimeout)
	if err != nil {
		return record(op, failureResult[[]models.Product](err))
	}

	if status != http.StatusOK {
		return record(op, unexpected[[]models.Product](c.logger, op, status, body))
	}
	return record(op, decodeList[models.Product](body))
}

// SearchProducts fetches products whose name contains name. 404 means no match.
func (c *Client) SearchProducts(ctx context.Context, name string) Result[[]models.Product] {
	const op = "search_products"
	query := url.Values{"productName": {name}}
	status, body, err := c.do(ctx, op, http.MethodGet, "/products/search", query, nil, c.cfg.ReadTimeout)
	if err != nil {
		return record(op, failureResult[[]models.Product](err))
	}

	switch status {
	case http.StatusOK:
		return record(op, decodeList[models.Product](body))
	case http.StatusNotFound:
		c.logger.Info("No products match search", zap.String("product_name", name))
		return record(op, emptyResult[[]models.Product]())
	}
	return record(op, unexpected[[]models.Product](c.logger, op, status, body))
}

// ListUserOrders fetches a user's orders. 404 means no orders or no user.
func (c *Client) ListUserOrders(ctx context.Context, userID int64) Result[[]models.Order] {
	const op = "list_user_orders"
	path := "/orders/user/" + strconv.FormatInt(userID, 10)
	status, body, err := c.do(ctx, op, http.MethodGet, path, nil, nil, c.cfg.ReadTimeout)
	if err != nil {
		return record(op, failureResult[[]models.Order](err))
	}

	switch status {
	case http.StatusOK:
		return record(op, decodeList[models.Order](body))
	case http.StatusNotFound:
		c.logger.Info("User not found or without orders", zap.Int64("user_id", userID))
		return record(op, emptyResult[[]models.Order]())
	}
	return record(op, unexpected[[]models.Order](c.logger, op, status, body))
}

// GetCardStatement fetches a card's transactions.
// 404 is empty; 403 is a failure wrapping ErrAccessDenied.
func (c *Client) GetCardStatement(ctx context.Context, userID, cardID int64) Result[[]models.Transaction] {
	const op = "get_card_statement"
	path := fmt.Sprintf("/users/%d/credit-card/%d/statement", userID, cardID)
	status, body, err := c.do(ctx, op, http.MethodGet, path, nil, nil, c.cfg.ReadTimeout)
	if err != nil {
		return record(op, failureResult[[]models.Transaction](err))
	}

	log := c.logger.With(zap.Int64("user_id", userID), zap.Int64("card_id", cardID))
	switch status {
	case http.StatusOK:
		return record(op, decodeList[models.Transaction](body))
	case http.StatusNotFound:
		log.Info("User or card not found")
		return record(op, emptyResult[[]models.Transaction]())
	case http.StatusForbidden:
		log.Warn("Card does not belong to user")
		return record(op, failureResult[[]models.Transaction](ErrAccessDenied))
	}
	return record(op, unexpected[[]models.Transaction](c.logger, op, status, body))
}

// SubmitOrder posts a new order. Only 201 counts as success.
func (c *Client) SubmitOrder(ctx context.Context, submission *models.OrderSubmission) Result[*models.OrderConfirmation] {
	const op = "submit_order"
	payload, err := json.Marshal(submission)
	if err != nil {
		return record(op, failureResult[*models.OrderConfirmation](fmt.Errorf("failed to marshal order: %w", err)))
	}

	status, body, err := c.do(ctx, op, http.MethodPost, "/orders", nil, payload, c.cfg.SubmitTimeout)
	if err != nil {
		return record(op, failureResult[*models.OrderConfirmation](err))
	}

	if status != http.StatusCreated {
		c.logger.Error("Order submission rejected",
			zap.Int("status", status),
			zap.Int64("user_id", submission.UserID),
			zap.ByteString("response", body))
		return record(op, failureResult[*models.OrderConfirmation](fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)))
	}

	var confirmation models.OrderConfirmation
	if err := json.Unmarshal(body, &confirmation); err != nil {
		c.logger.Error("Failed decoding order confirmation", zap.Error(err), zap.ByteString("response", body))
		return record(op, failureResult[*models.OrderConfirmation](fmt.Errorf("failed to decode order confirmation: %w", err)))
	}

	c.logger.Info("Order created", zap.String("order_id", confirmation.OrderID))
	return record(op, dataResult(&confirmation))
}

// Ping reports whether the backend answers a lightweight GET.
func (c *Client) Ping(ctx context.Context) bool {
	const op = "ping"
	status, _, err := c.do(ctx, op, http.MethodGet, "/products", nil, nil, c.cfg.ProbeTimeout)
	if err != nil {
		util.BackendRequestsTotal.WithLabelValues(op, OutcomeFailure.String()).Inc()
		return false
	}
	if status != http.StatusOK {
		c.logger.Warn("Backend answered probe with unexpected status", zap.Int("status", status))
		util.BackendRequestsTotal.WithLabelValues(op, OutcomeFailure.String()).Inc()
		return false
	}
	util.BackendRequestsTotal.WithLabelValues(op, OutcomeData.String()).Inc()
	return true
}

// do issues one bounded request and returns the status and full body.
func (c *Client) do(
	ctx context.Context,
	op, method, path string,
	query url.Values,
	payload []byte,
	timeout time.Duration,
) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, span := util.StartSpan(ctx, "apiclient."+op,
		attribute.String("http.method", method),
		attribute.String("http.url", endpoint))
	var spanErr error
	defer func() { util.EndSpan(span, spanErr) }()

	start := time.Now()
	defer func() {
		util.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	log := c.logger.With(zap.String("operation", op), zap.String("url", endpoint))

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		log.Error("Failed building request", zap.Error(err))
		spanErr = err
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Backend request timed out", zap.Duration("timeout", timeout))
		} else {
			log.Error("Backend request failed", zap.Error(err))
		}
		spanErr = err
		return 0, nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		spanErr = err
		return 0, nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	log.Debug("Backend responded", zap.Int("status", resp.StatusCode))
	return resp.StatusCode, body, nil
}

func unexpected[T any](log *zap.Logger, op string, status int, body []byte) Result[T] {
	log.Error("Backend returned unexpected status",
		zap.String("operation", op),
		zap.Int("status", status),
		zap.ByteString("response", body))
	return failureResult[T](fmt.Errorf("%w: %d", ErrUnexpectedStatus, status))
}

func decodeList[T any](body []byte) Result[[]T] {
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return failureResult[[]T](fmt.Errorf("failed to decode response: %w", err))
	}
	if len(items) == 0 {
		return emptyResult[[]T]()
	}
	return dataResult(items)
}

func record[T any](op string, r Result[T]) Result[T] {
	util.BackendRequestsTotal.WithLabelValues(op, r.Outcome.String()).Inc()
	return r
}
