// Package backend содержит обертку над HTTP API платформы для партнера.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"partner-tracker/internal/config"
	"partner-tracker/internal/logger"
	"partner-tracker/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound ресурс не найден на стороне платформы
var ErrNotFound = errors.New("not found")

// APIError представляет ошибку ответа платформы с сообщением для партнера
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Action представляет действие партнера над заказом
type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionDeliver Action = "deliver"
	ActionArrive  Action = "arrive"
	ActionFinish  Action = "finish"
)

// Client представляет клиент API платформы
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewClient создает новый клиент API платформы
func NewClient(cfg *config.BackendConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		token:      cfg.Token,
	}
}

// SetToken заменяет токен авторизации
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Profile получает профиль партнера
func (c *Client) Profile(ctx context.Context) (*models.Driver, error) {
	var driver models.Driver
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &driver); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &driver, nil
}

// CurrentOrder получает текущий заказ партнера; nil означает, что заказа нет
func (c *Client) CurrentOrder(ctx context.Context) (*models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodGet, "/orders/current", nil, &order)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current order: %w", err)
	}
	if order.ID == uuid.Nil {
		return nil, nil
	}
	return &order, nil
}

// TransitionRequest представляет тело запроса действия над заказом
type TransitionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Transition выполняет действие над заказом и возвращает обновленный заказ
func (c *Client) Transition(ctx context.Context, orderID uuid.UUID, action Action, reason string) (*models.Order, error) {
	var body interface{}
	if reason != "" {
		body = TransitionRequest{Reason: reason}
	}

	var order models.Order
	path := fmt.Sprintf("/orders/%s/%s", orderID, action)
	if err := c.do(ctx, http.MethodPost, path, body, &order); err != nil {
		return nil, fmt.Errorf("failed to %s order %s: %w", action, orderID, err)
	}

	c.log.WithField("order_id", orderID).
		WithField("action", action).
		WithField("status", order.Status).
		Debug("Order transition applied by backend")

	return &order, nil
}

// WalletBalance получает баланс кошелька партнера
func (c *Client) WalletBalance(ctx context.Context) (float64, error) {
	var resp struct {
		Balance float64 `json:"balance"`
	}
	if err := c.do(ctx, http.MethodGet, "/wallet/balance", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to get wallet balance: %w", err)
	}
	return resp.Balance, nil
}

// DriverSummary получает сводку партнера
func (c *Client) DriverSummary(ctx context.Context) (*models.DriverSummary, error) {
	var summary models.DriverSummary
	if err := c.do(ctx, http.MethodGet, "/summary", nil, &summary); err != nil {
		return nil, fmt.Errorf("failed to get driver summary: %w", err)
	}
	return &summary, nil
}

// do выполняет запрос и декодирует JSON ответ в dest
func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("JSON decode failed: %w", err)
	}
	return nil
}

// errorMessage достает человекочитаемое сообщение из тела ответа
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(status)
}

// UserMessage возвращает сообщение ошибки для показа партнеру
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Network error, check your connection and try again"
}
