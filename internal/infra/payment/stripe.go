package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lojaia/internal/usecase"
	"lojaia/internal/util"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.stripe.com"

// ClientはStripe互換のCheckout Session APIを叩く。
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     util.GetLogger(),
	}
}

// NewClientWithBaseURLはテスト用にエンドポイントを差し替える。
func NewClientWithBaseURL(secretKey string, baseURL string) *Client {
	c := NewClient(secretKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckoutSessionはホスト型決済ページのセッションを作ってURLを返す。
// 単価はセント単位。order_idはmetadataに入れてwebhookで照合する。
func (c *Client) CreateCheckoutSession(ctx context.Context, req usecase.CheckoutSessionRequest) (string, error) {
	if c.secretKey == "" {
		return "", fmt.Errorf("stripe secret key is not configured")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("metadata[order_id]", strconv.FormatInt(req.OrderID, 10))

	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "brl")
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("checkout session request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiErrorResponse
		_ = json.Unmarshal(body, &apiErr)
		c.logger.Warn("checkout session creation rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Error.Message))
		return "", fmt.Errorf("checkout session failed: status %d", resp.StatusCode)
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("invalid checkout session response: %w", err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("checkout session response has no url")
	}

	c.logger.Info("checkout session created",
		zap.Int64("order_id", req.OrderID),
		zap.String("session_id", session.ID))

	return session.URL, nil
}
