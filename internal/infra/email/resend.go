package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lojaia/internal/domain/model"
	"lojaia/internal/util"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.resend.com"

// Clientはトランザクションメールプロバイダに送信する。
// APIキーが未設定なら送信はno-opになる。
type Client struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(apiKey string, from string) *Client {
	return &Client{
		apiKey:     apiKey,
		from:       from,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     util.GetLogger(),
	}
}

// NewClientWithBaseURLはテスト用にエンドポイントを差し替える。
func NewClientWithBaseURL(apiKey string, from string, baseURL string) *Client {
	c := NewClient(apiKey, from)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// SendOrderConfirmationは支払い確認メールを送る。
// idempotencyKeyで再送時のat-most-once配信をプロバイダに依頼する。
func (c *Client) SendOrderConfirmation(ctx context.Context, order model.Order, idempotencyKey string) error {
	if c.apiKey == "" {
		c.logger.Info("email api key not configured, skipping confirmation email",
			zap.Int64("order_id", order.ID))
		return nil
	}

	subject := fmt.Sprintf("Pedido #%d Confirmado! 🚀", order.ID)
	total := order.TotalAmount.StringFixed(2)

	html := fmt.Sprintf(
		"<p>Olá %s,</p>"+
			"<p>Pagamento confirmado! Seu pedido foi recebido com sucesso.</p>"+
			"<p>Total: R$ %s</p>"+
			"<p>Obrigado por comprar com a Loja IA.</p>",
		order.FullName, total,
	)
	text := fmt.Sprintf(
		"Olá %s,\n\n"+
			"Pagamento confirmado! Seu pedido foi recebido com sucesso.\n"+
			"Total: R$ %s\n\n"+
			"Obrigado por comprar com a Loja IA.",
		order.FullName, total,
	)

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      order.Email,
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email send request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email send failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	var out sendResponse
	_ = json.Unmarshal(respBody, &out)

	c.logger.Info("confirmation email sent",
		zap.Int64("order_id", order.ID),
		zap.String("email_id", out.ID))

	return nil
}
