package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lojaia/internal/util"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.openai.com"

// DescriptionFallbackはAI生成に失敗したときに返す固定文言。
const DescriptionFallback = "Descricao confidencial nao disponivel no momento. " +
	"Contate o suporte da Loja IA."

const systemPrompt = "Voce e um Copywriter Especialista em E-commerce Tech/Cyberpunk. " +
	"Seu tom e futurista, persuasivo e conciso."

const userPromptTemplate = "Crie uma descricao de produto para e-commerce a partir do nome abaixo. " +
	"Siga exatamente esta estrutura, sem rotulos como 'Headline:' ou 'CTA:'.\n\n" +
	"Estrutura obrigatoria:\n" +
	"1) Uma headline de impacto (uma unica linha).\n" +
	"2) Um paragrafo curto destacando dor/solucao.\n" +
	"3) Uma lista com exatamente 3 bullet points com especificacoes tecnicas ficticias, " +
	"mas plausiveis para o produto.\n" +
	"4) Um call to action final sutil (uma unica linha).\n\n" +
	"Produto: %s"

// Clientは生成テキストサービスで商品説明を作る。
// 管理者の手動バッチ操作からだけ呼ばれる。失敗は常にフォールバック文言で吸収する。
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     util.GetLogger(),
	}
}

// NewClientWithBaseURLはテスト用にエンドポイントを差し替える。
func NewClientWithBaseURL(apiKey string, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateProductDescriptionは商品名から短い構造化された説明文を作る。
// エラーは返さない。どんな失敗でもフォールバック文言を返す。
func (c *Client) GenerateProductDescription(ctx context.Context, productName string) string {
	if c.apiKey == "" {
		util.AIDescriptionFallbackTotal.Inc()
		return DescriptionFallback
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:       "gpt-4o-mini",
		MaxTokens:   400,
		Temperature: 0.7,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, productName)},
		},
	})
	if err != nil {
		util.AIDescriptionFallbackTotal.Inc()
		return DescriptionFallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		util.AIDescriptionFallbackTotal.Inc()
		return DescriptionFallback
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("description generation request failed", zap.Error(err))
		util.AIDescriptionFallbackTotal.Inc()
		return DescriptionFallback
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("description generation rejected", zap.Int("status", resp.StatusCode))
		util.AIDescriptionFallbackTotal.Inc()
		return DescriptionFallback
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		util.AIDescriptionFallbackTotal.Inc()
		return DescriptionFallback
	}

	if len(out.Choices) == 0 {
		util.AIDescriptionFallbackTotal.Inc()
		return DescriptionFallback
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		util.AIDescriptionFallbackTotal.Inc()
		return DescriptionFallback
	}
	return content
}
