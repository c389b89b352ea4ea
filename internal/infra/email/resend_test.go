package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lojaia/internal/domain/model"
	"lojaia/internal/infra/email"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func paidOrder() model.Order {
	return model.Order{
		ID:          7,
		FullName:    "Ana Souza",
		Email:       "ana@example.com",
		Status:      model.OrderStatusPaid,
		TotalAmount: decimal.RequireFromString("25.00"),
	}
}

func TestClient_SendOrderConfirmation_SendsRequestWithIdempotencyKey(t *testing.T) {
	var gotAuth, gotIdemKey string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotIdemKey = r.Header.Get("Idempotency-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_test_1"}`))
	}))
	defer server.Close()

	client := email.NewClientWithBaseURL("re_test_key", "Loja IA <onboarding@resend.dev>", server.URL)

	err := client.SendOrderConfirmation(context.Background(), paidOrder(), "order-7-paid")

	assert.NoError(t, err)
	assert.Equal(t, "Bearer re_test_key", gotAuth)
	assert.Equal(t, "order-7-paid", gotIdemKey)
	assert.Equal(t, "Loja IA <onboarding@resend.dev>", gotBody["from"])
	assert.Equal(t, "ana@example.com", gotBody["to"])
	assert.Contains(t, gotBody["subject"], "Pedido #7")
	assert.Contains(t, gotBody["html"], "R$ 25.00")
	assert.Contains(t, gotBody["text"], "Ana Souza")
}

func TestClient_SendOrderConfirmation_NoAPIKeyIsNoop(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := email.NewClientWithBaseURL("", "Loja IA <onboarding@resend.dev>", server.URL)

	//キー未設定環境では送信せず成功扱い
	err := client.SendOrderConfirmation(context.Background(), paidOrder(), "order-7-paid")
	assert.NoError(t, err)
	assert.Equal(t, 0, requests)
}

func TestClient_SendOrderConfirmation_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer server.Close()

	client := email.NewClientWithBaseURL("re_test_key", "Loja IA <onboarding@resend.dev>", server.URL)

	err := client.SendOrderConfirmation(context.Background(), paidOrder(), "order-7-paid")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
