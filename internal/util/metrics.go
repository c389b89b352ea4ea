package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 注文〜決済フローのカウンタ
var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Total number of checkout session creations by result",
	}, []string{"result"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Total number of payment webhook events by type and result",
	}, []string{"type", "result"})

	EmailSendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_emails_total",
		Help: "Total number of order confirmation email attempts by result",
	}, []string{"result"})

	AIDescriptionFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ai_description_fallback_total",
		Help: "Total number of AI description generations that fell back",
	})
)
