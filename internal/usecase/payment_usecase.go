package usecase

import (
	"context"
	"fmt"
	"strconv"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"
	"lojaia/internal/util"

	"go.uber.org/zap"
)

const (
	eventCheckoutCompleted = "checkout.session.completed"
	eventCheckoutExpired   = "checkout.session.expired"
)

// webhook検証済みの決済イベント。署名検証はhandler側で済んでいる前提。
type PaymentEvent struct {
	ID       string
	Type     string
	Metadata map[string]string
}

// 支払い確認メールの送信。失敗してもwebhook応答は失敗させない。
type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order model.Order, idempotencyKey string) error
}

type PaymentUsecase struct {
	orders repo.OrderRepository
	email  OrderEmailSender
	logger *zap.Logger
}

// DI
func NewPaymentUsecase(orders repo.OrderRepository, email OrderEmailSender) *PaymentUsecase {
	return &PaymentUsecase{
		orders: orders,
		email:  email,
		logger: util.GetLogger(),
	}
}

// HandleEventは決済完了/失効イベントで注文ステータスを遷移させる。
// order_idが無い・注文が見つからない場合はログだけ残してno-op（再配送ループを防ぐ）。
// 再配送された完了イベントは遷移もメール送信もしない。
func (u *PaymentUsecase) HandleEvent(ctx context.Context, event PaymentEvent) error {
	switch event.Type {
	case eventCheckoutCompleted:
		return u.handleCompleted(ctx, event)
	case eventCheckoutExpired:
		return u.handleExpired(ctx, event)
	default:
		//関心のないイベントは受領だけする
		util.WebhookEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}
}

func (u *PaymentUsecase) handleCompleted(ctx context.Context, event PaymentEvent) error {
	orderID, ok := orderIDFromMetadata(event.Metadata)
	if !ok {
		u.logger.Warn("completed event without order_id metadata", zap.String("event_id", event.ID))
		util.WebhookEventsTotal.WithLabelValues(event.Type, "no_order_id").Inc()
		return nil
	}

	transitioned, err := u.orders.UpdateStatusIfPending(ctx, orderID, model.OrderStatusPaid)
	if err == repo.ErrNotFound {
		u.logger.Warn("order not found for completed event", zap.Int64("order_id", orderID))
		util.WebhookEventsTotal.WithLabelValues(event.Type, "order_missing").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	if !transitioned {
		//再配送。既に処理済みなので何もしない。
		u.logger.Info("completed event redelivered, order already processed",
			zap.Int64("order_id", orderID))
		util.WebhookEventsTotal.WithLabelValues(event.Type, "duplicate").Inc()
		return nil
	}

	u.logger.Info("order marked as paid", zap.Int64("order_id", orderID))
	util.WebhookEventsTotal.WithLabelValues(event.Type, "ok").Inc()

	order, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		//ステータスは遷移済み。メールだけ諦める。
		u.logger.Error("failed to reload order for confirmation email",
			zap.Int64("order_id", orderID), zap.Error(err))
		return nil
	}

	//idempotency keyは注文ごとに固定。プロバイダ側でも二重送信を防ぐ。
	key := fmt.Sprintf("order-%d-paid", orderID)
	if err := u.email.SendOrderConfirmation(ctx, order, key); err != nil {
		u.logger.Error("failed to send confirmation email",
			zap.Int64("order_id", orderID), zap.Error(err))
		util.EmailSendTotal.WithLabelValues("error").Inc()
		return nil
	}
	util.EmailSendTotal.WithLabelValues("ok").Inc()

	return nil
}

func (u *PaymentUsecase) handleExpired(ctx context.Context, event PaymentEvent) error {
	orderID, ok := orderIDFromMetadata(event.Metadata)
	if !ok {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "no_order_id").Inc()
		return nil
	}

	transitioned, err := u.orders.UpdateStatusIfPending(ctx, orderID, model.OrderStatusFailed)
	if err == repo.ErrNotFound {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "order_missing").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	if transitioned {
		u.logger.Info("order marked as failed", zap.Int64("order_id", orderID))
		util.WebhookEventsTotal.WithLabelValues(event.Type, "ok").Inc()
	} else {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "duplicate").Inc()
	}
	return nil
}

func orderIDFromMetadata(metadata map[string]string) (int64, bool) {
	raw, ok := metadata["order_id"]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
