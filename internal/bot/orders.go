package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/viewsbot/core/logger"
	"github.com/m3rciful/viewsbot/internal/ledger"
)

// ErrPayment marks orders the API accepted but the ledger could not charge.
var ErrPayment = errors.New("bot: payment failed")

// Submitter places an order with the external views provider.
type Submitter interface {
	Submit(ctx context.Context, link string, qty int64) error
}

// OrderResult describes a confirmed order.
type OrderResult struct {
	Order   ledger.Order
	Balance int64
}

// OrderPipeline submits an order upstream and charges the ledger once it is accepted.
// Submissions are not retried and carry no idempotency key, so a timeout after
// the provider accepted the order leaves the user uncharged.
type OrderPipeline struct {
	api    Submitter
	ledger *ledger.Ledger
}

// NewOrderPipeline wires the provider client to the ledger.
func NewOrderPipeline(api Submitter, l *ledger.Ledger) *OrderPipeline {
	return &OrderPipeline{api: api, ledger: l}
}

// Submit runs one order. Provider errors are returned unchanged and leave the
// ledger untouched; a failed charge after acceptance is wrapped in ErrPayment.
func (p *OrderPipeline) Submit(ctx context.Context, userID int64, link string, qty int64) (OrderResult, error) {
	if err := p.api.Submit(ctx, link, qty); err != nil {
		return OrderResult{}, err
	}

	order, balance, err := p.ledger.PlaceOrder(ctx, userID, link, qty)
	if err != nil {
		logger.Orders.Error("order accepted upstream but not charged",
			slog.String("event", "order.charge_failed"),
			slog.Int64("user_id", userID),
			slog.Int64("qty", qty),
			slog.String("err", err.Error()),
		)
		return OrderResult{}, fmt.Errorf("%w: %w", ErrPayment, err)
	}

	logger.Orders.Info("order placed",
		slog.String("event", "order.placed"),
		slog.String("order_id", order.ID),
		slog.Int64("user_id", userID),
		slog.Int64("qty", qty),
		slog.Int64("balance", balance),
	)
	return OrderResult{Order: order, Balance: balance}, nil
}
