package usecase

import (
	"context"

	"github.com/shopspring/decimal"
)

// metrics.Recorderが満たす
type OrderMetrics interface {
	OrderPlaced(ctx context.Context, total decimal.Decimal, paymentMethod string)
	OrderPlacementFailed(ctx context.Context, reason string)
	OrderUpdated(ctx context.Context, status string)
}

type CartMetrics interface {
	CartMutated(ctx context.Context, action string)
}
