package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/bakehouse-labs/bakehouse-backend/internal/inventory"
	"github.com/bakehouse-labs/bakehouse-backend/internal/orders"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/outbox"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/outbox/payloads"
)

const defaultReservationBatch = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ReservationTTLJobParams configure the reservation expiry sweep.
type ReservationTTLJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Ledger    inventory.Service
	Outbox    outboxEmitter
	TTL       time.Duration
	BatchSize int
}

// NewReservationTTLJob builds the cron job that cancels reserved orders whose
// hold outlived the reservation TTL, returning their stock.
func NewReservationTTLJob(params ReservationTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("reservation ttl must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReservationBatch
	}
	return &reservationTTLJob{
		logg:   params.Logger,
		db:     params.DB,
		orders: params.Orders,
		ledger: params.Ledger,
		outbox: params.Outbox,
		ttl:    params.TTL,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type reservationTTLJob struct {
	logg   *logger.Logger
	db     txRunner
	orders orders.Repository
	ledger inventory.Service
	outbox outboxEmitter
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *reservationTTLJob) Name() string { return "reservation-ttl" }

func (j *reservationTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.orders.FindExpiredReservations(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query expired reservations: %w", err)
	}

	var errs []error
	expired := 0
	for _, order := range stale {
		if err := j.expireOrder(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		expired++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": expired})
	j.logg.Info(logCtx, "reservation expiry loop complete")
	return multierr.Combine(errs...)
}

// expireOrder runs per order so one bad row cannot wedge the whole sweep.
func (j *reservationTTLJob) expireOrder(ctx context.Context, order models.Order) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.orders.WithTx(tx)
		current, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusReserved {
			return nil
		}

		lines := make([]inventory.Line, 0, len(current.Items))
		for _, item := range current.Items {
			lines = append(lines, inventory.Line{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Qty:       item.Quantity,
			})
		}
		if len(lines) > 0 {
			if err := j.ledger.Release(ctx, tx, current.BranchID, lines); err != nil {
				return err
			}
		}

		now := j.now().UTC()
		err = repo.Update(ctx, current.ID, map[string]any{
			"status":         enums.OrderStatusCancelled,
			"payment_status": enums.PaymentStatusVoided,
			"cancelled_at":   now,
		})
		if err != nil {
			return err
		}

		reservedAt := current.CreatedAt
		if current.ReservedAt != nil {
			reservedAt = *current.ReservedAt
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderExpired,
			AggregateType: enums.AggregateOrder,
			AggregateID:   current.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderExpiredEvent{
				OrderID:    current.ID,
				BranchID:   current.BranchID,
				ReservedAt: reservedAt,
				ExpiredAt:  now,
			},
		})
	})
}
