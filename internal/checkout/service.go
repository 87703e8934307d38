package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/hikari-shop/hikari/internal/catalog/products"
	"github.com/hikari-shop/hikari/internal/notifications"
	"github.com/hikari-shop/hikari/internal/orders"
	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/settings"
	"github.com/hikari-shop/hikari/internal/shared"
	"github.com/hikari-shop/hikari/jobs"
)

// SettingsSource yields the pricing configuration applied at checkout.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Enqueuer submits post-checkout background work.
type Enqueuer interface {
	EnqueueOrderConfirmation(ctx context.Context, payload jobs.OrderConfirmationPayload) (*asynq.TaskInfo, error)
}

// Request is the checkout submission.
type Request struct {
	ShippingAddress orders.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	Notes           string                 `json:"notes"`
}

// Result is returned to the shopper after a successful checkout.
type Result struct {
	Success     bool    `json:"success"`
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	TotalAmount float64 `json:"total_amount"`
}

// Service turns a cart into an order in one transaction.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	settings SettingsSource
	enqueuer Enqueuer
	validate *validator.Validate
}

// NewService constructs a Service. The enqueuer may be nil, in which case no
// confirmation job is submitted.
func NewService(logger *slog.Logger, repo Repository, settings SettingsSource, enqueuer Enqueuer) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		settings: settings,
		enqueuer: enqueuer,
		validate: validator.New(),
	}
}

// PlaceOrder validates the submission, then atomically verifies and
// decrements stock for every cart line, snapshots the lines into a new
// order, empties the cart and records a back-office notification. Stock is
// read under row locks inside the same transaction that decrements it, so a
// concurrent checkout for the last unit cannot oversell. Any failure leaves
// cart, stock and orders untouched.
func (s *Service) PlaceOrder(ctx context.Context, caller *shared.Identity, req Request) (*Result, error) {
	if err := s.validate.Struct(req.ShippingAddress); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	if req.PaymentMethod != orders.PaymentMethodCashOnDelivery && req.PaymentMethod != orders.PaymentMethodCreditCard {
		return nil, fmt.Errorf("%w: unsupported payment method %q", httpx.ErrValidation, req.PaymentMethod)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &orders.Order{
		ID:              uuid.NewString(),
		OrderNumber:     newOrderNumber(now),
		UserID:          caller.UserID,
		Status:          orders.StatusPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   orders.PaymentPending,
		Currency:        cfg.Currency,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.PaymentMethod == orders.PaymentMethodCreditCard {
		order.PaymentStatus = orders.PaymentPaid
	}

	err = s.repo.InTx(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: cart is empty", httpx.ErrValidation)
		}

		loaded := map[string]*products.Product{}
		remaining := map[string]int{}

		var subtotal float64
		for _, line := range lines {
			product, ok := loaded[line.ProductID]
			if !ok {
				product, err = tx.ProductForUpdate(ctx, line.ProductID)
				if err != nil {
					return err
				}
				loaded[line.ProductID] = product
				remaining[product.ID] = product.Stock
				for _, v := range product.Variants {
					remaining[v.ID] = v.Stock
				}
			}
			if !product.IsActive {
				return fmt.Errorf("%w: %s is no longer available", httpx.ErrNotFound, product.Name)
			}

			stockKey := product.ID
			if product.HasVariants {
				if line.VariantID == nil {
					return fmt.Errorf("%w: %s requires a variant selection", httpx.ErrValidation, product.Name)
				}
				if product.VariantByID(*line.VariantID) == nil {
					return fmt.Errorf("%w: selected variant of %s is no longer available", httpx.ErrConflict, product.Name)
				}
				stockKey = *line.VariantID
			}
			if remaining[stockKey] < line.Quantity {
				return fmt.Errorf("%w: insufficient stock for %s", httpx.ErrConflict, product.Name)
			}
			if err := tx.DecrementStock(ctx, product.ID, line.VariantID, line.Quantity); err != nil {
				return err
			}
			remaining[stockKey] -= line.Quantity

			unitPrice := product.EffectiveUnitPrice()
			lineTotal := round2(unitPrice * float64(line.Quantity))
			subtotal += lineTotal

			order.Items = append(order.Items, orders.Item{
				ID:           uuid.NewString(),
				OrderID:      order.ID,
				ProductID:    product.ID,
				VariantID:    line.VariantID,
				Name:         product.Name,
				ProductImage: product.FirstImageURL(),
				Color:        line.ColorName,
				Size:         line.SizeName,
				Quantity:     line.Quantity,
				UnitPrice:    unitPrice,
				TotalPrice:   lineTotal,
			})
		}

		order.Subtotal = round2(subtotal)
		order.TaxAmount = round2(subtotal * cfg.TaxRate)
		order.ShippingAmount = cfg.ShippingCost
		order.TotalAmount = round2(order.Subtotal + order.TaxAmount + order.ShippingAmount)

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.ClearCart(ctx, caller.UserID); err != nil {
			return err
		}
		return tx.InsertNotification(ctx, &notifications.Notification{
			ID:        uuid.NewString(),
			Type:      notifications.TypeNewOrder,
			Message:   fmt.Sprintf("New order %s from %s", order.OrderNumber, caller.FullName),
			Link:      "/admin/orders/" + order.ID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.enqueuer != nil {
		_, err := s.enqueuer.EnqueueOrderConfirmation(ctx, jobs.OrderConfirmationPayload{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Email:       caller.Email,
			TotalAmount: order.TotalAmount,
			Currency:    order.Currency,
		})
		if err != nil {
			s.logger.Warn("enqueue order confirmation", slog.String("order_id", order.ID), slog.Any("error", err))
		}
	}

	return &Result{
		Success:     true,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
	}, nil
}

// newOrderNumber builds a human-readable yet collision-resistant number.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
