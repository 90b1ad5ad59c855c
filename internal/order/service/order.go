package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"order-system/internal/domain"
	"order-system/internal/logger"
	"order-system/internal/notifier"
	"order-system/internal/storage"
)

// Engine is the order transaction core: every mutation runs as one
// atomic unit of work across the order ledger, the inventory counters
// and the rolling aggregates. Cache invalidation and event publishing
// happen outside the transaction and never fail a mutation.
type Engine struct {
	store    storage.Store
	pub      notifier.Publisher
	lg       *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewEngine(store storage.Store, pub notifier.Publisher, lg *logger.Logger) *Engine {
	return &Engine{
		store:    store,
		pub:      pub,
		lg:       lg,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (e *Engine) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if err := e.validateCreate(req); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		now := e.now().UTC()
		o := &domain.Order{
			ID:          uuid.New(),
			UserID:      req.UserID,
			Status:      domain.StatusPending,
			Type:        req.OrderType,
			TableNumber: req.TableNumber,
			Notes:       req.Notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		total := decimal.Zero
		for _, line := range req.Items {
			p, err := tx.Products().Get(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if _, err := tx.Products().Reserve(ctx, p.ID, line.Quantity); err != nil {
				return err
			}
			// price captured at order time, immutable afterwards
			o.Items = append(o.Items, domain.OrderItem{
				ID:        uuid.New(),
				OrderID:   o.ID,
				ProductID: p.ID,
				Quantity:  line.Quantity,
				Price:     p.Price,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		o.Total = total

		seq, err := tx.Analytics().ApplyOrderCreated(ctx, o)
		if err != nil {
			return err
		}
		o.Number = orderNumber(now, seq)

		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.lg.Info("order_created", map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.Number,
		"user_id":      order.UserID.String(),
		"total":        order.Total.String(),
	})
	if err := e.pub.PublishCreated(ctx, order); err != nil {
		e.lg.Warn("publish_failed", err, map[string]any{"order_id": order.ID.String()})
	}
	return order, nil
}

func (e *Engine) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (*domain.Order, error) {
	if !status.Valid() {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("invalid order status %q", status)}
	}

	var (
		order   *domain.Order
		changed bool
	)
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == status {
			// idempotent no-op; notably cancelling an already-cancelled
			// order must not release stock a second time
			order = o
			return nil
		}
		if !o.Status.CanTransitionTo(status) {
			return &domain.ValidationError{
				Msg: fmt.Sprintf("cannot transition order from %s to %s", o.Status, status),
			}
		}

		if status.Released() && !o.Status.Released() {
			for _, it := range o.Items {
				if _, err := tx.Products().Release(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
			if status == domain.StatusCancelled {
				// keyed by the order's original creation day, not "now"
				if err := tx.Analytics().ApplyOrderCancelled(ctx, o); err != nil {
					return err
				}
			}
		}

		if err := tx.Orders().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		o.Status = status
		o.UpdatedAt = e.now().UTC()
		order = o
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		e.lg.Info("order_status_updated", map[string]any{
			"order_id": order.ID.String(),
			"status":   string(order.Status),
		})
		if err := e.pub.PublishUpdated(ctx, order); err != nil {
			e.lg.Warn("publish_failed", err, map[string]any{"order_id": order.ID.String()})
		}
	}
	return order, nil
}

func (e *Engine) Update(ctx context.Context, id uuid.UUID, req domain.UpdateOrderRequest) (*domain.Order, error) {
	if err := e.check(req); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		patch := storage.OrderPatch{
			UserID:      req.UserID,
			TableNumber: req.TableNumber,
			Notes:       req.Notes,
		}
		if err := tx.Orders().Patch(ctx, id, patch); err != nil {
			return err
		}
		if req.UserID != nil {
			o.UserID = *req.UserID
		}
		if req.TableNumber != nil {
			o.TableNumber = req.TableNumber
		}
		if req.Notes != nil {
			o.Notes = req.Notes
		}
		o.UpdatedAt = e.now().UTC()
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.pub.PublishUpdated(ctx, order); err != nil {
		e.lg.Warn("publish_failed", err, map[string]any{"order_id": order.ID.String()})
	}
	return order, nil
}

// Remove hard-deletes an order. Reserved stock is released exactly once:
// here if the order was never cancelled, otherwise it already happened
// on cancellation.
func (e *Engine) Remove(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.Released() {
			for _, it := range o.Items {
				if _, err := tx.Products().Release(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}
		if err := tx.Orders().Delete(ctx, id); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.lg.Info("order_removed", map[string]any{"order_id": order.ID.String()})
	return order, nil
}

func (e *Engine) AddOrUpdateItem(ctx context.Context, orderID uuid.UUID, req domain.AddOrderItemRequest) (*domain.Order, error) {
	if err := e.check(req); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status.Released() {
			return &domain.ValidationError{
				Msg: fmt.Sprintf("cannot modify items of a %s order", o.Status),
			}
		}

		if existing := o.ItemByProduct(req.ProductID); existing != nil {
			if _, err := tx.Products().Reserve(ctx, req.ProductID, req.Quantity); err != nil {
				return err
			}
			existing.Quantity += req.Quantity
			if err := tx.Orders().UpdateItemQuantity(ctx, existing.ID, existing.Quantity); err != nil {
				return err
			}
		} else {
			p, err := tx.Products().Get(ctx, req.ProductID)
			if err != nil {
				return err
			}
			if _, err := tx.Products().Reserve(ctx, p.ID, req.Quantity); err != nil {
				return err
			}
			item := domain.OrderItem{
				ID:        uuid.New(),
				OrderID:   o.ID,
				ProductID: p.ID,
				Quantity:  req.Quantity,
				Price:     p.Price,
			}
			if err := tx.Orders().AddItem(ctx, &item); err != nil {
				return err
			}
			o.Items = append(o.Items, item)
		}

		// never let the stored total drift from the item set
		o.RecomputeTotal()
		if err := tx.Orders().UpdateTotal(ctx, o.ID, o.Total); err != nil {
			return err
		}
		o.UpdatedAt = e.now().UTC()
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.pub.PublishUpdated(ctx, order); err != nil {
		e.lg.Warn("publish_failed", err, map[string]any{"order_id": order.ID.String()})
	}
	return order, nil
}

func (e *Engine) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status.Released() {
			return &domain.ValidationError{
				Msg: fmt.Sprintf("cannot modify items of a %s order", o.Status),
			}
		}
		item := o.ItemByID(itemID)
		if item == nil {
			return &domain.NotFoundError{Entity: "order item", ID: itemID.String()}
		}

		if _, err := tx.Products().Release(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
		if err := tx.Orders().DeleteItem(ctx, itemID); err != nil {
			return err
		}
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items = append(o.Items[:i], o.Items[i+1:]...)
				break
			}
		}
		o.RecomputeTotal()
		if err := tx.Orders().UpdateTotal(ctx, o.ID, o.Total); err != nil {
			return err
		}
		o.UpdatedAt = e.now().UTC()
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.pub.PublishUpdated(ctx, order); err != nil {
		e.lg.Warn("publish_failed", err, map[string]any{"order_id": order.ID.String()})
	}
	return order, nil
}

func (e *Engine) FindOne(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return e.store.Orders().Get(ctx, id)
}

func (e *Engine) FindAll(ctx context.Context) ([]domain.Order, error) {
	return e.store.Orders().List(ctx)
}

func (e *Engine) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return e.store.Orders().ListByUser(ctx, userID)
}

func (e *Engine) validateCreate(req domain.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return &domain.ValidationError{Msg: "order must contain at least one item"}
	}
	if err := e.check(req); err != nil {
		return err
	}
	seen := make(map[uuid.UUID]bool, len(req.Items))
	for _, it := range req.Items {
		if seen[it.ProductID] {
			return &domain.ValidationError{
				Msg: fmt.Sprintf("duplicate product %s in order; adjust the quantity instead", it.ProductID),
			}
		}
		seen[it.ProductID] = true
	}
	return nil
}

func (e *Engine) check(v any) error {
	err := e.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return &domain.ValidationError{
			Msg: fmt.Sprintf("invalid value for %s (rule %q)", f.Namespace(), f.Tag()),
		}
	}
	return &domain.ValidationError{Msg: err.Error()}
}

// orderNumber formats the human-readable order number: date plus the
// order's position in that day's sequence.
func orderNumber(at time.Time, daySequence int) string {
	return fmt.Sprintf("ORD_%s_%03d", at.UTC().Format("20060102"), daySequence)
}
