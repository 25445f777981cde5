package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/internal/addresses"
	"github.com/nguyenhuy-dev/storelane-backend/internal/discounts"
	"github.com/nguyenhuy-dev/storelane-backend/internal/inventory"
	"github.com/nguyenhuy-dev/storelane-backend/internal/notifications"
	"github.com/nguyenhuy-dev/storelane-backend/internal/products"
	"github.com/nguyenhuy-dev/storelane-backend/internal/shipping"
	"github.com/nguyenhuy-dev/storelane-backend/internal/users"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/types"
)

const defaultNotifyTimeout = 10 * time.Second

// Service owns the order lifecycle: checkout, cancellation, the status
// machine and carrier synchronization.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, reason *string) (*models.Order, error)
	SyncShipment(ctx context.Context, orderID uuid.UUID, carrierCode string) (*models.Order, error)
}

// ServiceParams configure the order service.
type ServiceParams struct {
	Logger        *logger.Logger
	Repo          Repository
	Users         users.Repository
	Addresses     addresses.Repository
	Products      products.Repository
	Discounts     discounts.Service
	Inventory     inventory.Service
	Notifier      notifications.Notifier
	Tx            txRunner
	NotifyTimeout time.Duration

	// Carrier is optional. When set, confirming an order registers a
	// shipment with the carrier and stamps the tracking block.
	Carrier shipping.CarrierClient
}

type service struct {
	logg          *logger.Logger
	repo          Repository
	users         users.Repository
	addresses     addresses.Repository
	products      products.Repository
	discounts     discounts.Service
	inventory     inventory.Service
	notifier      notifications.Notifier
	tx            txRunner
	notifyTimeout time.Duration
	carrier       shipping.CarrierClient
	now           func() time.Time
}

// NewService builds an order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("addresses repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discounts service required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	notifyTimeout := params.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &service{
		logg:          params.Logger,
		repo:          params.Repo,
		users:         params.Users,
		addresses:     params.Addresses,
		products:      params.Products,
		discounts:     params.Discounts,
		inventory:     params.Inventory,
		notifier:      params.Notifier,
		tx:            params.Tx,
		notifyTimeout: notifyTimeout,
		carrier:       params.Carrier,
		now:           time.Now,
	}, nil
}

// Create runs the whole checkout as one atomic unit: price every line from
// the live catalog, revalidate the discount server-side, verify the
// client's total against the recomputed one, then insert the order, reserve
// stock and consume the discount together. Any failure rolls everything
// back.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	buyer, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find buyer")
	}
	if buyer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
	}

	shippingAddress, err := s.resolveAddress(ctx, input)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productsRepo := s.products.WithTx(tx)
		now := s.now()

		items, itemsTotal, err := s.priceLines(ctx, productsRepo, input.Items, now)
		if err != nil {
			return err
		}

		discountCents := int64(0)
		if input.DiscountID != nil {
			quote, err := s.discounts.Apply(ctx, tx, discounts.ApplyInput{
				DiscountID:      input.DiscountID,
				OrderValueCents: itemsTotal,
				UserID:          input.UserID,
			})
			if err != nil {
				return err
			}
			discountCents = quote.DiscountAmountCents
		}

		total := itemsTotal + input.ShippingCents - discountCents
		if total != input.ExpectedTotalCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "order total mismatch").
				WithDetails(map[string]any{
					"expected_total_cents": total,
					"submitted_cents":      input.ExpectedTotalCents,
				})
		}

		order = &models.Order{
			UserID:          input.UserID,
			AddressID:       input.AddressID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			PaymentMethod:   input.PaymentMethod,
			TotalCents:      total,
			ShippingCents:   input.ShippingCents,
			DiscountCents:   discountCents,
			DiscountID:      input.DiscountID,
			ShippingMethod:  input.ShippingMethod,
			ShippingAddress: shippingAddress,
			Note:            input.Note,
			Items:           items,
		}
		if _, err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}

		for _, item := range order.Items {
			if err := s.inventory.Reserve(ctx, tx, item.VariantID, item.Qty, order.ID); err != nil {
				return err
			}
		}

		if input.DiscountID != nil {
			orderID := order.ID
			if _, err := s.discounts.Apply(ctx, tx, discounts.ApplyInput{
				DiscountID:      input.DiscountID,
				OrderValueCents: itemsTotal,
				UserID:          input.UserID,
				OrderID:         &orderID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAsync(order.UserID, enums.NotificationOrderCreated, map[string]any{
		"order_id":    order.ID.String(),
		"total_cents": order.TotalCents,
	})
	return order, nil
}

func (s *service) validateCreateInput(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	hasID := input.AddressID != nil
	hasInline := input.Address != nil && !input.Address.IsZero()
	if hasID == hasInline {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one of address_id and address is required")
	}
	if hasInline {
		if field := input.Address.Validate(); field != "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "incomplete shipping address").
				WithDetails(map[string]any{"missing": field})
		}
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.ShippingMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
	if input.ShippingCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping price cannot be negative")
	}
	for _, line := range input.Items {
		if line.Qty < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		if line.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}
	return nil
}

func (s *service) resolveAddress(ctx context.Context, input CreateOrderInput) (types.ShippingAddress, error) {
	if input.AddressID == nil {
		return *input.Address, nil
	}
	address, err := s.addresses.FindForUser(ctx, *input.AddressID, input.UserID)
	if err != nil {
		return types.ShippingAddress{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find address")
	}
	if address == nil {
		return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address.Snapshot(), nil
}

// priceLines freezes every line from the live catalog. Flash pricing wins
// while the stamped window covers the checkout instant.
func (s *service) priceLines(ctx context.Context, productsRepo products.Repository, lines []LineInput, now time.Time) ([]models.OrderItem, int64, error) {
	items := make([]models.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		product, err := productsRepo.FindProduct(ctx, line.ProductID)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product")
		}
		if product == nil {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		variant, err := productsRepo.FindVariantForProduct(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find variant")
		}
		if variant == nil {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"variant_id": line.VariantID})
		}

		unit := variant.EffectivePriceCents(now)
		item := models.OrderItem{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			ProductTitle:   product.Title,
			VariantName:    variant.Name,
			Qty:            line.Qty,
			UnitPriceCents: unit,
			LineTotalCents: unit * int64(line.Qty),
		}
		if variant.FlashActiveAt(now) {
			item.IsFlashSale = true
			item.FlashSaleItemID = variant.FlashSaleItemID
		}
		items = append(items, item)
		total += item.LineTotalCents
	}
	return items, total, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// Cancel tears down a pending order: status and payment flip to cancelled
// and every line's quantity goes back onto its variant. Items stay on the
// order for history. Consumed discounts are not refunded here; that is an
// explicit separate call.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}

		now := s.now().UTC()
		updated, err := repo.UpdateOrderFromStatus(ctx, orderID, enums.OrderStatusPending, map[string]any{
			"status":         enums.OrderStatusCancelled,
			"payment_status": enums.PaymentStatusCancelled,
			"cancel_reason":  reason,
			"cancelled_at":   now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		for _, item := range order.Items {
			if err := s.inventory.Release(ctx, tx, item.VariantID, item.Qty, order.ID); err != nil {
				return err
			}
		}

		cancelled, err = repo.FindOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAsync(cancelled.UserID, enums.NotificationOrderCancelled, map[string]any{
		"order_id": cancelled.ID.String(),
		"reason":   reason,
	})
	return cancelled, nil
}

// UpdateStatus moves an order along the lifecycle table, applying the
// payment side effects bound to specific transitions. A same-status update
// is a no-op. Entering cancelled goes through Cancel so stock is restored.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, reason *string) (*models.Order, error) {
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if reasonRequired(newStatus) {
		if reason == nil || *reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required for this status")
		}
	} else if reason != nil && *reason != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is only accepted for cancelled or refunded")
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == newStatus {
		return order, nil
	}
	if !CanTransition(order.Status, newStatus) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status transition not allowed").
			WithDetails(map[string]any{"from": order.Status, "to": newStatus})
	}

	if newStatus == enums.OrderStatusCancelled {
		return s.Cancel(ctx, orderID, *reason)
	}

	now := s.now().UTC()
	updates := map[string]any{"status": newStatus}
	switch {
	case newStatus == enums.OrderStatusDelivered && order.PaymentMethod == enums.PaymentMethodCOD:
		updates["payment_status"] = enums.PaymentStatusPaid
		updates["paid_at"] = now
	case newStatus == enums.OrderStatusCompleted && order.PaymentMethod != enums.PaymentMethodCOD:
		updates["payment_status"] = enums.PaymentStatusPaid
		if order.PaidAt == nil {
			updates["paid_at"] = now
		}
	case newStatus == enums.OrderStatusRefunded:
		updates["payment_status"] = enums.PaymentStatusRefunded
		updates["cancel_reason"] = *reason
	}

	updated, err := s.repo.UpdateOrderFromStatus(ctx, orderID, order.Status, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	result, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if newStatus == enums.OrderStatusConfirmed && s.carrier != nil {
		stamped, err := s.registerShipment(ctx, result)
		if err != nil {
			// The confirm already committed; the shipment is re-registered
			// out of band when the carrier recovers.
			s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "register carrier shipment", err)
		} else {
			result = stamped
		}
	}

	s.notifyAsync(result.UserID, enums.NotificationOrderStatusChanged, map[string]any{
		"order_id": result.ID.String(),
		"status":   newStatus.String(),
		"label":    newStatus.Label(),
	})
	return result, nil
}

// SyncShipment folds a carrier tracking update into the order: the
// shipping_info block always reflects the carrier's latest word, and when
// the mapped status is a legal next step the order follows it.
func (s *service) SyncShipment(ctx context.Context, orderID uuid.UUID, carrierCode string) (*models.Order, error) {
	mapping, ok := shipping.StatusFor(carrierCode)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown carrier status code").
			WithDetails(map[string]any{"status_code": carrierCode})
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	info := types.ShippingInfo{}
	if order.ShippingInfo != nil {
		info = *order.ShippingInfo
	}
	info.StatusCode = carrierCode
	info.StatusName = mapping.DisplayName

	updated, err := s.repo.UpdateShippingInfo(ctx, orderID, &info)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping info")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	if mapping.OrderStatus == order.Status || !CanTransition(order.Status, mapping.OrderStatus) {
		return s.Get(ctx, orderID)
	}

	var reason *string
	if reasonRequired(mapping.OrderStatus) {
		r := fmt.Sprintf("carrier reported %s", carrierCode)
		reason = &r
	}
	return s.UpdateStatus(ctx, orderID, mapping.OrderStatus, reason)
}

// registerShipment hands a freshly confirmed order to the carrier and
// stamps the resulting tracking block on it. Already-registered orders are
// left alone.
func (s *service) registerShipment(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ShippingInfo != nil && order.ShippingInfo.OrderCode != "" {
		return order, nil
	}

	input := shipping.ShipmentInput{
		OrderID: order.ID.String(),
		Address: order.ShippingAddress,
	}
	if order.Note != nil {
		input.Note = *order.Note
	}
	if order.PaymentMethod == enums.PaymentMethodCOD {
		input.CODCents = order.TotalCents
	}

	shipment, err := s.carrier.CreateShipment(ctx, input)
	if err != nil {
		return nil, err
	}

	info := types.ShippingInfo{
		OrderCode:            shipment.OrderCode,
		ExpectedDeliveryTime: shipment.ExpectedDeliveryTime,
		FeeCents:             shipment.FeeCents,
	}
	updated, err := s.repo.UpdateShippingInfo(ctx, order.ID, &info)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp shipment info")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.Get(ctx, order.ID)
}

// notifyAsync publishes off the request path. Failures are logged and never
// affect the transition that triggered them.
func (s *service) notifyAsync(userID uuid.UUID, template enums.NotificationTemplate, payload map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Send(ctx, userID, template, payload); err != nil {
			logCtx := s.logg.WithField(ctx, "template", template.String())
			s.logg.Error(logCtx, "send order notification", err)
		}
	}()
}
