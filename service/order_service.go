package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"kitchenviz/metrics"
	"kitchenviz/models"
	"kitchenviz/notify"
	"kitchenviz/payment"
	"kitchenviz/repository"
)

// ErrGateway marks payment-gateway failures; the caller answers 500.
var ErrGateway = errors.New("payment gateway failure")

// ValidationError carries a client-facing message for a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// OrderService orchestrates order placement, payment reconciliation and
// administrative status updates. All collaborators are injected.
type OrderService struct {
	orders   repository.OrderStore
	products repository.ProductStore
	gateway  payment.Gateway
	mailer   notify.Mailer

	backendURL string

	// async runs best-effort notification sends; replaced in tests.
	async func(func() error)
}

func NewOrderService(
	orders repository.OrderStore,
	products repository.ProductStore,
	gateway payment.Gateway,
	mailer notify.Mailer,
	backendURL string,
) *OrderService {
	return &OrderService{
		orders:     orders,
		products:   products,
		gateway:    gateway,
		mailer:     mailer,
		backendURL: strings.TrimRight(backendURL, "/"),
		async:      notify.Async,
	}
}

type PlaceOrderRequest struct {
	OrderItems      []models.OrderItem     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	ContactDetails  models.ContactDetails  `json:"contactDetails"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      *float64               `json:"itemsPrice"`
	ShippingPrice   *float64               `json:"shippingPrice"`
	TotalPrice      *float64               `json:"totalPrice"`
}

type PlaceOrderResult struct {
	OrderID         string
	CheckoutPageURL string
}

type ReconcileResult struct {
	PaymentStatus models.PaymentStatus
	Order         *models.Order
}

// PlaceOrder validates the cart, persists a pending order with stock
// untouched, and initiates a hosted-checkout payment. If initiation
// fails the pending order is deleted again; stock only moves later, at
// reconciliation.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest, userID *primitive.ObjectID) (*PlaceOrderResult, error) {
	if err := s.validatePlaceOrder(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		OrderItems:      req.OrderItems,
		ShippingAddress: req.ShippingAddress,
		ContactDetails:  req.ContactDetails,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      *req.ItemsPrice,
		ShippingPrice:   *req.ShippingPrice,
		TotalPrice:      *req.TotalPrice,
		User:            userID,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	orderID, err := s.orders.Insert(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	merchantUserID := "guest-" + uuid.NewString()
	if userID != nil {
		merchantUserID = userID.Hex()
	}

	// The gateway sends the customer (and its server callback) back to
	// the reconciliation endpoint, which fetches the authoritative state.
	returnURL := s.backendURL + "/order/payment-status?merchantOrderId=" + orderID.Hex()
	res, err := s.gateway.Initiate(ctx, payment.InitiateRequest{
		MerchantTransactionID: orderID.Hex(),
		MerchantUserID:        merchantUserID,
		AmountPaisa:           int64(math.Round(*req.TotalPrice * 100)),
		RedirectURL:           returnURL,
		CallbackURL:           returnURL,
		MobileNumber:          req.ContactDetails.PhoneNumber,
		Message:               "order " + orderID.Hex(),
	})
	if err != nil || res.RedirectURL == "" {
		// Compensate: the pending order must not outlive a failed
		// initiation. No stock was touched, so this is the only undo.
		if delErr := s.orders.Delete(ctx, orderID); delErr != nil {
			slog.Error("failed to delete order after gateway failure", "orderId", orderID.Hex(), "error", delErr)
		}
		if err == nil {
			err = errors.New("gateway returned no checkout redirect")
		}
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	updateTime := time.Now()
	_, err = s.orders.UpdateFields(ctx, orderID, bson.M{
		"paymentResult": models.PaymentResult{
			ID:         res.TransactionID,
			Status:     "initiated",
			UpdateTime: &updateTime,
		},
		"updatedAt": updateTime,
	})
	if err != nil {
		return nil, fmt.Errorf("record payment initiation: %w", err)
	}

	metrics.OrdersPlaced.Inc()
	slog.Info("order placed", "orderId", orderID.Hex(), "total", *req.TotalPrice)

	return &PlaceOrderResult{
		OrderID:         orderID.Hex(),
		CheckoutPageURL: res.RedirectURL,
	}, nil
}

func (s *OrderService) validatePlaceOrder(ctx context.Context, req PlaceOrderRequest) error {
	if len(req.OrderItems) == 0 || req.ItemsPrice == nil || req.ShippingPrice == nil || req.TotalPrice == nil {
		return invalid("Missing or invalid required fields: orderItems, shippingAddress, contactDetails, price fields")
	}
	if *req.ItemsPrice < 0 || *req.ShippingPrice < 0 || *req.TotalPrice < 0 {
		return invalid("Price fields must be non-negative")
	}
	if math.Abs(*req.ItemsPrice+*req.ShippingPrice-*req.TotalPrice) > 0.01 {
		return invalid("totalPrice must equal itemsPrice plus shippingPrice")
	}

	for _, item := range req.OrderItems {
		if item.Product.IsZero() {
			return invalid("Order item is missing a product reference")
		}
		if item.Quantity < 1 {
			return invalid("Order item quantity must be at least 1")
		}
		product, err := s.products.FindByID(ctx, item.Product)
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("Product not found: %s", item.Product.Hex())
		}
		if err != nil {
			return fmt.Errorf("look up product %s: %w", item.Product.Hex(), err)
		}
		if item.Quantity > product.CountInStock {
			return invalid("Not enough stock for product %q.", product.Name)
		}
	}

	addressFields := []struct {
		name, value string
	}{
		{"fullName", req.ShippingAddress.FullName},
		{"address", req.ShippingAddress.Address},
		{"city", req.ShippingAddress.City},
		{"postalCode", req.ShippingAddress.PostalCode},
		{"country", req.ShippingAddress.Country},
	}
	for _, f := range addressFields {
		if strings.TrimSpace(f.value) == "" {
			return invalid("Missing or empty shipping address field: %s", f.name)
		}
	}

	contactFields := []struct {
		name, value string
	}{
		{"email", req.ContactDetails.Email},
		{"phoneNumber", req.ContactDetails.PhoneNumber},
		{"address", req.ContactDetails.Address},
		{"postalCode", req.ContactDetails.PostalCode},
		{"country", req.ContactDetails.Country},
		{"city", req.ContactDetails.City},
	}
	for _, f := range contactFields {
		if strings.TrimSpace(f.value) == "" {
			return invalid("Missing or empty contact details field: %s", f.name)
		}
	}

	return nil
}

// Reconcile fetches the authoritative payment state for an order and
// applies its effects exactly once. Orders that already left pending are
// returned as-is: replaying reconciliation never touches stock again.
func (s *OrderService) Reconcile(ctx context.Context, merchantOrderID string) (*ReconcileResult, error) {
	orderID, err := primitive.ObjectIDFromHex(merchantOrderID)
	if err != nil {
		return nil, invalid("Invalid merchantOrderId.")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.Terminal() {
		return &ReconcileResult{PaymentStatus: order.PaymentStatus, Order: order}, nil
	}

	status, err := s.gateway.GetStatus(ctx, merchantOrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	switch status.Code {
	case payment.CodeSuccess:
		return s.confirmOrder(ctx, order, status)
	case payment.CodeError:
		return s.cancelOrder(ctx, order)
	default:
		return &ReconcileResult{PaymentStatus: models.PaymentPending, Order: order}, nil
	}
}

// confirmOrder commits stock for every line item and marks the order
// paid. Stock moves through conditional decrements, so a product sold
// out since checkout flips the order to failed/refund_required instead
// of overselling.
func (s *OrderService) confirmOrder(ctx context.Context, order *models.Order, status *payment.StatusResult) (*ReconcileResult, error) {
	for i, item := range order.OrderItems {
		ok, err := s.products.DecrementStock(ctx, item.Product, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement stock for %s: %w", item.Product.Hex(), err)
		}
		if !ok {
			s.releaseStock(ctx, order.OrderItems[:i])
			return s.markRefundRequired(ctx, order)
		}
	}

	now := time.Now()
	updated, err := s.orders.UpdateFields(ctx, order.ID, bson.M{
		"status":        models.StatusConfirmed,
		"paymentStatus": models.PaymentCompleted,
		"isPaid":        true,
		"paidAt":        now,
		"paymentResult": models.PaymentResult{
			ID:           status.TransactionID,
			Status:       status.State,
			UpdateTime:   &now,
			EmailAddress: order.ContactDetails.Email,
		},
		"updatedAt": now,
	})
	if err != nil {
		return nil, fmt.Errorf("confirm order %s: %w", order.ID.Hex(), err)
	}

	metrics.PaymentsConfirmed.Inc()
	slog.Info("payment confirmed", "orderId", order.ID.Hex(), "transactionId", status.TransactionID)

	to := order.ContactDetails.Email
	name := customerName(order)
	orderID := order.ID.Hex()
	amount := order.TotalPrice
	s.async(func() error {
		return s.mailer.SendPaymentConfirmation(to, name, orderID, amount)
	})

	return &ReconcileResult{PaymentStatus: models.PaymentCompleted, Order: updated}, nil
}

// releaseStock undoes the decrements already applied in this pass.
func (s *OrderService) releaseStock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
			slog.Error("failed to release stock", "productId", item.Product.Hex(), "error", err)
		}
	}
}

func (s *OrderService) markRefundRequired(ctx context.Context, order *models.Order) (*ReconcileResult, error) {
	updated, err := s.orders.UpdateFields(ctx, order.ID, bson.M{
		"status":        models.StatusFailed,
		"paymentStatus": models.PaymentRefundRequired,
		"updatedAt":     time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("mark order %s refund_required: %w", order.ID.Hex(), err)
	}

	metrics.PaymentsRefundRequired.Inc()
	slog.Warn("stock exhausted after payment, refund required", "orderId", order.ID.Hex())

	return &ReconcileResult{PaymentStatus: models.PaymentRefundRequired, Order: updated}, nil
}

func (s *OrderService) cancelOrder(ctx context.Context, order *models.Order) (*ReconcileResult, error) {
	updated, err := s.orders.UpdateFields(ctx, order.ID, bson.M{
		"status":        models.StatusCancelled,
		"paymentStatus": models.PaymentFailed,
		"updatedAt":     time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", order.ID.Hex(), err)
	}

	metrics.PaymentsCancelled.Inc()
	slog.Info("payment failed at gateway", "orderId", order.ID.Hex())

	return &ReconcileResult{PaymentStatus: models.PaymentFailed, Order: updated}, nil
}

// UpdateOrderStatus sets the mutually exclusive accept/reject flag pair.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, invalid("Invalid order id.")
	}

	var fields bson.M
	switch status {
	case "accept":
		fields = bson.M{"isOrderAccepted": true, "isOrderRejected": false}
	case "reject":
		fields = bson.M{"isOrderRejected": true, "isOrderAccepted": false}
	default:
		return nil, invalid("Invalid status value. Only 'accept' or 'reject' allowed.")
	}
	fields["updatedAt"] = time.Now()

	updated, err := s.orders.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(updated, status+"ed")
	return updated, nil
}

// UpdateShippingStatus advances the dispatch/out-for-delivery/delivered
// flags. deliveredAt is stamped once and never overwritten.
func (s *OrderService) UpdateShippingStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, invalid("Invalid order id.")
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields bson.M
	switch status {
	case "dispatched":
		fields = bson.M{"isDispatched": true}
	case "outForDelivery":
		fields = bson.M{"isOutForDelivery": true}
	case "delivered":
		fields = bson.M{"isDelivered": true}
		if order.DeliveredAt == nil {
			fields["deliveredAt"] = time.Now()
		}
	default:
		return nil, invalid("Invalid status value.")
	}
	fields["updatedAt"] = time.Now()

	updated, err := s.orders.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(updated, status)
	return updated, nil
}

func (s *OrderService) notifyStatus(order *models.Order, status string) {
	to := order.ContactDetails.Email
	if to == "" {
		return
	}
	name := customerName(order)
	orderID := order.ID.Hex()
	s.async(func() error {
		return s.mailer.SendOrderStatus(to, name, orderID, status)
	})
}

func customerName(order *models.Order) string {
	if name := strings.TrimSpace(order.ShippingAddress.FullName); name != "" {
		return name
	}
	return "Customer"
}

// GetOrder returns an order joined with product and media details.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (bson.M, error) {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, invalid("Invalid order ID.")
	}
	return s.orders.FindDetail(ctx, id)
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.FindAll(ctx)
}
