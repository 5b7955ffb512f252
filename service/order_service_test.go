package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"kitchenviz/models"
	"kitchenviz/payment"
	"kitchenviz/repository"
	repoMocks "kitchenviz/repository/mocks"
	svcMocks "kitchenviz/service/mocks"
)

type fixture struct {
	svc      *OrderService
	orders   *repoMocks.MockOrderStore
	products *repoMocks.MockProductStore
	gateway  *svcMocks.MockGateway
	mailer   *svcMocks.MockMailer
}

func newFixture() *fixture {
	f := &fixture{
		orders:   new(repoMocks.MockOrderStore),
		products: new(repoMocks.MockProductStore),
		gateway:  new(svcMocks.MockGateway),
		mailer:   new(svcMocks.MockMailer),
	}
	f.svc = NewOrderService(f.orders, f.products, f.gateway, f.mailer, "http://localhost:4050")
	// Run notifications synchronously so expectations are checkable.
	f.svc.async = func(task func() error) { _ = task() }
	return f
}

func fptr(v float64) *float64 { return &v }

func timeNowRef() *time.Time {
	now := time.Now()
	return &now
}

func validRequest(productID primitive.ObjectID, qty int) PlaceOrderRequest {
	return PlaceOrderRequest{
		OrderItems: []models.OrderItem{
			{Product: productID, Name: "Modular Kitchen Shelf", Quantity: qty, Price: 100},
		},
		ShippingAddress: models.ShippingAddress{
			FullName:   "Asha Rao",
			Address:    "12 MG Road",
			City:       "Bengaluru",
			PostalCode: "560001",
			Country:    "India",
		},
		ContactDetails: models.ContactDetails{
			Email:       "asha@example.com",
			PhoneNumber: "9876543210",
			Address:     "12 MG Road",
			PostalCode:  "560001",
			Country:     "India",
			City:        "Bengaluru",
		},
		PaymentMethod: "PhonePe",
		ItemsPrice:    fptr(200),
		ShippingPrice: fptr(50),
		TotalPrice:    fptr(250),
	}
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.TODO()
	productID := primitive.NewObjectID()

	t.Run("creates a pending order without touching stock", func(t *testing.T) {
		f := newFixture()
		orderID := primitive.NewObjectID()

		f.products.On("FindByID", ctx, productID).
			Return(&models.Product{ID: productID, Name: "Modular Kitchen Shelf", CountInStock: 5}, nil).Once()
		f.orders.On("Insert", ctx, mock.MatchedBy(func(o *models.Order) bool {
			return o.Status == models.StatusPending &&
				o.PaymentStatus == models.PaymentPending &&
				!o.IsPaid
		})).Return(orderID, nil).Once()
		f.gateway.On("Initiate", ctx, mock.MatchedBy(func(req payment.InitiateRequest) bool {
			return req.MerchantTransactionID == orderID.Hex() && req.AmountPaisa == 25000
		})).Return(&payment.InitiateResult{TransactionID: "T1", RedirectURL: "https://pay.example/checkout"}, nil).Once()
		f.orders.On("UpdateFields", ctx, orderID, mock.MatchedBy(func(fields bson.M) bool {
			pr, ok := fields["paymentResult"].(models.PaymentResult)
			return ok && pr.ID == "T1" && pr.Status == "initiated"
		})).Return(&models.Order{ID: orderID}, nil).Once()

		res, err := f.svc.PlaceOrder(ctx, validRequest(productID, 2), nil)

		assert.NoError(t, err)
		assert.Equal(t, orderID.Hex(), res.OrderID)
		assert.Equal(t, "https://pay.example/checkout", res.CheckoutPageURL)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
		f.orders.AssertExpectations(t)
		f.gateway.AssertExpectations(t)
	})

	t.Run("rejects unknown product without creating an order", func(t *testing.T) {
		f := newFixture()
		f.products.On("FindByID", ctx, productID).Return(nil, repository.ErrNotFound).Once()

		res, err := f.svc.PlaceOrder(ctx, validRequest(productID, 1), nil)

		assert.Nil(t, res)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Message, "Product not found")
		f.orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects quantity above stock without creating an order", func(t *testing.T) {
		f := newFixture()
		f.products.On("FindByID", ctx, productID).
			Return(&models.Product{ID: productID, Name: "Modular Kitchen Shelf", CountInStock: 5}, nil).Once()

		res, err := f.svc.PlaceOrder(ctx, validRequest(productID, 10), nil)

		assert.Nil(t, res)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Message, "Not enough stock")
		f.orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects empty contact field", func(t *testing.T) {
		f := newFixture()
		f.products.On("FindByID", ctx, productID).
			Return(&models.Product{ID: productID, CountInStock: 5}, nil).Once()

		req := validRequest(productID, 1)
		req.ContactDetails.Email = "   "
		res, err := f.svc.PlaceOrder(ctx, req, nil)

		assert.Nil(t, res)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, "Missing or empty contact details field: email", ve.Message)
	})

	t.Run("rejects totals that do not add up", func(t *testing.T) {
		f := newFixture()
		req := validRequest(productID, 1)
		req.TotalPrice = fptr(300)

		res, err := f.svc.PlaceOrder(ctx, req, nil)

		assert.Nil(t, res)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Message, "totalPrice")
		f.products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("deletes the pending order when initiation fails", func(t *testing.T) {
		f := newFixture()
		orderID := primitive.NewObjectID()

		f.products.On("FindByID", ctx, productID).
			Return(&models.Product{ID: productID, CountInStock: 5}, nil).Once()
		f.orders.On("Insert", ctx, mock.AnythingOfType("*models.Order")).Return(orderID, nil).Once()
		f.gateway.On("Initiate", ctx, mock.AnythingOfType("payment.InitiateRequest")).
			Return(nil, errors.New("gateway down")).Once()
		f.orders.On("Delete", ctx, orderID).Return(nil).Once()

		res, err := f.svc.PlaceOrder(ctx, validRequest(productID, 1), nil)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrGateway)
		f.orders.AssertExpectations(t)
	})

	t.Run("deletes the pending order when no redirect is returned", func(t *testing.T) {
		f := newFixture()
		orderID := primitive.NewObjectID()

		f.products.On("FindByID", ctx, productID).
			Return(&models.Product{ID: productID, CountInStock: 5}, nil).Once()
		f.orders.On("Insert", ctx, mock.AnythingOfType("*models.Order")).Return(orderID, nil).Once()
		f.gateway.On("Initiate", ctx, mock.AnythingOfType("payment.InitiateRequest")).
			Return(&payment.InitiateResult{TransactionID: "T1"}, nil).Once()
		f.orders.On("Delete", ctx, orderID).Return(nil).Once()

		res, err := f.svc.PlaceOrder(ctx, validRequest(productID, 1), nil)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrGateway)
		f.orders.AssertExpectations(t)
	})
}

func pendingOrder(orderID, productID primitive.ObjectID, qty int) *models.Order {
	return &models.Order{
		ID: orderID,
		OrderItems: []models.OrderItem{
			{Product: productID, Name: "Modular Kitchen Shelf", Quantity: qty, Price: 100},
		},
		ShippingAddress: models.ShippingAddress{FullName: "Asha Rao"},
		ContactDetails:  models.ContactDetails{Email: "asha@example.com"},
		TotalPrice:      250,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.TODO()
	orderID := primitive.NewObjectID()
	productID := primitive.NewObjectID()

	t.Run("rejects malformed merchant order id", func(t *testing.T) {
		f := newFixture()

		res, err := f.svc.Reconcile(ctx, "not-an-id")

		assert.Nil(t, res)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("reports unknown order", func(t *testing.T) {
		f := newFixture()
		f.orders.On("FindByID", ctx, orderID).Return(nil, repository.ErrNotFound).Once()

		res, err := f.svc.Reconcile(ctx, orderID.Hex())

		assert.Nil(t, res)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("commits stock exactly once and confirms the order", func(t *testing.T) {
		f := newFixture()
		order := pendingOrder(orderID, productID, 2)

		f.orders.On("FindByID", ctx, orderID).Return(order, nil).Once()
		f.gateway.On("GetStatus", ctx, orderID.Hex()).
			Return(&payment.StatusResult{Code: payment.CodeSuccess, TransactionID: "T1", State: "COMPLETED"}, nil).Once()
		f.products.On("DecrementStock", ctx, productID, 2).Return(true, nil).Once()
		confirmed := &models.Order{ID: orderID, Status: models.StatusConfirmed, PaymentStatus: models.PaymentCompleted, IsPaid: true}
		f.orders.On("UpdateFields", ctx, orderID, mock.MatchedBy(func(fields bson.M) bool {
			return fields["status"] == models.StatusConfirmed &&
				fields["paymentStatus"] == models.PaymentCompleted &&
				fields["isPaid"] == true
		})).Return(confirmed, nil).Once()
		f.mailer.On("SendPaymentConfirmation", "asha@example.com", "Asha Rao", orderID.Hex(), 250.0).Return(nil).Once()

		res, err := f.svc.Reconcile(ctx, orderID.Hex())

		assert.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, res.PaymentStatus)
		assert.True(t, res.Order.IsPaid)
		f.products.AssertExpectations(t)
		f.mailer.AssertExpectations(t)
	})

	t.Run("replaying a confirmed order never touches stock again", func(t *testing.T) {
		f := newFixture()
		order := pendingOrder(orderID, productID, 2)
		order.Status = models.StatusConfirmed
		order.PaymentStatus = models.PaymentCompleted

		f.orders.On("FindByID", ctx, orderID).Return(order, nil).Once()

		res, err := f.svc.Reconcile(ctx, orderID.Hex())

		assert.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, res.PaymentStatus)
		f.gateway.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("sold-out item flags refund and releases earlier decrements", func(t *testing.T) {
		f := newFixture()
		secondProduct := primitive.NewObjectID()
		order := pendingOrder(orderID, productID, 2)
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			Product: secondProduct, Name: "Chimney Hood", Quantity: 1, Price: 50,
		})

		f.orders.On("FindByID", ctx, orderID).Return(order, nil).Once()
		f.gateway.On("GetStatus", ctx, orderID.Hex()).
			Return(&payment.StatusResult{Code: payment.CodeSuccess, TransactionID: "T1"}, nil).Once()
		f.products.On("DecrementStock", ctx, productID, 2).Return(true, nil).Once()
		f.products.On("DecrementStock", ctx, secondProduct, 1).Return(false, nil).Once()
		f.products.On("IncrementStock", ctx, productID, 2).Return(nil).Once()
		failed := &models.Order{ID: orderID, Status: models.StatusFailed, PaymentStatus: models.PaymentRefundRequired}
		f.orders.On("UpdateFields", ctx, orderID, mock.MatchedBy(func(fields bson.M) bool {
			return fields["status"] == models.StatusFailed &&
				fields["paymentStatus"] == models.PaymentRefundRequired
		})).Return(failed, nil).Once()

		res, err := f.svc.Reconcile(ctx, orderID.Hex())

		assert.NoError(t, err)
		assert.Equal(t, models.PaymentRefundRequired, res.PaymentStatus)
		f.products.AssertExpectations(t)
	})

	t.Run("gateway failure code cancels the order and leaves stock alone", func(t *testing.T) {
		f := newFixture()
		order := pendingOrder(orderID, productID, 2)

		f.orders.On("FindByID", ctx, orderID).Return(order, nil).Once()
		f.gateway.On("GetStatus", ctx, orderID.Hex()).
			Return(&payment.StatusResult{Code: payment.CodeError}, nil).Once()
		cancelled := &models.Order{ID: orderID, Status: models.StatusCancelled, PaymentStatus: models.PaymentFailed}
		f.orders.On("UpdateFields", ctx, orderID, mock.MatchedBy(func(fields bson.M) bool {
			return fields["status"] == models.StatusCancelled &&
				fields["paymentStatus"] == models.PaymentFailed
		})).Return(cancelled, nil).Once()

		res, err := f.svc.Reconcile(ctx, orderID.Hex())

		assert.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, res.PaymentStatus)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pending code changes nothing", func(t *testing.T) {
		f := newFixture()
		order := pendingOrder(orderID, productID, 2)

		f.orders.On("FindByID", ctx, orderID).Return(order, nil).Once()
		f.gateway.On("GetStatus", ctx, orderID.Hex()).
			Return(&payment.StatusResult{Code: payment.CodePending}, nil).Once()

		res, err := f.svc.Reconcile(ctx, orderID.Hex())

		assert.NoError(t, err)
		assert.Equal(t, models.PaymentPending, res.PaymentStatus)
		f.orders.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.TODO()
	orderID := primitive.NewObjectID()

	t.Run("accept sets the exclusive flag pair and notifies", func(t *testing.T) {
		f := newFixture()
		updated := &models.Order{
			ID:              orderID,
			ContactDetails:  models.ContactDetails{Email: "asha@example.com"},
			ShippingAddress: models.ShippingAddress{FullName: "Asha Rao"},
			IsOrderAccepted: true,
		}
		f.orders.On("UpdateFields", ctx, orderID, mock.MatchedBy(func(fields bson.M) bool {
			return fields["isOrderAccepted"] == true && fields["isOrderRejected"] == false
		})).Return(updated, nil).Once()
		f.mailer.On("SendOrderStatus", "asha@example.com", "Asha Rao", orderID.Hex(), "accepted").Return(nil).Once()

		order, err := f.svc.UpdateOrderStatus(ctx, orderID.Hex(), "accept")

		assert.NoError(t, err)
		assert.True(t, order.IsOrderAccepted)
		f.mailer.AssertExpectations(t)
	})

	t.Run("missing contact email falls back without sending", func(t *testing.T) {
		f := newFixture()
		updated := &models.Order{ID: orderID, IsOrderRejected: true}
		f.orders.On("UpdateFields", ctx, orderID, mock.AnythingOfType("primitive.M")).
			Return(updated, nil).Once()

		order, err := f.svc.UpdateOrderStatus(ctx, orderID.Hex(), "reject")

		assert.NoError(t, err)
		assert.True(t, order.IsOrderRejected)
		f.mailer.AssertNotCalled(t, "SendOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid status value", func(t *testing.T) {
		f := newFixture()

		order, err := f.svc.UpdateOrderStatus(ctx, orderID.Hex(), "approve")

		assert.Nil(t, order)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown order id", func(t *testing.T) {
		f := newFixture()
		f.orders.On("UpdateFields", ctx, orderID, mock.AnythingOfType("primitive.M")).
			Return(nil, repository.ErrNotFound).Once()

		order, err := f.svc.UpdateOrderStatus(ctx, orderID.Hex(), "accept")

		assert.Nil(t, order)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUpdateShippingStatus(t *testing.T) {
	ctx := context.TODO()
	orderID := primitive.NewObjectID()

	t.Run("delivered stamps deliveredAt on first transition", func(t *testing.T) {
		f := newFixture()
		order := &models.Order{ID: orderID, ContactDetails: models.ContactDetails{Email: "asha@example.com"}}
		updated := &models.Order{ID: orderID, IsDelivered: true, ContactDetails: order.ContactDetails}

		f.orders.On("FindByID", ctx, orderID).Return(order, nil).Once()
		f.orders.On("UpdateFields", ctx, orderID, mock.MatchedBy(func(fields bson.M) bool {
			_, stamped := fields["deliveredAt"]
			return fields["isDelivered"] == true && stamped
		})).Return(updated, nil).Once()
		f.mailer.On("SendOrderStatus", "asha@example.com", "Customer", orderID.Hex(), "delivered").Return(nil).Once()

		result, err := f.svc.UpdateShippingStatus(ctx, orderID.Hex(), "delivered")

		assert.NoError(t, err)
		assert.True(t, result.IsDelivered)
	})

	t.Run("delivered again keeps the original timestamp", func(t *testing.T) {
		f := newFixture()
		deliveredAt := timeNowRef()
		order := &models.Order{ID: orderID, IsDelivered: true, DeliveredAt: deliveredAt}
		f.orders.On("FindByID", ctx, orderID).Return(order, nil).Once()
		f.orders.On("UpdateFields", ctx, orderID, mock.MatchedBy(func(fields bson.M) bool {
			_, stamped := fields["deliveredAt"]
			return !stamped
		})).Return(order, nil).Once()

		_, err := f.svc.UpdateShippingStatus(ctx, orderID.Hex(), "delivered")

		assert.NoError(t, err)
		f.orders.AssertExpectations(t)
	})

	t.Run("dispatched sets only its flag", func(t *testing.T) {
		f := newFixture()
		order := &models.Order{ID: orderID}
		updated := &models.Order{ID: orderID, IsDispatched: true}
		f.orders.On("FindByID", ctx, orderID).Return(order, nil).Once()
		f.orders.On("UpdateFields", ctx, orderID, mock.MatchedBy(func(fields bson.M) bool {
			return fields["isDispatched"] == true
		})).Return(updated, nil).Once()

		result, err := f.svc.UpdateShippingStatus(ctx, orderID.Hex(), "dispatched")

		assert.NoError(t, err)
		assert.True(t, result.IsDispatched)
	})

	t.Run("rejects invalid status value", func(t *testing.T) {
		f := newFixture()
		f.orders.On("FindByID", ctx, orderID).Return(&models.Order{ID: orderID}, nil).Once()

		result, err := f.svc.UpdateShippingStatus(ctx, orderID.Hex(), "shipped")

		assert.Nil(t, result)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}
