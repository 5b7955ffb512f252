package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"kitchenviz/models"
	"kitchenviz/repository"
	"kitchenviz/service"
)

// OrderController exposes the order workflow over HTTP. The service and
// its collaborators are injected so tests can substitute them.
type OrderController struct {
	svc         *service.OrderService
	frontendURL string
}

func NewOrderController(svc *service.OrderService, frontendURL string) *OrderController {
	return &OrderController{svc: svc, frontendURL: frontendURL}
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

// PlaceOrder handles POST /order.
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	var userID *primitive.ObjectID
	if raw, exists := c.Get("userId"); exists {
		if id, err := primitive.ObjectIDFromHex(raw.(string)); err == nil {
			userID = &id
		}
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := oc.svc.PlaceOrder(ctx, req, userID)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"message": ve.Message})
		case errors.Is(err, service.ErrGateway):
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to initiate payment."})
		default:
			slog.Error("place order failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while placing order."})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Order placed successfully.",
		"orderId":         res.OrderID,
		"checkoutPageUrl": res.CheckoutPageURL,
	})
}

// CheckPaymentStatus handles GET /order/check-status?merchantOrderId=.
func (oc *OrderController) CheckPaymentStatus(c *gin.Context) {
	merchantOrderID := c.Query("merchantOrderId")
	if merchantOrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "merchantOrderId is required"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := oc.svc.Reconcile(ctx, merchantOrderID)
	if err != nil {
		oc.respondReconcileError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       reconcileMessage(res.PaymentStatus),
		"paymentStatus": res.PaymentStatus,
		"order":         res.Order,
	})
}

// PaymentRedirect handles GET /order/payment-status?merchantOrderId=.
// The gateway sends the customer back here; after reconciling we bounce
// them to the storefront's result page.
func (oc *OrderController) PaymentRedirect(c *gin.Context) {
	merchantOrderID := c.Query("merchantOrderId")
	if merchantOrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "merchantOrderId is required"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := oc.svc.Reconcile(ctx, merchantOrderID)
	if err != nil {
		slog.Error("payment redirect reconciliation failed", "merchantOrderId", merchantOrderID, "error", err)
		c.Redirect(http.StatusFound, oc.frontendURL+"/payment/failure")
		return
	}

	target := oc.frontendURL
	switch res.PaymentStatus {
	case models.PaymentCompleted:
		target += "/payment/success?orderId=" + merchantOrderID
	case models.PaymentPending:
		target += "/payment/pending?orderId=" + merchantOrderID
	default:
		target += "/payment/failure?orderId=" + merchantOrderID
	}
	c.Redirect(http.StatusFound, target)
}

// GetOrderByID handles GET /order/:id with joined product/media details.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	order, err := oc.svc.GetOrder(ctx, c.Param("id"))
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"message": ve.Message})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found."})
		default:
			slog.Error("get order failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching order."})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

func (oc *OrderController) respondReconcileError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"message": ve.Message})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found."})
	case errors.Is(err, service.ErrGateway):
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch payment status."})
	default:
		slog.Error("payment reconciliation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while checking payment status."})
	}
}

func reconcileMessage(status models.PaymentStatus) string {
	switch status {
	case models.PaymentCompleted:
		return "Payment successful. Order confirmed."
	case models.PaymentFailed:
		return "Payment failed. Order cancelled."
	case models.PaymentRefundRequired:
		return "Payment received but stock is no longer available. Refund required."
	default:
		return "Payment is still pending."
	}
}
