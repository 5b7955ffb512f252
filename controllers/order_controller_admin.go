package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kitchenviz/repository"
	"kitchenviz/service"
)

// ListOrders handles GET /order/admin: every order, newest first.
func (oc *OrderController) ListOrders(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	orders, err := oc.svc.ListOrders(ctx)
	if err != nil {
		slog.Error("list orders failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching orders."})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus handles PATCH /order/updateStatus/:id with
// status accept|reject.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order id and status are required."})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	order, err := oc.svc.UpdateOrderStatus(ctx, c.Param("id"), body.Status)
	if err != nil {
		oc.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Order %sed successfully.", body.Status),
		"order":   order,
	})
}

// UpdateShippingStatus handles PATCH /order/updateShippingStatus/:id
// with status dispatched|outForDelivery|delivered.
func (oc *OrderController) UpdateShippingStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status value."})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	order, err := oc.svc.UpdateShippingStatus(ctx, c.Param("id"), body.Status)
	if err != nil {
		oc.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Order marked as %s.", body.Status),
		"order":   order,
	})
}

func (oc *OrderController) respondAdminError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"message": ve.Message})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found."})
	default:
		slog.Error("order status update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while updating order."})
	}
}
