package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/middleware"
	"github.com/upline-app/upline_backend/models"
	"github.com/upline-app/upline_backend/repositories"
	"github.com/upline-app/upline_backend/services"
	"github.com/upline-app/upline_backend/websocket"
)

type OrderController struct {
	orders    *services.OrderService
	reversal  *services.ReversalService
	orderRepo *repositories.OrderRepository
	wsHub     *websocket.Hub
}

func NewOrderController(orders *services.OrderService, reversal *services.ReversalService, orderRepo *repositories.OrderRepository, wsHub *websocket.Hub) *OrderController {
	return &OrderController{orders: orders, reversal: reversal, orderRepo: orderRepo, wsHub: wsHub}
}

func callerID(c echo.Context) (primitive.ObjectID, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(userID)
}

// CreateOrder creates an order with one purchase per service and distributes
// commission for each, all in one atomic unit. No order survives a failed
// distribution.
func (oc *OrderController) CreateOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	buyerID, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	serviceIDs := make([]primitive.ObjectID, 0, len(req.ServiceIDs))
	for _, raw := range req.ServiceIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid service ID format",
				Data:    raw,
			})
		}
		serviceIDs = append(serviceIDs, id)
	}

	order, results, err := oc.orders.CreateOrder(ctx, buyerID, serviceIDs)
	if err != nil {
		return errorResponse(c, err)
	}

	oc.notifyPayouts(results)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Order created successfully",
		Data: map[string]interface{}{
			"order":         order,
			"distributions": results,
		},
	})
}

// CreatePurchase performs a direct purchase (no order).
func (oc *OrderController) CreatePurchase(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	buyerID, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req models.CreatePurchaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	serviceID, err := primitive.ObjectIDFromHex(req.ServiceID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid service ID format",
		})
	}

	result, err := oc.orders.CreatePurchase(ctx, buyerID, serviceID)
	if err != nil {
		return errorResponse(c, err)
	}

	oc.notifyPayouts([]*services.DistributionResult{result})

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Purchase created successfully",
		Data:    result,
	})
}

// CancelOrder cancels one of the caller's orders and reverses its commission
// entries. Admins may cancel any order. Cancelling twice is a no-op.
func (oc *OrderController) CancelOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID format",
		})
	}

	order, err := oc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return errorResponse(c, err)
	}

	caller, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}
	userType, _ := c.Get("userType").(string)
	if order.BuyerID != caller && userType != "admin" {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You cannot cancel this order",
		})
	}

	removed, err := oc.reversal.ReverseOrder(ctx, orderID)
	if err != nil {
		return errorResponse(c, err)
	}

	oc.wsHub.NotifyOrderCancelled(order.BuyerID, map[string]interface{}{
		"orderId": orderID.Hex(),
		"removed": removed,
	})

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order cancelled successfully",
		Data: map[string]interface{}{
			"removed": removed,
		},
	})
}

// ListMyOrders returns the caller's orders, newest first.
func (oc *OrderController) ListMyOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buyerID, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	orders, err := oc.orderRepo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Orders fetched successfully",
		Data:    orders,
	})
}

// notifyPayouts pushes commission notifications to connected ancestors after
// the distribution has committed. Best effort; disconnected users miss it.
func (oc *OrderController) notifyPayouts(results []*services.DistributionResult) {
	for _, result := range results {
		for _, payout := range result.Payouts {
			oc.wsHub.NotifyCommissionEarned(payout.ToUserID, map[string]interface{}{
				"purchaseId": result.PurchaseID.Hex(),
				"level":      payout.Level,
				"amount":     payout.Amount,
			})
		}
	}
}
