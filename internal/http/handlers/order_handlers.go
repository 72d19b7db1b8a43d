package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/shopcore/domain"
	"github.com/you/shopcore/internal/http/middleware"
)

// OrderHandlers handles order placement and cancellation HTTP requests.
type OrderHandlers struct {
	ledgerSvc domain.LedgerService
}

// NewOrderHandlers creates new order handlers.
func NewOrderHandlers(ledgerSvc domain.LedgerService) *OrderHandlers {
	return &OrderHandlers{ledgerSvc: ledgerSvc}
}

// OrderItemRequest represents one line item in a place-order request.
type OrderItemRequest struct {
	ProductID      string `json:"product_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	UnitPrice      int64  `json:"unit_price" binding:"min=0"`
	UnitTokenPrice int64  `json:"unit_token_price" binding:"min=0"`
}

// PlaceOrderRequest represents an order placement request.
type PlaceOrderRequest struct {
	Items             []OrderItemRequest `json:"items" binding:"required"`
	ShippingAddressID string             `json:"shipping_address_id,omitempty"`
	Notes             string             `json:"notes,omitempty"`
}

// CancelOrderRequest represents an order cancellation request.
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Place handles POST /orders/place (requires authentication).
func (h *OrderHandlers) Place(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in context"})
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := domain.PlaceOrderInput{
		ShippingAddressID: req.ShippingAddressID,
		Notes:             req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, domain.OrderItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			UnitTokenPrice: item.UnitTokenPrice,
		})
	}

	order, delta, err := h.ledgerSvc.PlaceOrder(c.Request.Context(), account.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyOrder), errors.Is(err, domain.ErrInvalidOrderItem):
			c.JSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "detail": err.Error()})
		case errors.Is(err, domain.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "InsufficientBalance"})
		case errors.Is(err, domain.ErrRecordStoreUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Order service temporarily unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"order":        orderView(order),
			"ledger_delta": delta,
		},
	})
}

// Cancel handles POST /orders/:id/cancel (requires authentication).
func (h *OrderHandlers) Cancel(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in context"})
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, refund, err := h.ledgerSvc.CancelOrder(c.Request.Context(), uint(orderID), account.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, domain.ErrOrderNotOwned):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this order"})
		case errors.Is(err, domain.ErrOrderNotCancellable):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Order can no longer be cancelled"})
		case errors.Is(err, domain.ErrRecordStoreUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Order service temporarily unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel order"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"order":  orderView(order),
			"refund": refund,
		},
	})
}

// Get handles GET /orders/:id (requires authentication).
func (h *OrderHandlers) Get(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in context"})
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := h.ledgerSvc.GetOrder(c.Request.Context(), uint(orderID), account.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, domain.ErrOrderNotOwned):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this order"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orderView(order)})
}

// orderView is the externally visible shape of an order.
func orderView(order *domain.Order) gin.H {
	items := make([]gin.H, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, gin.H{
			"product_id":       item.ProductID,
			"quantity":         item.Quantity,
			"unit_price":       item.UnitPrice,
			"unit_token_price": item.UnitTokenPrice,
		})
	}

	return gin.H{
		"id":                  order.ID,
		"number":              order.Number,
		"status":              order.Status,
		"items":               items,
		"total_amount":        order.TotalAmount,
		"total_tokens":        order.TotalTokens,
		"shipping_address_id": order.ShippingAddressID,
		"notes":               order.Notes,
		"created_at":          order.CreatedAt,
	}
}
