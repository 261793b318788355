package handler

import (
	"context"
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseOrderHandler struct {
	orderService service.OrderService
}

func NewPurchaseOrderHandler(orderService service.OrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/purchase_orders")
	orders.Use(middleware.RequireAuth())
	{
		orders.POST("", h.CreatePurchaseOrder)
		orders.GET("", h.ListPurchaseOrders)
		orders.GET("/:ref", h.GetPurchaseOrder)
		orders.POST("/:ref/initiate", h.InitiateCheckout)
		orders.POST("/:ref/cancel", h.CancelPurchaseOrder)
	}
}

// CreatePurchaseOrder creates a new Pi purchase order
// @Summary      Create purchase order
// @Description  Creates a purchase order with a freshly minted merchant reference
// @Tags         purchase-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePurchaseOrderRequest  true  "Create Purchase Order Payload"
// @Success      201      {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/purchase_orders [post]
func (h *PurchaseOrderHandler) CreatePurchaseOrder(c *gin.Context) {
	var req service.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreatePurchaseOrder(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		case errors.Is(err, service.ErrReferenceExhausted):
			c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetPurchaseOrder fetches one order by merchant reference
// @Summary      Get purchase order
// @Description  Retrieves a purchase order by its merchant reference
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        ref  path      string  true  "Merchant reference (PO-XXXXXXXXXX)"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchase_orders/{ref} [get]
func (h *PurchaseOrderHandler) GetPurchaseOrder(c *gin.Context) {
	order, err := h.orderService.GetPurchaseOrder(c.Request.Context(), c.Param("ref"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListPurchaseOrders returns a paginated list of orders
// @Summary      List purchase orders
// @Description  Retrieves purchase orders, newest first
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/purchase_orders [get]
func (h *PurchaseOrderHandler) ListPurchaseOrders(c *gin.Context) {
	params := pagination.Parse(c)

	orders, total, err := h.orderService.ListPurchaseOrders(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"purchase_orders": orders,
		"total":           total,
		"page":            params.Page,
		"limit":           params.Limit,
	}))
}

// InitiateCheckout moves an order to pending_payment
// @Summary      Initiate checkout
// @Description  Marks the order as pending_payment when the buyer opens the Pi payment flow
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        ref  path      string  true  "Merchant reference"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/purchase_orders/{ref}/initiate [post]
func (h *PurchaseOrderHandler) InitiateCheckout(c *gin.Context) {
	h.transition(c, h.orderService.InitiateCheckout)
}

// CancelPurchaseOrder cancels an unpaid order
// @Summary      Cancel purchase order
// @Description  Cancels an order that has not been paid yet
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        ref  path      string  true  "Merchant reference"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/purchase_orders/{ref}/cancel [post]
func (h *PurchaseOrderHandler) CancelPurchaseOrder(c *gin.Context) {
	h.transition(c, h.orderService.CancelPurchaseOrder)
}

func (h *PurchaseOrderHandler) transition(c *gin.Context, op func(ctx context.Context, ref string) (service.PurchaseOrderResponse, error)) {
	order, err := op(c.Request.Context(), c.Param("ref"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		case errors.Is(err, service.ErrTransitionRejected):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, "order is in status '"+order.Status+"', transition not allowed"))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
