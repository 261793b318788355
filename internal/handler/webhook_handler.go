package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the provider's hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Pi-Signature"

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	// No auth middleware here: the HMAC signature authenticates the provider.
	router.POST("/api/webhook/pi", h.HandlePiWebhook)

	router.GET("/api/webhook_events/unprocessed", middleware.RequireAuth(), h.ListUnprocessedEvents)
}

// HandlePiWebhook receives payment events from the Pi platform
// @Summary      Pi payment webhook
// @Description  Verifies the X-Pi-Signature HMAC and reconciles the referenced order
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Pi-Signature  header    string  true  "Hex HMAC-SHA256 of the raw body"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/webhook/pi [post]
func (h *WebhookHandler) HandlePiWebhook(c *gin.Context) {
	// The verifier needs the body exactly as sent; never bind JSON here.
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "unreadable request body"))
		return
	}

	err = h.webhookService.HandleWebhook(c.Request.Context(), rawBody, c.GetHeader(SignatureHeader))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid signature"))
			return
		}
		// Transient store failure; the provider will redeliver.
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "temporarily unable to process event"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"received": true}))
}

// ListUnprocessedEvents lists verified webhook deliveries that never reconciled
// @Summary      List unprocessed webhook events
// @Description  Returns verified deliveries that did not reconcile, e.g. webhooks that beat their order into the store
// @Tags         webhooks
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Maximum rows to return (default 100)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/webhook_events/unprocessed [get]
func (h *WebhookHandler) ListUnprocessedEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.webhookService.ListUnprocessedEvents(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"webhook_events": events,
		"total":          len(events),
	}))
}
