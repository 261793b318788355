package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/signature"

	"gorm.io/gorm"
)

// ErrInvalidSignature means the webhook body was not signed with the shared
// secret. Nothing past signature verification ran.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// EventPaymentCompleted is the only provider event this backend reconciles.
// Anything else is acknowledged and logged, never retried.
const EventPaymentCompleted = "payment.completed"

// webhookPayload is the provider's event shape:
// {event, paymentId, merchantRef, status}.
type webhookPayload struct {
	Event       string `json:"event"`
	PaymentID   string `json:"paymentId"`
	MerchantRef string `json:"merchantRef"`
	Status      string `json:"status"`
}

type WebhookService interface {
	// HandleWebhook verifies the raw body against the signature header before
	// any parsing, then reconciles the referenced order. A nil return means
	// the delivery is acknowledged (processed, replayed, or safely ignored);
	// ErrInvalidSignature means reject; anything else is a transient store
	// failure the provider should retry.
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error

	// ListUnprocessedEvents returns verified deliveries that never reconciled,
	// typically webhooks that arrived before their order existed.
	ListUnprocessedEvents(ctx context.Context, limit int) ([]model.WebhookEvent, error)
}

type webhookService struct {
	orderRepo repository.PurchaseOrderRepository
	eventRepo repository.WebhookEventRepository
	hub       *ws.Hub
	secret    string
}

func NewWebhookService(
	orderRepo repository.PurchaseOrderRepository,
	eventRepo repository.WebhookEventRepository,
	hub *ws.Hub,
	secret string,
) WebhookService {
	return &webhookService{
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		hub:       hub,
		secret:    secret,
	}
}

func (s *webhookService) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error {
	// Authenticate the exact wire bytes first. Acting on an unverified body,
	// even just parsing it, is off the table.
	if !signature.Verify(rawBody, signatureHeader, s.secret) {
		log.Println("webhook rejected: invalid signature")
		s.recordEvent(ctx, &model.WebhookEvent{
			Payload:        string(rawBody),
			SignatureValid: false,
		})
		return ErrInvalidSignature
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		// Signed but unparseable. Retrying will not fix it, so acknowledge.
		log.Printf("webhook payload unparseable: %v", err)
		s.recordEvent(ctx, &model.WebhookEvent{
			Payload:        string(rawBody),
			SignatureValid: true,
			ProcessingNote: "unparseable payload",
		})
		return nil
	}

	event := &model.WebhookEvent{
		EventType:      payload.Event,
		MerchantRef:    payload.MerchantRef,
		PiPaymentID:    payload.PaymentID,
		Payload:        string(rawBody),
		SignatureValid: true,
	}
	s.recordEvent(ctx, event)

	if payload.Event != EventPaymentCompleted {
		log.Printf("ignoring unrecognized webhook event %q", payload.Event)
		s.markProcessed(ctx, event, "ignored: unrecognized event type")
		return nil
	}

	return s.reconcilePaymentCompleted(ctx, event, payload)
}

// reconcilePaymentCompleted applies a verified payment.completed event to the
// referenced order exactly once. Replays and late deliveries for already-paid
// orders acknowledge without touching the row.
func (s *webhookService) reconcilePaymentCompleted(ctx context.Context, event *model.WebhookEvent, payload webhookPayload) error {
	paymentID := payload.PaymentID
	order, err := s.orderRepo.ApplyTransition(ctx, payload.MerchantRef,
		func(status string) bool {
			return status == model.StatusCreated || status == model.StatusPendingPayment
		},
		func(order *model.PurchaseOrder) {
			order.Status = model.StatusPaid
			order.PiPaymentID = &paymentID
		},
	)

	switch {
	case err == nil:
		log.Printf("order %s marked paid (payment %s)", payload.MerchantRef, paymentID)
		s.markProcessed(ctx, event, "order marked paid")
		s.broadcastStatus(order)
		return nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		// Possibly a webhook racing ahead of order persistence. Acknowledge so
		// the provider stops redelivering; the logged event row stays
		// unprocessed for operator replay.
		log.Printf("webhook anomaly: no order for merchant_ref %q, acknowledging", payload.MerchantRef)
		return nil

	case errors.Is(err, repository.ErrTransitionRejected):
		// Idempotent replay. Never overwrite the stored payment id; just flag
		// a mismatch for investigation.
		if order != nil && order.PiPaymentID != nil && *order.PiPaymentID != paymentID {
			log.Printf("webhook anomaly: order %s already paid with payment %s, replay carried %s", payload.MerchantRef, *order.PiPaymentID, paymentID)
			s.markProcessed(ctx, event, "replay with mismatched payment id")
		} else {
			log.Printf("duplicate payment.completed for order %s, already applied", payload.MerchantRef)
			s.markProcessed(ctx, event, "duplicate delivery, already applied")
		}
		return nil

	default:
		// Transient store failure. Surface it so the provider retries.
		return fmt.Errorf("failed to apply payment to order %s: %w", payload.MerchantRef, err)
	}
}

func (s *webhookService) ListUnprocessedEvents(ctx context.Context, limit int) ([]model.WebhookEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.eventRepo.ListUnprocessed(ctx, limit)
}

// recordEvent logs the delivery row. The log is an audit trail, so a failure
// here must not fail webhook handling itself.
func (s *webhookService) recordEvent(ctx context.Context, event *model.WebhookEvent) {
	if err := s.eventRepo.Create(ctx, event); err != nil {
		log.Printf("failed to record webhook event: %v", err)
	}
}

func (s *webhookService) markProcessed(ctx context.Context, event *model.WebhookEvent, note string) {
	if err := s.eventRepo.MarkProcessed(ctx, event.ID, note); err != nil {
		log.Printf("failed to mark webhook event processed: %v", err)
	}
}

type statusMessage struct {
	MerchantRef string  `json:"merchant_ref"`
	Status      string  `json:"status"`
	PiPaymentID *string `json:"pi_payment_id,omitempty"`
}

func (s *webhookService) broadcastStatus(order *model.PurchaseOrder) {
	if s.hub == nil || order == nil {
		return
	}
	msg, err := json.Marshal(statusMessage{
		MerchantRef: order.MerchantRef,
		Status:      order.Status,
		PiPaymentID: order.PiPaymentID,
	})
	if err != nil {
		return
	}
	s.hub.Publish(msg)
}
