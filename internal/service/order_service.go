package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/reference"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrInvalidAmount means the requested amount is not a positive decimal
	// of at most 8 fractional digits.
	ErrInvalidAmount = errors.New("amount must be a positive decimal with at most 8 fractional digits")

	// ErrReferenceExhausted means reference generation kept colliding with
	// existing orders past the retry budget.
	ErrReferenceExhausted = errors.New("could not mint a unique merchant reference")

	// ErrOrderNotFound means no order matches the given merchant reference.
	ErrOrderNotFound = errors.New("purchase order not found")

	// ErrTransitionRejected mirrors the repository rejection for callers that
	// only import the service layer.
	ErrTransitionRejected = repository.ErrTransitionRejected
)

// maxReferenceAttempts bounds retries on merchant_ref collisions. At 36^10
// possible references a second collision in a row already signals something
// badly wrong, so a small budget is plenty.
const maxReferenceAttempts = 5

// --- DTOs ---

type CreatePurchaseOrderRequest struct {
	AmountPi string         `json:"amount_pi" binding:"required"`
	Metadata model.Metadata `json:"metadata"`
}

type PurchaseOrderResponse struct {
	ID          string         `json:"id"`
	MerchantRef string         `json:"merchant_ref"`
	Status      string         `json:"status"`
	AmountPi    string         `json:"amount_pi"`
	Metadata    model.Metadata `json:"metadata"`
	PiPaymentID *string        `json:"pi_payment_id"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// --- Interface ---

type OrderService interface {
	CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (PurchaseOrderResponse, error)
	GetPurchaseOrder(ctx context.Context, ref string) (PurchaseOrderResponse, error)
	ListPurchaseOrders(ctx context.Context, page, limit int) ([]PurchaseOrderResponse, int64, error)
	InitiateCheckout(ctx context.Context, ref string) (PurchaseOrderResponse, error)
	CancelPurchaseOrder(ctx context.Context, ref string) (PurchaseOrderResponse, error)
}

type orderService struct {
	orderRepo repository.PurchaseOrderRepository
}

func NewOrderService(orderRepo repository.PurchaseOrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// --- Implementation ---

func (s *orderService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (PurchaseOrderResponse, error) {
	amount, err := decimal.NewFromString(req.AmountPi)
	if err != nil {
		return PurchaseOrderResponse{}, ErrInvalidAmount
	}
	if !amount.IsPositive() || amount.Exponent() < -8 {
		return PurchaseOrderResponse{}, ErrInvalidAmount
	}

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		order := &model.PurchaseOrder{
			MerchantRef: reference.New(),
			Status:      model.StatusCreated,
			AmountPi:    amount,
			Metadata:    req.Metadata,
		}

		err := s.orderRepo.Create(ctx, order)
		if err == nil {
			return toPurchaseOrderResponse(order), nil
		}
		if errors.Is(err, repository.ErrDuplicateReference) {
			log.Printf("merchant reference collision on %s, retrying (%d/%d)", order.MerchantRef, attempt+1, maxReferenceAttempts)
			continue
		}
		return PurchaseOrderResponse{}, fmt.Errorf("failed to create purchase order: %w", err)
	}

	return PurchaseOrderResponse{}, ErrReferenceExhausted
}

func (s *orderService) GetPurchaseOrder(ctx context.Context, ref string) (PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByMerchantRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseOrderResponse{}, ErrOrderNotFound
		}
		return PurchaseOrderResponse{}, fmt.Errorf("failed to fetch purchase order: %w", err)
	}
	return toPurchaseOrderResponse(order), nil
}

func (s *orderService) ListPurchaseOrders(ctx context.Context, page, limit int) ([]PurchaseOrderResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, total, err := s.orderRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	result := make([]PurchaseOrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toPurchaseOrderResponse(&orders[i]))
	}
	return result, total, nil
}

// InitiateCheckout moves a freshly created order to pending_payment when the
// buyer opens the provider payment flow.
func (s *orderService) InitiateCheckout(ctx context.Context, ref string) (PurchaseOrderResponse, error) {
	return s.transition(ctx, ref,
		func(status string) bool { return status == model.StatusCreated },
		func(order *model.PurchaseOrder) { order.Status = model.StatusPendingPayment },
	)
}

// CancelPurchaseOrder cancels an order that has not been paid yet.
func (s *orderService) CancelPurchaseOrder(ctx context.Context, ref string) (PurchaseOrderResponse, error) {
	return s.transition(ctx, ref,
		func(status string) bool { return model.CanTransition(status, model.StatusCancelled) },
		func(order *model.PurchaseOrder) { order.Status = model.StatusCancelled },
	)
}

func (s *orderService) transition(ctx context.Context, ref string, predicate func(string) bool, mutate func(*model.PurchaseOrder)) (PurchaseOrderResponse, error) {
	order, err := s.orderRepo.ApplyTransition(ctx, ref, predicate, mutate)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return PurchaseOrderResponse{}, ErrOrderNotFound
		case errors.Is(err, repository.ErrTransitionRejected):
			return toPurchaseOrderResponse(order), ErrTransitionRejected
		default:
			return PurchaseOrderResponse{}, fmt.Errorf("failed to update purchase order: %w", err)
		}
	}
	return toPurchaseOrderResponse(order), nil
}

func toPurchaseOrderResponse(order *model.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:          order.ID.String(),
		MerchantRef: order.MerchantRef,
		Status:      order.Status,
		AmountPi:    order.AmountPi.String(),
		Metadata:    order.Metadata,
		PiPaymentID: order.PiPaymentID,
		CreatedAt:   order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   order.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
