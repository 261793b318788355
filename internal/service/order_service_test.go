package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
)

var refPattern = regexp.MustCompile(`^PO-[A-Z0-9]{10}$`)

func TestOrderService_CreatePurchaseOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a valid amount When creating Then the order starts created with the exact amount", func(t *testing.T) {
		// Given
		repo := NewMockOrderRepo()
		svc := NewOrderService(repo)

		// When
		order, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{
			AmountPi: "1.5",
			Metadata: model.Metadata{"memo": "Premium"},
		})

		// Then
		if err != nil {
			t.Fatalf("CreatePurchaseOrder failed: %v", err)
		}
		if order.Status != model.StatusCreated {
			t.Errorf("expected status %q, got %q", model.StatusCreated, order.Status)
		}
		if order.AmountPi != "1.5" {
			t.Errorf("expected amount 1.5, got %s", order.AmountPi)
		}
		if !refPattern.MatchString(order.MerchantRef) {
			t.Errorf("merchant reference %q has wrong format", order.MerchantRef)
		}
		if order.PiPaymentID != nil {
			t.Errorf("expected no payment id on a fresh order, got %v", *order.PiPaymentID)
		}
	})

	t.Run("Given an amount with 8 fractional digits When creating Then no precision is lost", func(t *testing.T) {
		repo := NewMockOrderRepo()
		svc := NewOrderService(repo)

		order, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{AmountPi: "0.00000001"})

		if err != nil {
			t.Fatalf("CreatePurchaseOrder failed: %v", err)
		}
		if order.AmountPi != "0.00000001" {
			t.Errorf("expected amount 0.00000001, got %s", order.AmountPi)
		}
	})

	t.Run("Given invalid amounts When creating Then ErrInvalidAmount with no side effects", func(t *testing.T) {
		repo := NewMockOrderRepo()
		svc := NewOrderService(repo)

		for _, amount := range []string{"0", "-1", "abc", "", "1.000000001"} {
			_, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{AmountPi: amount})
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("amount %q: expected ErrInvalidAmount, got %v", amount, err)
			}
		}
		if len(repo.Orders) != 0 {
			t.Errorf("expected no orders persisted, got %d", len(repo.Orders))
		}
	})

	t.Run("Given a reference collision When creating Then a new reference is minted and the order persists", func(t *testing.T) {
		repo := NewMockOrderRepo()
		repo.CreateErrs = []error{repository.ErrDuplicateReference, nil}
		svc := NewOrderService(repo)

		order, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{AmountPi: "10"})

		if err != nil {
			t.Fatalf("CreatePurchaseOrder failed: %v", err)
		}
		if len(repo.Orders) != 1 {
			t.Fatalf("expected exactly one persisted order, got %d", len(repo.Orders))
		}
		if !refPattern.MatchString(order.MerchantRef) {
			t.Errorf("merchant reference %q has wrong format", order.MerchantRef)
		}
	})

	t.Run("Given persistent collisions When creating Then ErrReferenceExhausted after the retry budget", func(t *testing.T) {
		repo := NewMockOrderRepo()
		repo.CreateErrs = []error{
			repository.ErrDuplicateReference,
			repository.ErrDuplicateReference,
			repository.ErrDuplicateReference,
			repository.ErrDuplicateReference,
			repository.ErrDuplicateReference,
		}
		svc := NewOrderService(repo)

		_, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{AmountPi: "10"})

		if !errors.Is(err, ErrReferenceExhausted) {
			t.Errorf("expected ErrReferenceExhausted, got %v", err)
		}
	})

	t.Run("Given a store failure When creating Then the error surfaces unretried", func(t *testing.T) {
		repo := NewMockOrderRepo()
		storeErr := errors.New("connection refused")
		repo.CreateErrs = []error{storeErr}
		svc := NewOrderService(repo)

		_, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{AmountPi: "10"})

		if !errors.Is(err, storeErr) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})
}

func TestOrderService_Transitions(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, svc OrderService) PurchaseOrderResponse {
		t.Helper()
		order, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{AmountPi: "5"})
		if err != nil {
			t.Fatalf("setup create failed: %v", err)
		}
		return order
	}

	t.Run("Given a created order When initiating checkout Then it becomes pending_payment", func(t *testing.T) {
		repo := NewMockOrderRepo()
		svc := NewOrderService(repo)
		order := create(t, svc)

		updated, err := svc.InitiateCheckout(ctx, order.MerchantRef)

		if err != nil {
			t.Fatalf("InitiateCheckout failed: %v", err)
		}
		if updated.Status != model.StatusPendingPayment {
			t.Errorf("expected %q, got %q", model.StatusPendingPayment, updated.Status)
		}
	})

	t.Run("Given a pending order When initiating checkout again Then ErrTransitionRejected", func(t *testing.T) {
		repo := NewMockOrderRepo()
		svc := NewOrderService(repo)
		order := create(t, svc)

		if _, err := svc.InitiateCheckout(ctx, order.MerchantRef); err != nil {
			t.Fatalf("first InitiateCheckout failed: %v", err)
		}
		_, err := svc.InitiateCheckout(ctx, order.MerchantRef)

		if !errors.Is(err, ErrTransitionRejected) {
			t.Errorf("expected ErrTransitionRejected, got %v", err)
		}
	})

	t.Run("Given an unpaid order When cancelling Then it becomes cancelled", func(t *testing.T) {
		repo := NewMockOrderRepo()
		svc := NewOrderService(repo)
		order := create(t, svc)

		updated, err := svc.CancelPurchaseOrder(ctx, order.MerchantRef)

		if err != nil {
			t.Fatalf("CancelPurchaseOrder failed: %v", err)
		}
		if updated.Status != model.StatusCancelled {
			t.Errorf("expected %q, got %q", model.StatusCancelled, updated.Status)
		}
	})

	t.Run("Given a paid order When cancelling Then ErrTransitionRejected and the row is untouched", func(t *testing.T) {
		repo := NewMockOrderRepo()
		svc := NewOrderService(repo)
		order := create(t, svc)

		paymentID := "PAY123"
		repo.Orders[order.MerchantRef].Status = model.StatusPaid
		repo.Orders[order.MerchantRef].PiPaymentID = &paymentID

		_, err := svc.CancelPurchaseOrder(ctx, order.MerchantRef)

		if !errors.Is(err, ErrTransitionRejected) {
			t.Errorf("expected ErrTransitionRejected, got %v", err)
		}
		if repo.Orders[order.MerchantRef].Status != model.StatusPaid {
			t.Errorf("paid order must stay paid, got %q", repo.Orders[order.MerchantRef].Status)
		}
	})

	t.Run("Given an unknown reference When transitioning Then ErrOrderNotFound", func(t *testing.T) {
		repo := NewMockOrderRepo()
		svc := NewOrderService(repo)

		_, err := svc.CancelPurchaseOrder(ctx, "PO-DOESNOTEX1")

		if !errors.Is(err, ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})
}
