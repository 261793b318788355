package service

import (
	"context"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MockOrderRepo is an in-memory PurchaseOrderRepository. ApplyTransition holds
// the store lock for the whole read-modify-write, matching the row-lock
// semantics of the real implementation.
type MockOrderRepo struct {
	mu     sync.Mutex
	Orders map[string]*model.PurchaseOrder

	// CreateErrs is consumed one error per Create call; nil entries mean
	// success. Used to simulate duplicate-reference collisions.
	CreateErrs []error
	ApplyErr   error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{Orders: make(map[string]*model.PurchaseOrder)}
}

func (m *MockOrderRepo) Create(_ context.Context, order *model.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.CreateErrs) > 0 {
		err := m.CreateErrs[0]
		m.CreateErrs = m.CreateErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := m.Orders[order.MerchantRef]; exists {
		return repository.ErrDuplicateReference
	}

	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	m.Orders[order.MerchantRef] = &cp
	return nil
}

func (m *MockOrderRepo) FindByMerchantRef(_ context.Context, ref string) (*model.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.Orders[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *MockOrderRepo) List(_ context.Context, page, limit int) ([]model.PurchaseOrder, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]model.PurchaseOrder, 0, len(m.Orders))
	for _, order := range m.Orders {
		orders = append(orders, *order)
	}
	return orders, int64(len(orders)), nil
}

func (m *MockOrderRepo) ApplyTransition(_ context.Context, ref string, predicate func(status string) bool, mutate func(order *model.PurchaseOrder)) (*model.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ApplyErr != nil {
		return nil, m.ApplyErr
	}

	order, ok := m.Orders[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !predicate(order.Status) {
		cp := *order
		return &cp, repository.ErrTransitionRejected
	}
	mutate(order)
	order.UpdatedAt = time.Now()
	cp := *order
	return &cp, nil
}

// MockEventRepo records webhook event rows in memory.
type MockEventRepo struct {
	mu        sync.Mutex
	Events    []*model.WebhookEvent
	Processed map[uuid.UUID]string
}

func NewMockEventRepo() *MockEventRepo {
	return &MockEventRepo{Processed: make(map[uuid.UUID]string)}
}

func (m *MockEventRepo) Create(_ context.Context, event *model.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockEventRepo) MarkProcessed(_ context.Context, id uuid.UUID, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Processed[id] = note
	return nil
}

func (m *MockEventRepo) ListUnprocessed(_ context.Context, limit int) ([]model.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.WebhookEvent
	for _, event := range m.Events {
		if _, done := m.Processed[event.ID]; !done && event.SignatureValid {
			out = append(out, *event)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
