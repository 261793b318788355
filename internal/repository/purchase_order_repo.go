package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrDuplicateReference means the generated merchant_ref collided with an
	// existing row; callers mint a new reference and retry.
	ErrDuplicateReference = errors.New("merchant reference already exists")

	// ErrTransitionRejected means the order's current status failed the
	// transition predicate. The row is left untouched.
	ErrTransitionRejected = errors.New("status transition rejected")
)

const pgUniqueViolation = "23505"

type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	FindByMerchantRef(ctx context.Context, ref string) (*model.PurchaseOrder, error)
	List(ctx context.Context, page, limit int) ([]model.PurchaseOrder, int64, error)
	// ApplyTransition atomically reads the order, checks predicate against its
	// current status and, if it holds, applies mutate and writes the row back.
	// The read locks the row for the duration of the transaction, so two
	// concurrent deliveries for the same reference serialize and only one can
	// observe a pre-transition status. Returns the post-transition order, or
	// the current one together with ErrTransitionRejected.
	ApplyTransition(ctx context.Context, ref string, predicate func(status string) bool, mutate func(order *model.PurchaseOrder)) (*model.PurchaseOrder, error)
}

type purchaseOrderRepository struct {
	db        *gorm.DB
	txManager TransactionManager
}

func NewPurchaseOrderRepository(db *gorm.DB, txManager TransactionManager) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db, txManager: txManager}
}

func (r *purchaseOrderRepository) Create(ctx context.Context, order *model.PurchaseOrder) error {
	if err := GetDB(ctx, r.db).Create(order).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *purchaseOrderRepository) FindByMerchantRef(ctx context.Context, ref string) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := GetDB(ctx, r.db).First(&order, "merchant_ref = ?", ref).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseOrderRepository) List(ctx context.Context, page, limit int) ([]model.PurchaseOrder, int64, error) {
	var orders []model.PurchaseOrder
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.PurchaseOrder{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *purchaseOrderRepository) ApplyTransition(ctx context.Context, ref string, predicate func(status string) bool, mutate func(order *model.PurchaseOrder)) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	err := r.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := GetDB(txCtx, r.db).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "merchant_ref = ?", ref).Error; err != nil {
			return err
		}
		if !predicate(order.Status) {
			return ErrTransitionRejected
		}
		mutate(&order)
		return GetDB(txCtx, r.db).Save(&order).Error
	})
	if err != nil {
		if errors.Is(err, ErrTransitionRejected) {
			// Hand the caller the untouched row so it can inspect the state
			// the transition lost to.
			return &order, ErrTransitionRejected
		}
		return nil, err
	}
	return &order, nil
}
