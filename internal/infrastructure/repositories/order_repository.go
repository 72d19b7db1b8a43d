package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/you/shopcore/domain"
)

// OrderRepositoryImpl implements domain.OrderRepository using GORM.
type OrderRepositoryImpl struct {
	db *gorm.DB
}

// DBOrder is the database model for Order.
type DBOrder struct {
	ID                uint          `gorm:"primaryKey"`
	Number            string        `gorm:"uniqueIndex;size:64"`
	AccountID         uint          `gorm:"index"`
	TotalAmount       int64         `gorm:"not null"`
	TotalTokens       int64         `gorm:"not null"`
	Status            string        `gorm:"index;size:16"`
	ShippingAddressID string        `gorm:"size:64"`
	Notes             string        `gorm:"size:512"`
	Items             []DBOrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DBOrderItem is the database model for a single order line item.
type DBOrderItem struct {
	ID             uint   `gorm:"primaryKey"`
	OrderID        uint   `gorm:"index"`
	ProductID      string `gorm:"size:64"`
	Quantity       int    `gorm:"not null"`
	UnitPrice      int64  `gorm:"not null"`
	UnitTokenPrice int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM.
func (DBOrder) TableName() string { return "orders" }

// TableName returns the table name for GORM.
func (DBOrderItem) TableName() string { return "order_items" }

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) *OrderRepositoryImpl {
	return &OrderRepositoryImpl{db: db}
}

// Create implements domain.OrderRepository.
func (r *OrderRepositoryImpl) Create(ctx context.Context, order *domain.Order) error {
	dbOrder := orderToDB(order)
	if err := r.db.WithContext(ctx).Create(dbOrder).Error; err != nil {
		return fmt.Errorf("%w: create order: %v", domain.ErrRecordStoreUnavailable, err)
	}
	order.ID = dbOrder.ID
	return nil
}

// FindByID implements domain.OrderRepository.
func (r *OrderRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var dbOrder DBOrder
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&dbOrder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("%w: find order: %v", domain.ErrRecordStoreUnavailable, err)
	}
	return orderToDomain(&dbOrder), nil
}

// terminalStatuses are the states from which cancellation is no longer
// permitted; OrderStatus.Cancellable is the same rule in domain terms.
var terminalStatuses = []string{
	string(domain.OrderShipped),
	string(domain.OrderDelivered),
	string(domain.OrderCancelled),
	string(domain.OrderRefunded),
}

// ClaimCancellation implements domain.OrderRepository. The status check
// and the write are one conditional UPDATE, mirroring the version guard
// on balance writes: a lost race surfaces as zero affected rows.
func (r *OrderRepositoryImpl) ClaimCancellation(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&DBOrder{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Update("status", string(domain.OrderCancelled))
	if res.Error != nil {
		return fmt.Errorf("%w: claim cancellation: %v", domain.ErrRecordStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotCancellable
	}
	return nil
}

// orderToDB converts a domain order to its database model.
func orderToDB(order *domain.Order) *DBOrder {
	dbOrder := &DBOrder{
		ID:                order.ID,
		Number:            order.Number,
		AccountID:         order.AccountID,
		TotalAmount:       order.TotalAmount,
		TotalTokens:       order.TotalTokens,
		Status:            string(order.Status),
		ShippingAddressID: order.ShippingAddressID,
		Notes:             order.Notes,
	}
	for _, item := range order.Items {
		dbOrder.Items = append(dbOrder.Items, DBOrderItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			UnitTokenPrice: item.UnitTokenPrice,
		})
	}
	return dbOrder
}

// orderToDomain converts a database model to a domain order.
func orderToDomain(dbOrder *DBOrder) *domain.Order {
	order := &domain.Order{
		ID:                dbOrder.ID,
		Number:            dbOrder.Number,
		AccountID:         dbOrder.AccountID,
		TotalAmount:       dbOrder.TotalAmount,
		TotalTokens:       dbOrder.TotalTokens,
		Status:            domain.OrderStatus(dbOrder.Status),
		ShippingAddressID: dbOrder.ShippingAddressID,
		Notes:             dbOrder.Notes,
		CreatedAt:         dbOrder.CreatedAt,
		UpdatedAt:         dbOrder.UpdatedAt,
	}
	for _, item := range dbOrder.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			UnitTokenPrice: item.UnitTokenPrice,
		})
	}
	return order
}

var _ domain.OrderRepository = (*OrderRepositoryImpl)(nil)
