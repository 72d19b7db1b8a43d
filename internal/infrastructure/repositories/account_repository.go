package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/you/shopcore/domain"
)

// AccountRepositoryImpl implements domain.AccountRepository using GORM.
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// DBAccount is the database model for Account. Phone carries the unique
// index that makes account creation idempotent under retry; Version
// backs compare-and-swap balance writes.
type DBAccount struct {
	ID              uint   `gorm:"primaryKey"`
	Phone           string `gorm:"uniqueIndex;size:32"`
	Status          string `gorm:"index;size:16"`
	Modules         string `gorm:"size:255"`
	TokenBalance    int64  `gorm:"not null;default:0"`
	Version         int64  `gorm:"not null;default:0"`
	ExternalRef     string `gorm:"size:128"`
	RefreshTokenRef string `gorm:"size:128"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM.
func (DBAccount) TableName() string {
	return "accounts"
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *gorm.DB) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

// Create implements domain.AccountRepository.
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	dbAccount := accountToDB(account)
	if err := r.db.WithContext(ctx).Create(dbAccount).Error; err != nil {
		return fmt.Errorf("%w: create account: %v", domain.ErrRecordStoreUnavailable, err)
	}
	account.ID = dbAccount.ID
	return nil
}

// FindByPhone implements domain.AccountRepository.
func (r *AccountRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: find account by phone: %v", domain.ErrRecordStoreUnavailable, err)
	}
	return accountToDomain(&dbAccount), nil
}

// FindByID implements domain.AccountRepository.
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: find account by id: %v", domain.ErrRecordStoreUnavailable, err)
	}
	return accountToDomain(&dbAccount), nil
}

// UpdateRefreshRef implements domain.AccountRepository. An empty ref
// clears the stored reference (logout).
func (r *AccountRepositoryImpl) UpdateRefreshRef(ctx context.Context, accountID uint, ref string) error {
	err := r.db.WithContext(ctx).Model(&DBAccount{}).
		Where("id = ?", accountID).
		Update("refresh_token_ref", ref).Error
	if err != nil {
		return fmt.Errorf("%w: update refresh ref: %v", domain.ErrRecordStoreUnavailable, err)
	}
	return nil
}

// CompareAndSwapBalance implements domain.AccountRepository. The write
// lands only if the version column is unchanged since the caller's
// read; a lost race surfaces as ErrBalanceConflict for the caller to
// re-read and retry.
func (r *AccountRepositoryImpl) CompareAndSwapBalance(ctx context.Context, accountID uint, version, newBalance int64) error {
	res := r.db.WithContext(ctx).Model(&DBAccount{}).
		Where("id = ? AND version = ?", accountID, version).
		Updates(map[string]interface{}{
			"token_balance": newBalance,
			"version":       version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: balance swap: %v", domain.ErrRecordStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrBalanceConflict
	}
	return nil
}

// accountToDB converts a domain account to its database model.
func accountToDB(account *domain.Account) *DBAccount {
	return &DBAccount{
		ID:              account.ID,
		Phone:           account.Phone,
		Status:          account.Status,
		Modules:         strings.Join(account.Modules, ","),
		TokenBalance:    account.TokenBalance,
		Version:         account.Version,
		ExternalRef:     account.ExternalRef,
		RefreshTokenRef: account.RefreshTokenRef,
	}
}

// accountToDomain converts a database model to a domain account.
func accountToDomain(dbAccount *DBAccount) *domain.Account {
	var modules []string
	if dbAccount.Modules != "" {
		modules = strings.Split(dbAccount.Modules, ",")
	}
	return &domain.Account{
		ID:              dbAccount.ID,
		Phone:           dbAccount.Phone,
		Status:          dbAccount.Status,
		Modules:         modules,
		TokenBalance:    dbAccount.TokenBalance,
		Version:         dbAccount.Version,
		ExternalRef:     dbAccount.ExternalRef,
		RefreshTokenRef: dbAccount.RefreshTokenRef,
		CreatedAt:       dbAccount.CreatedAt,
		UpdatedAt:       dbAccount.UpdatedAt,
	}
}

var _ domain.AccountRepository = (*AccountRepositoryImpl)(nil)
