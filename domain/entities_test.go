package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountIsBlocked(t *testing.T) {
	assert.False(t, (&Account{Status: AccountActive}).IsBlocked())
	assert.True(t, (&Account{Status: AccountBlocked}).IsBlocked())
	assert.False(t, (&Account{}).IsBlocked())
}

func TestAccountHasModule(t *testing.T) {
	account := &Account{Modules: []string{ModuleOrders}}

	assert.True(t, account.HasModule(ModuleOrders))
	assert.False(t, account.HasModule(ModuleWallet))
	assert.False(t, (&Account{}).HasModule(ModuleOrders))
}

func TestOrderStatusCancellable(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderPending, true},
		{OrderConfirmed, true},
		{OrderProcessing, true},
		{OrderShipped, false},
		{OrderDelivered, false},
		{OrderCancelled, false},
		{OrderRefunded, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Cancellable())
		})
	}
}
