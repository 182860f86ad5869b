package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInventoryPolicyDefaults(t *testing.T) {
	var holder *InventoryPolicyHolder
	policy := holder.Get()

	assert.Equal(t, 20, policy.LowStockThreshold)
	assert.Equal(t, 30, policy.NearExpiryDays)
	assert.False(t, policy.VerifyInvoiceTotals)
}

func TestStaticInventoryPolicy(t *testing.T) {
	holder := NewStaticInventoryPolicy(InventoryPolicy{LowStockThreshold: 5, NearExpiryDays: 7, VerifyInvoiceTotals: true})

	policy := holder.Get()
	assert.Equal(t, 5, policy.LowStockThreshold)
	assert.Equal(t, 7, policy.NearExpiryDays)
	assert.True(t, policy.VerifyInvoiceTotals)
}

func TestValidateInventoryPolicy(t *testing.T) {
	assert.NoError(t, validateInventoryPolicy(DefaultInventoryPolicy()))
	assert.Error(t, validateInventoryPolicy(InventoryPolicy{LowStockThreshold: -1}))
	assert.Error(t, validateInventoryPolicy(InventoryPolicy{NearExpiryDays: -3}))
}

func TestGetenvDuration(t *testing.T) {
	t.Setenv("APOTEK_TEST_TTL", "15m")
	assert.Equal(t, "15m0s", getenvDuration("APOTEK_TEST_TTL", 0).String())

	t.Setenv("APOTEK_TEST_TTL", "garbage")
	assert.Equal(t, "1h0m0s", getenvDuration("APOTEK_TEST_TTL", 3600*1e9).String())
}
