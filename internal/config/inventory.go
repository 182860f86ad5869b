package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InventoryPolicy carries the tunable thresholds of the stock ledger and invoice engine.
type InventoryPolicy struct {
	LowStockThreshold   int  `mapstructure:"low_stock_threshold"`
	NearExpiryDays      int  `mapstructure:"near_expiry_days"`
	VerifyInvoiceTotals bool `mapstructure:"verify_invoice_totals"`

	// Refuse to sell inactive or expired medicines even when stock remains.
	BlockUnavailableSales bool `mapstructure:"block_unavailable_sales"`
}

func DefaultInventoryPolicy() InventoryPolicy {
	return InventoryPolicy{
		LowStockThreshold:   20,
		NearExpiryDays:      30,
		VerifyInvoiceTotals: false,
	}
}

type InventoryPolicyHolder struct {
	current atomic.Value // holds InventoryPolicy
}

// NewStaticInventoryPolicy returns a holder that never reloads.
func NewStaticInventoryPolicy(policy InventoryPolicy) *InventoryPolicyHolder {
	holder := &InventoryPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewInventoryPolicyHolder() (*InventoryPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("inventory")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/apotek/config")
	v.AddConfigPath("/etc/apotek")
	v.AddConfigPath(".")

	v.SetEnvPrefix("APOTEK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInventoryPolicy()
	v.SetDefault("inventory.low_stock_threshold", defaults.LowStockThreshold)
	v.SetDefault("inventory.near_expiry_days", defaults.NearExpiryDays)
	v.SetDefault("inventory.verify_invoice_totals", defaults.VerifyInvoiceTotals)
	v.SetDefault("inventory.block_unavailable_sales", defaults.BlockUnavailableSales)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	var cfg InventoryPolicy
	if err := v.UnmarshalKey("inventory", &cfg); err != nil {
		return nil, err
	}
	if err := validateInventoryPolicy(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticInventoryPolicy(cfg)
	if !found {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InventoryPolicy
		if err := v.UnmarshalKey("inventory", &updated); err != nil {
			log.Printf("[inventory-config] reload failed: %v", err)
			return
		}
		if err := validateInventoryPolicy(updated); err != nil {
			log.Printf("[inventory-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[inventory-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *InventoryPolicyHolder) Get() InventoryPolicy {
	if h == nil {
		return DefaultInventoryPolicy()
	}
	return h.current.Load().(InventoryPolicy)
}

func validateInventoryPolicy(cfg InventoryPolicy) error {
	if cfg.LowStockThreshold < 0 {
		return errors.New("inventory.low_stock_threshold cannot be negative")
	}
	if cfg.NearExpiryDays < 0 {
		return errors.New("inventory.near_expiry_days cannot be negative")
	}
	return nil
}
