package tools

import (
	"fmt"
	"strings"

	"github.com/bgdnvk/spendwise/internal/config"
)

// Lookback bounds and defaults.
const (
	MinDays          = 1
	MaxDays          = 90
	DefaultLogDays   = 7
	DefaultSpendDays = 1
)

// LogParams parameterizes the log-based usage operations.
type LogParams struct {
	Days      int    `json:"days"`
	Region    string `json:"region"`
	LogGroup  string `json:"log_group_name"`
	AccountID string `json:"aws_account_id,omitempty"`
}

// SpendParams parameterizes the billing operations.
type SpendParams struct {
	Days      int    `json:"days"`
	Region    string `json:"region"`
	AccountID string `json:"aws_account_id,omitempty"`
}

func validDays(days int) error {
	if days < MinDays || days > MaxDays {
		return fmt.Errorf("days must be between %d and %d, got %d", MinDays, MaxDays, days)
	}
	return nil
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

// Normalize fills unset fields from cfg and validates the result.
func (p LogParams) Normalize(cfg config.Config) (LogParams, error) {
	if p.Days == 0 {
		p.Days = DefaultLogDays
	}
	p.Region = orDefault(p.Region, cfg.Region)
	p.LogGroup = orDefault(p.LogGroup, cfg.LogGroupName)
	p.AccountID = strings.TrimSpace(p.AccountID)
	return p, validDays(p.Days)
}

// Normalize fills unset fields from cfg and validates the result.
func (p SpendParams) Normalize(cfg config.Config) (SpendParams, error) {
	if p.Days == 0 {
		p.Days = DefaultSpendDays
	}
	p.Region = orDefault(p.Region, cfg.Region)
	p.AccountID = strings.TrimSpace(p.AccountID)
	return p, validDays(p.Days)
}
