// Package budget implements the optional cost/token/time guardrails that
// gate a pipeline run (spec §7's approval/ceiling surface), mirroring the
// pointer-typed optional-field pattern of config.BudgetConfig.
package budget

import "fmt"

// Config defines the budget limits and approval policy for one pipeline
// run. Pointer fields are optional ceilings: nil means unbounded,
// mirroring config.BudgetConfig's own pointer fields.
type Config struct {
	MaxCost           *float64
	MaxTokens         *int64
	MaxTimeSeconds    *int64
	ApprovalThreshold *float64
	RequireApproval   bool
	Metadata          map[string]interface{}
}

// Validate ensures the guardrail values are sane before use.
func (c Config) Validate() error {
	if c.MaxCost != nil && *c.MaxCost < 0 {
		return fmt.Errorf("budget: max_cost cannot be negative")
	}
	if c.MaxTokens != nil && *c.MaxTokens < 0 {
		return fmt.Errorf("budget: max_tokens cannot be negative")
	}
	if c.MaxTimeSeconds != nil && *c.MaxTimeSeconds < 0 {
		return fmt.Errorf("budget: max_time_seconds cannot be negative")
	}
	if c.ApprovalThreshold != nil && c.MaxCost != nil && *c.ApprovalThreshold > *c.MaxCost {
		return fmt.Errorf("budget: approval_threshold cannot exceed max_cost")
	}
	return nil
}

// Clone produces a deep copy of the config, including its Metadata map.
func (c Config) Clone() Config {
	clone := Config{RequireApproval: c.RequireApproval}
	if c.MaxCost != nil {
		v := *c.MaxCost
		clone.MaxCost = &v
	}
	if c.MaxTokens != nil {
		v := *c.MaxTokens
		clone.MaxTokens = &v
	}
	if c.MaxTimeSeconds != nil {
		v := *c.MaxTimeSeconds
		clone.MaxTimeSeconds = &v
	}
	if c.ApprovalThreshold != nil {
		v := *c.ApprovalThreshold
		clone.ApprovalThreshold = &v
	}
	if c.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(c.Metadata))
		for k, v := range c.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// Merge overlays non-zero values from override onto base, returning a
// new Config that shares no mutable state with either argument.
func Merge(base, override Config) Config {
	result := base.Clone()
	if override.MaxCost != nil {
		v := *override.MaxCost
		result.MaxCost = &v
	}
	if override.MaxTokens != nil {
		v := *override.MaxTokens
		result.MaxTokens = &v
	}
	if override.MaxTimeSeconds != nil {
		v := *override.MaxTimeSeconds
		result.MaxTimeSeconds = &v
	}
	if override.ApprovalThreshold != nil {
		v := *override.ApprovalThreshold
		result.ApprovalThreshold = &v
	}
	if override.RequireApproval {
		result.RequireApproval = true
	}
	for k, v := range override.Metadata {
		if result.Metadata == nil {
			result.Metadata = make(map[string]interface{}, len(override.Metadata))
		}
		result.Metadata[k] = v
	}
	return result
}

// RequiresApproval reports whether an estimated or accumulated cost
// crosses the config's approval policy: either RequireApproval is
// unconditionally set, or ApprovalThreshold is configured and breached.
func RequiresApproval(cfg Config, cost float64) bool {
	if cfg.RequireApproval {
		return true
	}
	return cfg.ApprovalThreshold != nil && cost > *cfg.ApprovalThreshold
}
