package reconcile

import (
	"fmt"
	"strings"

	"power-market-lab/internal/domain"
)

// NullMode decides what an explicit empty live value does to a baseline field.
type NullMode string

const (
	// NullRetain keeps the baseline value.
	NullRetain NullMode = "retain"
	// NullBlank clears the field.
	NullBlank NullMode = "blank"
)

// IsValid checks if the mode is known.
func (m NullMode) IsValid() bool {
	return m == NullRetain || m == NullBlank
}

// NullPolicy maps fields to a NullMode, with a default for unlisted fields.
type NullPolicy struct {
	Default NullMode
	Fields  map[domain.Field]NullMode
}

// DefaultNullPolicy retains baseline values for every field.
func DefaultNullPolicy() NullPolicy {
	return NullPolicy{Default: NullRetain}
}

// ModeFor returns the mode applied to f.
func (p NullPolicy) ModeFor(f domain.Field) NullMode {
	if m, ok := p.Fields[f]; ok {
		return m
	}
	if p.Default.IsValid() {
		return p.Default
	}
	return NullRetain
}

// String renders the policy in the form ParseNullPolicy accepts.
func (p NullPolicy) String() string {
	parts := []string{string(p.ModeFor(""))}
	for _, f := range domain.AllFields {
		if m, ok := p.Fields[f]; ok {
			parts = append(parts, string(f)+"="+string(m))
		}
	}
	return strings.Join(parts, ",")
}

// ParseNullPolicy parses a comma-separated policy. A bare mode sets the
// default; field=mode entries override single fields.
//
//	"retain"
//	"retain,actual_load=blank,wind_actual=blank"
func ParseNullPolicy(s string) (NullPolicy, error) {
	p := DefaultNullPolicy()
	for _, raw := range strings.Split(s, ",") {
		entry := strings.ToLower(strings.TrimSpace(raw))
		if entry == "" {
			continue
		}
		name, mode, hasField := strings.Cut(entry, "=")
		if !hasField {
			m := NullMode(name)
			if !m.IsValid() {
				return NullPolicy{}, fmt.Errorf("null policy: unknown mode %q", name)
			}
			p.Default = m
			continue
		}
		f := domain.Field(strings.TrimSpace(name))
		m := NullMode(strings.TrimSpace(mode))
		if !f.IsValid() {
			return NullPolicy{}, fmt.Errorf("null policy: unknown field %q", name)
		}
		if !m.IsValid() {
			return NullPolicy{}, fmt.Errorf("null policy: unknown mode %q for %s", mode, f)
		}
		if p.Fields == nil {
			p.Fields = make(map[domain.Field]NullMode)
		}
		p.Fields[f] = m
	}
	return p, nil
}
