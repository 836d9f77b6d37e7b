// Package model defines the buyer record and the closed field vocabulary
// used by matching and merging.
package model

import "time"

// Buyer is a single investor/contact record in an owner's buyer list.
// Empty strings and nil slices mean "absent".
type Buyer struct {
	ID      string `json:"id" yaml:"id" db:"id"`
	OwnerID string `json:"owner_id,omitempty" yaml:"owner_id,omitempty" db:"owner_id"`

	// Contact
	Name        string `json:"name,omitempty" yaml:"name,omitempty" db:"name"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty" db:"email"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty" db:"phone"`
	CompanyName string `json:"company_name,omitempty" yaml:"company_name,omitempty" db:"company_name"`
	City        string `json:"city,omitempty" yaml:"city,omitempty" db:"city"`
	State       string `json:"state,omitempty" yaml:"state,omitempty" db:"state"`

	// Buy box
	Markets       []string `json:"markets,omitempty" yaml:"markets,omitempty" db:"markets"`
	PropertyTypes []string `json:"property_types,omitempty" yaml:"property_types,omitempty" db:"property_types"`
	Strategies    []string `json:"strategies,omitempty" yaml:"strategies,omitempty" db:"strategies"`
	MinBudget     *int64   `json:"min_budget,omitempty" yaml:"min_budget,omitempty" db:"min_budget"`
	MaxBudget     *int64   `json:"max_budget,omitempty" yaml:"max_budget,omitempty" db:"max_budget"`
	Notes         string   `json:"notes,omitempty" yaml:"notes,omitempty" db:"notes"`
	Source        string   `json:"source,omitempty" yaml:"source,omitempty" db:"source"`

	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty" db:"tags"`
	Priority string   `json:"priority,omitempty" yaml:"priority,omitempty" db:"priority"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy of b. Slices and pointers are never shared with
// the original.
func (b Buyer) Clone() Buyer {
	c := b
	c.Markets = cloneStrings(b.Markets)
	c.PropertyTypes = cloneStrings(b.PropertyTypes)
	c.Strategies = cloneStrings(b.Strategies)
	c.Tags = cloneStrings(b.Tags)
	c.MinBudget = cloneInt64(b.MinBudget)
	c.MaxBudget = cloneInt64(b.MaxBudget)
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
