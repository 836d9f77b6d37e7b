package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Field identifies a mergeable buyer attribute.
type Field string

// Mergeable fields. Identity fields (id, owner_id, created_at) are never listed.
const (
	FieldName          Field = "name"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldCompanyName   Field = "company_name"
	FieldCity          Field = "city"
	FieldState         Field = "state"
	FieldMarkets       Field = "markets"
	FieldPropertyTypes Field = "property_types"
	FieldStrategies    Field = "strategies"
	FieldMinBudget     Field = "min_budget"
	FieldMaxBudget     Field = "max_budget"
	FieldNotes         Field = "notes"
	FieldSource        Field = "source"
)

// FieldKind describes the value shape of a Field.
type FieldKind int

// Field kinds.
const (
	KindText FieldKind = iota
	KindList
	KindNumber
)

// MergeableFields is the closed whitelist consulted by the merge resolver, in
// the order fields are applied.
var MergeableFields = []Field{
	FieldName, FieldEmail, FieldPhone, FieldCompanyName, FieldCity, FieldState,
	FieldMarkets, FieldPropertyTypes, FieldStrategies,
	FieldMinBudget, FieldMaxBudget,
	FieldNotes, FieldSource,
}

var fieldKinds = map[Field]FieldKind{
	FieldName:          KindText,
	FieldEmail:         KindText,
	FieldPhone:         KindText,
	FieldCompanyName:   KindText,
	FieldCity:          KindText,
	FieldState:         KindText,
	FieldMarkets:       KindList,
	FieldPropertyTypes: KindList,
	FieldStrategies:    KindList,
	FieldMinBudget:     KindNumber,
	FieldMaxBudget:     KindNumber,
	FieldNotes:         KindText,
	FieldSource:        KindText,
}

// Kind returns the value kind of f and whether f is mergeable at all.
func (f Field) Kind() (FieldKind, bool) {
	k, ok := fieldKinds[f]
	return k, ok
}

// ParseField resolves a field key such as "company_name" to a mergeable Field.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := fieldKinds[f]; !ok {
		return "", eris.Errorf("model: unknown mergeable field %q", s)
	}
	return f, nil
}

// MergeChoice selects how a field is resolved when merging two buyers.
type MergeChoice string

// Merge choices.
const (
	ChoicePrimary   MergeChoice = "primary"
	ChoiceSecondary MergeChoice = "secondary"
	ChoiceBoth      MergeChoice = "both"
)

// Valid reports whether c is one of the known choices.
func (c MergeChoice) Valid() bool {
	switch c {
	case ChoicePrimary, ChoiceSecondary, ChoiceBoth:
		return true
	}
	return false
}

// ParseMergeChoice resolves a choice name, case-insensitively.
func ParseMergeChoice(s string) (MergeChoice, error) {
	c := MergeChoice(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", eris.Errorf("model: unknown merge choice %q", s)
	}
	return c, nil
}

// Text returns the text value of f on b. Non-text fields return "".
func (b *Buyer) Text(f Field) string {
	switch f {
	case FieldName:
		return b.Name
	case FieldEmail:
		return b.Email
	case FieldPhone:
		return b.Phone
	case FieldCompanyName:
		return b.CompanyName
	case FieldCity:
		return b.City
	case FieldState:
		return b.State
	case FieldNotes:
		return b.Notes
	case FieldSource:
		return b.Source
	}
	return ""
}

// SetText sets the text value of f on b. Non-text fields are ignored.
func (b *Buyer) SetText(f Field, v string) {
	switch f {
	case FieldName:
		b.Name = v
	case FieldEmail:
		b.Email = v
	case FieldPhone:
		b.Phone = v
	case FieldCompanyName:
		b.CompanyName = v
	case FieldCity:
		b.City = v
	case FieldState:
		b.State = v
	case FieldNotes:
		b.Notes = v
	case FieldSource:
		b.Source = v
	}
}

// List returns the list value of f on b. Non-list fields return nil.
func (b *Buyer) List(f Field) []string {
	switch f {
	case FieldMarkets:
		return b.Markets
	case FieldPropertyTypes:
		return b.PropertyTypes
	case FieldStrategies:
		return b.Strategies
	}
	return nil
}

// SetList sets the list value of f on b. Non-list fields are ignored.
func (b *Buyer) SetList(f Field, v []string) {
	switch f {
	case FieldMarkets:
		b.Markets = v
	case FieldPropertyTypes:
		b.PropertyTypes = v
	case FieldStrategies:
		b.Strategies = v
	}
}

// Number returns the numeric value of f on b. Non-numeric fields return nil.
func (b *Buyer) Number(f Field) *int64 {
	switch f {
	case FieldMinBudget:
		return b.MinBudget
	case FieldMaxBudget:
		return b.MaxBudget
	}
	return nil
}

// SetNumber sets the numeric value of f on b. Non-numeric fields are ignored.
func (b *Buyer) SetNumber(f Field, v *int64) {
	switch f {
	case FieldMinBudget:
		b.MinBudget = v
	case FieldMaxBudget:
		b.MaxBudget = v
	}
}
