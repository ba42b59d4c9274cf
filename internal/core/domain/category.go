package domain

import "strings"

// Built-in categories. Stored as plain strings so user-defined categories can
// live alongside them without a schema change.
const (
	CategoryIDPersonal = "ID & Personal"
	CategoryFinancial  = "Financial"
	CategoryReceipts   = "Receipts"
	CategoryMedical    = "Medical"
	CategoryEducation  = "Education"
	CategoryVehicle    = "Vehicle"
	CategoryProperty   = "Property"
	CategoryOther      = "Other"
)

// CategoryInfo describes one built-in or user-defined category.
type CategoryInfo struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// BuiltinCategories returns the fixed category set in its stable scan order.
// The classifier's tie-break depends on this order staying put.
func BuiltinCategories() []CategoryInfo {
	return []CategoryInfo{
		{Name: CategoryIDPersonal, Emoji: "📋"},
		{Name: CategoryFinancial, Emoji: "💰"},
		{Name: CategoryReceipts, Emoji: "🧾"},
		{Name: CategoryMedical, Emoji: "🏥"},
		{Name: CategoryEducation, Emoji: "🎓"},
		{Name: CategoryVehicle, Emoji: "🚗"},
		{Name: CategoryProperty, Emoji: "🏠"},
		{Name: CategoryOther, Emoji: "📄"},
	}
}

// NormalizeCategory maps a stored or user-supplied category name onto a
// built-in one if it matches case-insensitively, and otherwise returns the
// input unchanged (custom categories keep their own spelling).
func NormalizeCategory(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return CategoryOther
	}
	for _, c := range BuiltinCategories() {
		if strings.EqualFold(c.Name, trimmed) {
			return c.Name
		}
	}
	return trimmed
}
