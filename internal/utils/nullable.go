package utils

import "strings"

// Helpers for nullable columns

// NonZero points at v, or is nil when v is the zero value
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// IfOK points at v only when ok is set, matching the comma-ok lookups
// that report optional values.
func IfOK[T any](v T, ok bool) *T {
	if !ok {
		return nil
	}
	return &v
}

// Deref is *v, or fallback for nil
func Deref[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

// TrimmedOrNil is nil on an empty or all whitespace string
func TrimmedOrNil(s string) *string {
	return NonZero(strings.TrimSpace(s))
}
