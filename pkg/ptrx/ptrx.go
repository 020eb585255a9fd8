package ptrx

import "strings"

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Value returns the pointed-to value, or the zero value for nil.
func Value[T any](p *T) T {
	if p != nil {
		return *p
	}
	var zero T
	return zero
}

// ValueOr returns the pointed-to value, or def for nil.
func ValueOr[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}

// String returns a pointer value for the string value passed in.
func String(v string) *string {
	return &v
}

// TrimmedOrNil trims *v and returns nil when nothing is left.
func TrimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	if s := strings.TrimSpace(*v); s != "" {
		return &s
	}
	return nil
}
