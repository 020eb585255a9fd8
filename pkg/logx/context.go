package logx

import "context"

type fieldsKey struct{}

// NewContext returns ctx carrying fields, merged over any already attached.
// Entries built with WithContext pick them up.
func NewContext(ctx context.Context, fields Fields) context.Context {
	merged := make(Fields, len(fields))
	for k, v := range FieldsFromContext(ctx) {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// FieldsFromContext returns the fields attached by NewContext, or nil.
func FieldsFromContext(ctx context.Context) Fields {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}
