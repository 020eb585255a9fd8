package logx

import (
	"fmt"
	"strings"
)

const redacted = "[REDACTED]"

// secretKeys are never printed.
var secretKeys = map[string]bool{
	"code":          true,
	"otp":           true,
	"otp_code":      true,
	"dev_code":      true,
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"authorization": true,
	"password":      true,
	"secret":        true,
	"api_key":       true,
	"auth_token":    true,
}

// contactKeys are printed masked: enough to correlate, not enough to reach.
var contactKeys = map[string]bool{
	"identifier":   true,
	"recipient":    true,
	"phone":        true,
	"phone_number": true,
	"email":        true,
	"to":           true,
}

// revealed marks a value that bypasses redaction.
type revealed struct{ v any }

func (r revealed) String() string { return fmt.Sprint(r.v) }

func (r revealed) MarshalJSON() ([]byte, error) { return jsonValue(r.v) }

// Reveal prints v even under a redacted key. Only the development console
// notifier should need it.
func Reveal(v any) any { return revealed{v} }

// redactFields returns a copy of fields with sensitive values masked.
func redactFields(fields Fields) Fields {
	if len(fields) == 0 {
		return fields
	}
	out := make(Fields, len(fields))
	for k, v := range fields {
		if _, ok := v.(revealed); ok {
			out[k] = v
			continue
		}
		key := strings.ToLower(k)
		switch {
		case secretKeys[key]:
			out[k] = redacted
		case contactKeys[key]:
			out[k] = MaskContact(fmt.Sprint(v))
		default:
			out[k] = v
		}
	}
	return out
}

// MaskContact keeps the first character and domain of an email, and the
// leading country code plus last four digits of a phone number.
func MaskContact(s string) string {
	if s == "" {
		return s
	}
	if at := strings.LastIndexByte(s, '@'); at > 0 {
		return s[:1] + strings.Repeat("*", max(at-1, 3)) + s[at:]
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	keep := 0
	if strings.HasPrefix(s, "+") && len(s) > 7 {
		keep = 3
	}
	return s[:keep] + strings.Repeat("*", len(s)-keep-4) + s[len(s)-4:]
}
