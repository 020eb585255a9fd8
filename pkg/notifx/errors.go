package notifx

import "github.com/Abraxas-365/contractorconnect/pkg/errx"

var notifxErrors = errx.NewRegistry("NOTIFX")

var (
	ErrSendFailed            = notifxErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "Failed to deliver OTP")
	ErrInvalidMessage        = notifxErrors.Register("INVALID_MESSAGE", errx.TypeValidation, 400, "Invalid message")
	ErrTemplateNotFound      = notifxErrors.Register("TEMPLATE_NOT_FOUND", errx.TypeNotFound, 404, "Email template not found")
	ErrTemplateParse         = notifxErrors.Register("TEMPLATE_PARSE", errx.TypeValidation, 400, "Failed to parse email template")
	ErrTemplateRender        = notifxErrors.Register("TEMPLATE_RENDER", errx.TypeInternal, 500, "Failed to render email template")
	ErrUnknownChannel        = notifxErrors.Register("UNKNOWN_CHANNEL", errx.TypeValidation, 400, "Unknown delivery channel")
	ErrProviderNotConfigured = notifxErrors.Register("PROVIDER_NOT_CONFIGURED", errx.TypeInternal, 500, "Delivery provider is not configured")
	ErrNoProvider            = notifxErrors.Register("NO_PROVIDER", errx.TypeInternal, 500, "No delivery provider registered")
	ErrDeliveryTimeout       = notifxErrors.Register("DELIVERY_TIMEOUT", errx.TypeExternal, 504, "Delivery provider timed out")
	ErrUnaddressable         = notifxErrors.Register("UNADDRESSABLE_RECIPIENT", errx.TypeValidation, 400, "Delivery provider cannot reach this recipient")
)

// NewSendError wraps a provider failure in the shared SEND_FAILED code.
func NewSendError(provider string, cause error) *errx.Error {
	return notifxErrors.NewWithCause(ErrSendFailed, cause).WithDetail("provider", provider)
}

// NewNotConfiguredError reports missing credentials for a provider.
func NewNotConfiguredError(provider, missing string) *errx.Error {
	return notifxErrors.New(ErrProviderNotConfigured).
		WithDetail("provider", provider).
		WithDetail("missing", missing)
}
