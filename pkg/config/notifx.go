package config

// NotifxConfig holds credentials for every OTP delivery provider. Only the
// providers selected by OTPConfig.DeliveryMethod / FallbackMethod are built.
type NotifxConfig struct {
	SMTP   SMTPConfig
	SES    SESConfig
	Twilio TwilioConfig
	MSG91  MSG91Config
	// SMSCountryPrefix is prepended to national numbers for SMS delivery
	SMSCountryPrefix string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

type SESConfig struct {
	Region      string
	FromAddress string
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

type MSG91Config struct {
	AuthKey    string
	SenderID   string
	Route      string
	TemplateID string
	BaseURL    string
}

func loadNotifxConfig() NotifxConfig {
	return NotifxConfig{
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", getEnv("SMTP_USER", "")),
			FromName: getEnv("SMTP_FROM_NAME", "ContractorConnect"),
		},
		SES: SESConfig{
			Region:      getEnv("NOTIFX_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
			FromAddress: getEnv("NOTIFX_FROM_ADDRESS", "noreply@contractorconnect.in"),
		},
		Twilio: TwilioConfig{
			AccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
			PhoneNumber:    getEnv("TWILIO_PHONE_NUMBER", ""),
			WhatsAppNumber: getEnv("TWILIO_WHATSAPP_NUMBER", ""),
		},
		MSG91: MSG91Config{
			AuthKey:    getEnv("MSG91_AUTH_KEY", ""),
			SenderID:   getEnv("MSG91_SENDER_ID", "CTRCTR"),
			Route:      getEnv("MSG91_ROUTE", "4"),
			TemplateID: getEnv("MSG91_TEMPLATE_ID", ""),
			BaseURL:    getEnv("MSG91_BASE_URL", "https://api.msg91.com/api/v5/otp"),
		},
		SMSCountryPrefix: getEnv("SMS_COUNTRY_PREFIX", "+91"),
	}
}
