package notifx

const brandName = "ContractorConnect"

// Template names for the OTP bodies held by DefaultTemplates.
const (
	OTPTextTemplateName    = "otp.txt"
	OTPSubjectTemplateName = "otp_subject.txt"
	OTPEmailTemplateName   = "otp.html"
)

const otpTextTemplate = `Your {{.Brand}} OTP is: {{.Code}}
Use this code to {{.PurposeText}}.
Valid for 5 minutes. Do not share with anyone.`

const otpSubjectTemplate = `Your {{.Brand}} OTP: {{.Code}}`

const otpEmailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>{{.Brand}}</h2>
    <p>Use the code below to {{.PurposeText}}.</p>
    <div style="background-color: #f4f4f4; border: 2px solid #007bff; border-radius: 8px; padding: 20px; text-align: center; margin: 20px 0;">
      <span style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">{{.Code}}</span>
    </div>
    <p>This code is valid for 5 minutes. Do not share it with anyone.</p>
  </div>
</body>
</html>`

// OTPMessageData is what the OTP templates see.
type OTPMessageData struct {
	Brand       string
	Code        string
	PurposeText string
}

func otpData(code, purpose string) OTPMessageData {
	return OTPMessageData{Brand: brandName, Code: code, PurposeText: PurposeText(purpose)}
}

var defaultTemplates = mustTemplates(map[string]string{
	OTPTextTemplateName:    otpTextTemplate,
	OTPSubjectTemplateName: otpSubjectTemplate,
	OTPEmailTemplateName:   otpEmailTemplate,
})

func mustTemplates(bodies map[string]string) *TemplateRegistry {
	r := NewTemplateRegistry()
	for name, body := range bodies {
		if err := r.Register(name, body); err != nil {
			panic(err)
		}
	}
	return r
}

// DefaultTemplates returns the registry holding the built-in OTP bodies.
func DefaultTemplates() *TemplateRegistry { return defaultTemplates }

// PurposeText is the phrase completing "Use this code to ...".
func PurposeText(purpose string) string {
	switch purpose {
	case "login":
		return "login"
	case "registration":
		return "complete your registration"
	case "verification":
		return "verify your account"
	default:
		return "authenticate"
	}
}

// FormatMessage renders the plain-text OTP body shared by every channel.
func FormatMessage(code, purpose string) string {
	return mustRender(OTPTextTemplateName, otpData(code, purpose))
}

// EmailSubject is the subject line used by the email providers.
func EmailSubject(code string) string {
	return mustRender(OTPSubjectTemplateName, otpData(code, ""))
}

// mustRender is only used with built-in templates and fully populated data.
func mustRender(name string, data OTPMessageData) string {
	s, err := defaultTemplates.Render(name, data)
	if err != nil {
		panic(err)
	}
	return s
}
