package authsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp/otpsrv"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// OTPEngine is the part of otpsrv.OTPService the auth flow needs.
type OTPEngine interface {
	Issue(ctx context.Context, req otpsrv.IssueRequest) (*otpsrv.IssueResult, error)
	Resend(ctx context.Context, req otpsrv.IssueRequest) (*otpsrv.IssueResult, error)
	Verify(ctx context.Context, identifier, code string, purpose otp.Purpose) (*otp.OTP, error)
}

// RequestMeta carries client details for the audit log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// RegisterInput is the registration form.
type RegisterInput = usersrv.CreateInput

// OTPChallenge tells the client an OTP is on its way.
type OTPChallenge struct {
	Message    string      `json:"message"`
	Identifier string      `json:"identifier"`
	Purpose    otp.Purpose `json:"purpose"`
	Channel    otp.Channel `json:"channel"`
	ExpiresAt  time.Time   `json:"expires_at"`
	Delivered  bool        `json:"delivered"`
	UserID     string      `json:"user_id,omitempty"`
	// DevCode is set only when the console provider delivered and exposure is enabled
	DevCode string `json:"dev_code,omitempty"`
}

// Session is the result of a successful verification or refresh.
type Session struct {
	auth.TokenPair
	User *user.User `json:"user"`
}

// AuthService runs the passwordless OTP flow on top of the OTP engine.
type AuthService struct {
	otps          OTPEngine
	users         *usersrv.UserService
	tokens        auth.TokenService
	audit         auth.AuditService
	exposeDevCode bool
}

func NewAuthService(otps OTPEngine, users *usersrv.UserService, tokens auth.TokenService, audit auth.AuditService, exposeDevCode bool) *AuthService {
	return &AuthService{
		otps:          otps,
		users:         users,
		tokens:        tokens,
		audit:         audit,
		exposeDevCode: exposeDevCode,
	}
}

// Register creates a pending account and sends a registration OTP to its
// phone. An unverified account with the same phone gets a fresh OTP instead.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*OTPChallenge, error) {
	existing, err := s.users.FindByIdentifier(ctx, in.PhoneNumber)
	switch {
	case err == nil && existing.IsVerified:
		return nil, user.ErrAlreadyExists().WithDetail("field", "phone_number")
	case err == nil:
		return s.issue(ctx, existing.PhoneNumber, otp.PurposeRegistration, existing, false)
	case !errx.IsCode(err, user.CodeNotFound):
		return nil, err
	}

	u, err := s.users.CreatePending(ctx, in)
	if err != nil {
		return nil, err
	}
	s.audit.LogAccountCreated(ctx, u.ID, u.Role, meta.IP)

	return s.issue(ctx, u.PhoneNumber, otp.PurposeRegistration, u, false)
}

// Login sends a login OTP to an existing, active account.
func (s *AuthService) Login(ctx context.Context, identifier string) (*OTPChallenge, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, auth.ErrInvalidRequest("phone number or email is required")
	}

	u, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if !u.CanLogin() {
		return nil, user.ErrInactive()
	}

	return s.issue(ctx, canonicalIdentifier(u, identifier), otp.PurposeLogin, u, false)
}

// ResendOTP issues a new code for the same identifier and purpose.
func (s *AuthService) ResendOTP(ctx context.Context, identifier string, purpose otp.Purpose) (*OTPChallenge, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, auth.ErrInvalidRequest("phone number or email is required")
	}

	u, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if purpose == otp.PurposeRegistration && u.IsVerified {
		return nil, user.ErrAlreadyExists().WithDetail("reason", "account already verified")
	}

	return s.issue(ctx, canonicalIdentifier(u, identifier), purpose, u, true)
}

// VerifyOTP consumes the code and returns a token pair for the account.
func (s *AuthService) VerifyOTP(ctx context.Context, identifier, code string, purpose otp.Purpose, meta RequestMeta) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, auth.ErrInvalidRequest("phone number or email is required")
	}

	// unknown accounts fail like a wrong code
	u, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if !errx.IsCode(err, user.CodeNotFound) {
			return nil, err
		}
		s.audit.LogOTPVerification(ctx, identifier, string(purpose), false, meta.IP)
		return nil, otp.ErrInvalidOrExpired()
	}
	identifier = canonicalIdentifier(u, identifier)

	if _, err := s.otps.Verify(ctx, identifier, code, purpose); err != nil {
		s.audit.LogOTPVerification(ctx, identifier, string(purpose), false, meta.IP)
		return nil, err
	}
	s.audit.LogOTPVerification(ctx, identifier, string(purpose), true, meta.IP)

	if purpose == otp.PurposeRegistration || purpose == otp.PurposeVerification {
		if err := s.users.MarkVerified(ctx, u); err != nil {
			return nil, err
		}
	}

	if !u.CanLogin() {
		s.audit.LogLoginAttempt(ctx, u.ID, "otp", false, meta.IP, meta.UserAgent)
		return nil, user.ErrInactive()
	}

	if err := s.users.RecordLogin(ctx, u); err != nil {
		return nil, err
	}

	session, err := s.session(u)
	if err != nil {
		return nil, err
	}

	s.audit.LogLoginAttempt(ctx, u.ID, "otp", true, meta.IP, meta.UserAgent)
	return session, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*Session, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errx.IsCode(err, user.CodeNotFound) {
			return nil, auth.ErrInvalidRefreshToken()
		}
		return nil, err
	}
	if !u.CanLogin() {
		return nil, user.ErrInactive()
	}

	session, err := s.session(u)
	if err != nil {
		return nil, err
	}

	s.audit.LogTokenRefresh(ctx, u.ID, meta.IP)
	return session, nil
}

// Logout only records the event; tokens are stateless and expire on their own.
func (s *AuthService) Logout(ctx context.Context, userID kernel.UserID, meta RequestMeta) {
	s.audit.LogLogout(ctx, userID, meta.IP)
}

// canonicalIdentifier is the account's own phone or email, so every spelling
// of it shares one rate-limit window and one outstanding code.
func canonicalIdentifier(u *user.User, input string) string {
	if strings.Contains(input, "@") && u.Email != nil {
		return strings.ToLower(*u.Email)
	}
	return u.PhoneNumber
}

func (s *AuthService) issue(ctx context.Context, identifier string, purpose otp.Purpose, u *user.User, resend bool) (*OTPChallenge, error) {
	req := otpsrv.IssueRequest{
		Identifier: identifier,
		Purpose:    purpose,
	}
	if u != nil {
		id := u.ID
		req.UserID = &id
	}

	var res *otpsrv.IssueResult
	var err error
	if resend {
		res, err = s.otps.Resend(ctx, req)
	} else {
		res, err = s.otps.Issue(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	ch := &OTPChallenge{
		Message:    "OTP sent successfully",
		Identifier: res.OTP.Identifier,
		Purpose:    res.OTP.Purpose,
		Channel:    res.OTP.Channel,
		ExpiresAt:  res.OTP.ExpiresAt,
		Delivered:  res.Outcome.OK,
	}
	if !res.Outcome.OK {
		ch.Message = "OTP generated but delivery failed, please retry shortly"
	}
	if u != nil {
		ch.UserID = u.ID.String()
	}
	if s.exposeDevCode && res.DeliveredToConsole() {
		ch.DevCode = res.OTP.Code
	}
	return ch, nil
}

func (s *AuthService) session(u *user.User) (*Session, error) {
	sub := auth.TokenSubject{
		UserID:      u.ID,
		Role:        u.Role,
		PhoneNumber: u.PhoneNumber,
	}
	if u.Email != nil {
		sub.Email = *u.Email
	}

	access, err := s.tokens.GenerateAccessToken(sub)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(sub)
	if err != nil {
		return nil, err
	}

	return &Session{
		TokenPair: auth.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "bearer",
			ExpiresIn:    s.tokens.AccessTokenTTLSeconds(),
		},
		User: u,
	}, nil
}
