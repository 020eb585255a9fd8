package authinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
)

// LogxAuditService implements auth.AuditService using structured logx logging.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogLoginAttempt(_ context.Context, userID kernel.UserID, method string, success bool, ip string, userAgent string) {
	logx.WithFields(logx.Fields{
		"audit_event": "login_attempt",
		"user_id":     userID,
		"method":      method,
		"success":     success,
		"ip":          ip,
		"user_agent":  userAgent,
		"timestamp":   time.Now(),
	}).Info("Audit: login attempt")
}

func (s *LogxAuditService) LogLogout(_ context.Context, userID kernel.UserID, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "logout",
		"user_id":     userID,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: logout")
}

func (s *LogxAuditService) LogTokenRefresh(_ context.Context, userID kernel.UserID, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "token_refresh",
		"user_id":     userID,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: token refresh")
}

func (s *LogxAuditService) LogOTPVerification(_ context.Context, identifier string, purpose string, success bool, ip string) {
	entry := logx.WithFields(logx.Fields{
		"audit_event": "otp_verification",
		"identifier":  identifier,
		"purpose":     purpose,
		"success":     success,
		"ip":          ip,
		"timestamp":   time.Now(),
	})
	if success {
		entry.Info("Audit: OTP verification")
		return
	}
	entry.Warn("Audit: OTP verification failed")
}

func (s *LogxAuditService) LogAccountCreated(_ context.Context, userID kernel.UserID, role kernel.Role, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "account_created",
		"user_id":     userID,
		"role":        role,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: account created")
}
