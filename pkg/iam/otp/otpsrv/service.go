package otpsrv

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
	"github.com/Abraxas-365/contractorconnect/pkg/jobx"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/google/uuid"
)

// SweepJobType is the jobx job type that runs the retention sweep.
const SweepJobType = "otp.sweep"

// IssueRequest describes an OTP to issue. Channel is inferred when empty.
type IssueRequest struct {
	Identifier string
	Purpose    otp.Purpose
	Channel    otp.Channel
	UserID     *kernel.UserID
}

// IssueResult carries the stored code and what happened on delivery.
type IssueResult struct {
	OTP     *otp.OTP
	Outcome notifx.DeliveryOutcome
}

// DeliveredToConsole reports whether the code only went to the development log.
func (r *IssueResult) DeliveredToConsole() bool {
	return r.Outcome.OK && r.Outcome.Result.Provider == string(notifx.ChannelConsole)
}

// Option customizes an OTPService.
type Option func(*OTPService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *OTPService) {
		s.now = now
	}
}

// OTPService issues and verifies one-time codes. Delivery failures never fail
// issuance; storage failures always do.
type OTPService struct {
	repo     otp.Repository
	limiter  otp.RateLimiter
	notifier otp.Notifier
	cfg      config.OTPConfig
	now      func() time.Time
}

func NewOTPService(repo otp.Repository, limiter otp.RateLimiter, notifier otp.Notifier, cfg config.OTPConfig, opts ...Option) *OTPService {
	s := &OTPService{
		repo:     repo,
		limiter:  limiter,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue rate-limits, replaces any outstanding code for (identifier, purpose),
// stores a new one and delivers it.
func (s *OTPService) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	identifier := otp.NormalizeIdentifier(req.Identifier)
	if identifier == "" {
		return nil, otp.ErrValidation("identifier is required")
	}
	if !req.Purpose.IsValid() {
		return nil, otp.ErrValidation("purpose must be one of login, registration, verification").
			WithDetail("purpose", string(req.Purpose))
	}
	channel := req.Channel
	if channel == "" {
		channel = otp.ChannelFor(identifier)
	}
	if !channel.IsValid() {
		return nil, otp.ErrValidation("channel must be sms or email").WithDetail("channel", string(channel))
	}

	now := s.now()

	wait, err := s.limiter.Allow(ctx, identifier, now)
	if err != nil {
		return nil, otp.ErrStorage(err)
	}
	if wait > 0 {
		logx.WithContext(ctx).WithFields(logx.Fields{
			"identifier":  identifier,
			"purpose":     req.Purpose,
			"retry_after": wait.String(),
		}).Warn("OTP rate limit reached")
		return nil, otp.ErrRateLimited().WithDetail("retry_after", int(math.Ceil(wait.Seconds())))
	}

	code, err := otp.GenerateCode(s.cfg.Length)
	if err != nil {
		// a bad OTP_LENGTH is a server fault, not the caller's
		e := errx.New("failed to generate OTP code", errx.TypeInternal)
		e.Err = err
		return nil, e
	}

	newOTP := &otp.OTP{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Code:       code,
		Purpose:    req.Purpose,
		Channel:    channel,
		UserID:     req.UserID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.TTL),
	}

	if err := s.repo.Replace(ctx, newOTP); err != nil {
		return nil, otp.ErrStorage(err)
	}

	if err := s.limiter.Record(ctx, identifier, now); err != nil {
		logx.WithContext(ctx).WithError(err).WithField("identifier", identifier).Warn("failed to record OTP issuance")
	}

	outcome := s.notifier.Deliver(ctx, identifier, code, string(req.Purpose))

	fields := logx.Fields{
		"otp_id":     newOTP.ID,
		"identifier": identifier,
		"purpose":    req.Purpose,
		"channel":    channel,
		"expires_at": newOTP.ExpiresAt,
	}
	if outcome.OK {
		fields["provider"] = outcome.Result.Provider
		fields["used_fallback"] = outcome.UsedFallback
		logx.WithContext(ctx).WithFields(fields).Info("OTP issued")
	} else {
		logx.WithContext(ctx).WithFields(fields).WithError(outcome.Err()).Error("OTP stored but delivery failed")
	}

	return &IssueResult{OTP: newOTP, Outcome: outcome}, nil
}

// Resend issues a fresh code with the same arguments. The rate limit applies.
func (s *OTPService) Resend(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	return s.Issue(ctx, req)
}

// Verify consumes the code once. Every failure looks the same to the caller.
func (s *OTPService) Verify(ctx context.Context, identifier, code string, purpose otp.Purpose) (*otp.OTP, error) {
	identifier = otp.NormalizeIdentifier(identifier)
	code = strings.TrimSpace(code)
	if identifier == "" || code == "" {
		return nil, otp.ErrValidation("identifier and code are required")
	}
	if !purpose.IsValid() {
		return nil, otp.ErrValidation("purpose must be one of login, registration, verification").
			WithDetail("purpose", string(purpose))
	}

	now := s.now()

	verified, err := s.repo.Consume(ctx, identifier, code, purpose, now)
	if err == nil {
		logx.WithContext(ctx).WithFields(logx.Fields{
			"otp_id":     verified.ID,
			"identifier": identifier,
			"purpose":    purpose,
		}).Info("OTP verified")
		return verified, nil
	}

	if !errx.IsCode(err, otp.CodeInvalidOrExpired) {
		return nil, otp.ErrStorage(err)
	}

	if ferr := s.repo.RecordFailedAttempt(ctx, identifier, purpose, s.cfg.MaxVerifyAttempts, now); ferr != nil {
		logx.WithContext(ctx).WithError(ferr).WithField("identifier", identifier).Warn("failed to record OTP verification failure")
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"identifier": identifier,
		"purpose":    purpose,
	}).Warn("OTP verification failed")

	return nil, otp.ErrInvalidOrExpired()
}

// PurgeOlderThan deletes codes created more than days ago.
func (s *OTPService) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, otp.ErrValidation("retention days must be positive").WithDetail("days", days)
	}

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, otp.ErrStorage(err)
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"cutoff":  cutoff,
		"deleted": n,
	}).Info("OTP retention sweep finished")
	return n, nil
}

// SweepPayload is the optional payload of an otp.sweep job.
type SweepPayload struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

// SweepHandler runs PurgeOlderThan for jobx. The payload may override the
// configured retention.
func (s *OTPService) SweepHandler() jobx.HandlerFunc {
	return func(ctx context.Context, job *jobx.JobInfo) error {
		days := s.cfg.RetentionDays
		if len(job.Payload) > 0 {
			var p SweepPayload
			if err := json.Unmarshal(job.Payload, &p); err != nil {
				return errx.Wrap(err, "invalid otp.sweep payload", errx.TypeValidation)
			}
			if p.RetentionDays > 0 {
				days = p.RetentionDays
			}
		}
		_, err := s.PurgeOlderThan(ctx, days)
		return err
	}
}
