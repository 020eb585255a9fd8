package iamcontainer

import (
	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth/authapi"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp/otpinfra"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp/otpsrv"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user/userapi"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/contractorconnect/pkg/jobx"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// ---------------------------------------------------------------------------

type Deps struct {
	// DB may be nil, in which case in-memory stores are used (development only).
	DB *sqlx.DB
	// Redis may be nil; the OTP rate limiter then counts stored codes.
	Redis redis.Cmdable
	Cfg   *config.Config

	// OTPNotifier delivers codes; cmd/ builds it from the notifx registry.
	OTPNotifier otp.Notifier
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// ---------------------------------------------------------------------------

type Container struct {
	// Services
	UserService  *usersrv.UserService
	OTPService   *otpsrv.OTPService
	AuthService  *authsrv.AuthService
	TokenService auth.TokenService

	// API handlers, needed by cmd/ to register routes
	AuthHandlers *authapi.Handlers
	UserHandlers *userapi.Handlers

	// Middleware, needed by cmd/ and other modules to protect route groups
	AuthMiddleware *auth.TokenMiddleware
}

// ---------------------------------------------------------------------------
// New: constructs the IAM dependency graph.
// Order matters: repos → services → handlers → middleware.
// ---------------------------------------------------------------------------

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	c := &Container{}
	cfg := deps.Cfg

	// ── Repositories ─────────────────────────────────────────────────────

	var userRepo user.Repository
	var otpRepo otp.Repository
	if deps.DB != nil {
		userRepo = userinfra.NewPostgresUserRepository(deps.DB)
		otpRepo = otpinfra.NewPostgresRepository(deps.DB, otpinfra.NewCodeDigester(cfg.Auth.SecretKey))
	} else {
		userRepo = userinfra.NewMemoryUserRepository()
		otpRepo = otpinfra.NewMemoryRepository()
		logx.Warn("  ⚠️  Using in-memory user and OTP stores (not recommended for production)")
	}

	// ── OTP engine ───────────────────────────────────────────────────────

	var limiter otp.RateLimiter
	if cfg.OTP.RateLimiter == "redis" && deps.Redis != nil {
		limiter = otpinfra.NewRedisRateLimiter(deps.Redis, cfg.OTP.RateWindow, cfg.OTP.RateMax)
		logx.Info("  ✅ Using Redis OTP rate limiter")
	} else {
		if cfg.OTP.RateLimiter == "redis" {
			logx.Warn("  ⚠️  OTP_RATE_LIMITER=redis but Redis is unavailable, counting stored codes")
		}
		limiter = otpinfra.NewStoreRateLimiter(otpRepo, cfg.OTP.RateWindow, cfg.OTP.RateMax)
	}

	c.OTPService = otpsrv.NewOTPService(otpRepo, limiter, deps.OTPNotifier, cfg.OTP)

	// ── Domain services ──────────────────────────────────────────────────

	c.UserService = usersrv.NewUserService(userRepo)

	c.TokenService = auth.NewJWTService(
		cfg.Auth.SecretKey,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		cfg.Auth.Issuer,
	)

	auditService := authinfra.NewLogxAuditService()

	c.AuthService = authsrv.NewAuthService(
		c.OTPService,
		c.UserService,
		c.TokenService,
		auditService,
		cfg.OTP.ExposeDevCode,
	)
	if cfg.OTP.ExposeDevCode {
		logx.Warn("  ⚠️  OTP_EXPOSE_DEV_CODE is on: console-delivered codes are returned in responses")
	}

	// ── Middleware ────────────────────────────────────────────────────────

	c.AuthMiddleware = auth.NewAuthMiddleware(c.TokenService, c.UserService)

	// ── API handlers ─────────────────────────────────────────────────────

	c.AuthHandlers = authapi.NewHandlers(c.AuthService, c.UserService, c.AuthMiddleware)
	c.UserHandlers = userapi.NewHandlers(c.UserService)

	logx.Info("✅ IAM container initialized")
	return c
}

// RegisterJobs wires IAM background jobs into the job client.
func (c *Container) RegisterJobs(jobs *jobx.Client) {
	jobs.Register(otpsrv.SweepJobType, c.OTPService.SweepHandler())
	logx.Info("  ✅ OTP retention sweep job registered")
}
