// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, FS, jobs) and
// composes the IAM and marketplace containers.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Abraxas-365/contractorconnect/migrations"
	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/dbx"
	"github.com/Abraxas-365/contractorconnect/pkg/fsx"
	"github.com/Abraxas-365/contractorconnect/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/contractorconnect/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp/otpsrv"
	"github.com/Abraxas-365/contractorconnect/pkg/jobx"
	"github.com/Abraxas-365/contractorconnect/pkg/jobx/jobxmemory"
	"github.com/Abraxas-365/contractorconnect/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/Abraxas-365/contractorconnect/pkg/market/marketcontainer"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxmsg91"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxses"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxsmtp"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxtwilio"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	Notifier   *notifx.Dispatcher
	Jobs       *jobx.Client

	// Bounded-context containers
	IAM    *iamcontainer.Container
	Market *marketcontainer.Container

	awsCfg *aws.Config
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()
	c.initJobs()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis, file storage, OTP delivery
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")
	ctx := context.Background()

	// 1. Database
	if c.Config.Database.Driver == "memory" {
		logx.Warn("  ⚠️  DB_DRIVER=memory, all state lives in process memory")
	} else {
		db, err := dbx.Open(ctx, c.Config.Database)
		if err != nil {
			logx.Fatalf("Failed to connect to database: %v", err)
		}
		c.DB = db
		logx.Infof("  ✅ Database connected (%s)", db.DriverName())

		if c.Config.Database.AutoMigrate {
			applied, err := dbx.Migrate(ctx, db, migrations.FS)
			if err != nil {
				logx.Fatalf("Failed to apply migrations: %v", err)
			}
			logx.Infof("  ✅ Migrations applied (%d new)", applied)
		}
	}

	// 2. Redis (optional: OTP rate limiting and the job queue fall back without it)
	opts := &redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
	if c.Config.Redis.URL != "" {
		if parsed, err := redis.ParseURL(c.Config.Redis.URL); err == nil {
			opts = parsed
		} else {
			logx.Warnf("  ⚠️  Invalid REDIS_URL, using host/port settings: %v", err)
		}
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logx.WithError(err).Warn("  ⚠️  Redis unavailable, continuing without it")
		_ = rdb.Close()
	} else {
		c.Redis = rdb
		logx.Info("  ✅ Redis connected")
	}

	// 3. File storage
	c.initFileStorage()

	// 4. OTP delivery
	c.initNotifier()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) loadAWS() aws.Config {
	if c.awsCfg != nil {
		return *c.awsCfg
	}
	cfg, err := awsConfig.LoadDefaultConfig(context.Background(), awsConfig.WithRegion(c.Config.Storage.Region))
	if err != nil {
		logx.Fatalf("Unable to load AWS SDK config: %v", err)
	}
	c.awsCfg = &cfg
	return cfg
}

func (c *Container) initFileStorage() {
	sc := c.Config.Storage

	switch sc.Mode {
	case "s3":
		client := s3.NewFromConfig(c.loadAWS())
		c.FileSystem = fsxs3.NewS3FileSystem(client, sc.Bucket, sc.Prefix)
		logx.Infof("  ✅ S3 file system configured (bucket: %s, region: %s)", sc.Bucket, sc.Region)

	case "local", "":
		localFS, err := fsxlocal.NewLocalFileSystem(sc.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", localFS.BasePath())

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", sc.Mode)
	}
}

// initNotifier registers every delivery channel and resolves the configured
// primary and fallback into one dispatcher.
func (c *Container) initNotifier() {
	nc := c.Config.Notifx
	oc := c.Config.OTP

	registry := notifx.NewRegistry()
	registry.Register(notifx.ChannelConsole, func() (notifx.Provider, error) {
		return notifxconsole.NewConsoleProvider(), nil
	})
	registry.Register(notifx.ChannelEmail, func() (notifx.Provider, error) {
		return notifxsmtp.NewProvider(nc.SMTP)
	})
	registry.Register(notifx.ChannelEmailSES, func() (notifx.Provider, error) {
		awsCfg := c.loadAWS()
		awsCfg.Region = nc.SES.Region
		return notifxses.NewProvider(ses.NewFromConfig(awsCfg), nc.SES.FromAddress, nc.SMTP.FromName)
	})
	registry.Register(notifx.ChannelSMSTwilio, func() (notifx.Provider, error) {
		return notifxtwilio.NewSMSProvider(notifxtwilio.NewMessageAPI(nc.Twilio), nc.Twilio, nc.SMSCountryPrefix)
	})
	registry.Register(notifx.ChannelWhatsAppTwilio, func() (notifx.Provider, error) {
		return notifxtwilio.NewWhatsAppProvider(notifxtwilio.NewMessageAPI(nc.Twilio), nc.Twilio, nc.SMSCountryPrefix)
	})
	registry.Register(notifx.ChannelSMSMSG91, func() (notifx.Provider, error) {
		return notifxmsg91.NewProvider(nc.MSG91, nc.SMSCountryPrefix, &http.Client{Timeout: oc.DeliveryTimeout})
	})

	primary, err := notifx.ParseChannel(oc.DeliveryMethod)
	if err != nil {
		logx.Fatalf("Invalid OTP_DELIVERY_METHOD: %v", err)
	}
	fallback, err := notifx.ParseChannel(oc.FallbackMethod)
	if err != nil {
		logx.Fatalf("Invalid OTP_FALLBACK_METHOD: %v", err)
	}

	d, err := registry.BuildDispatcher(primary, fallback, oc.DeliveryTimeout)
	if err != nil {
		logx.Fatalf("Failed to configure OTP delivery: %v", err)
	}
	c.Notifier = d
	logx.WithComponent("notifx").WithStruct(map[string]any{
		"primary":  d.PrimaryName(),
		"fallback": d.FallbackName(),
		"timeout":  oc.DeliveryTimeout.String(),
	}).Info("  ✅ OTP delivery configured")
}

// ---------------------------------------------------------------------------
// Module composition — each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	iamDeps := iamcontainer.Deps{
		DB:          c.DB,
		Cfg:         c.Config,
		OTPNotifier: c.Notifier,
	}
	if c.Redis != nil {
		iamDeps.Redis = c.Redis
	}
	c.IAM = iamcontainer.New(iamDeps)

	c.Market = marketcontainer.New(marketcontainer.Deps{
		DB:    c.DB,
		Cfg:   c.Config,
		Files: c.FileSystem,
		Users: c.IAM.UserService,
	})
}

func (c *Container) initJobs() {
	if !c.Config.Jobx.Enabled {
		logx.Info("⏸️  Background jobs disabled (JOBX_ENABLED=false)")
		return
	}

	var queue jobx.Queue
	if c.Redis != nil {
		queue = jobxredis.NewQueue(c.Redis, "contractorconnect")
	} else {
		queue = jobxmemory.NewQueue()
		logx.Warn("  ⚠️  Using in-memory job queue, scheduled jobs do not survive restarts")
	}

	c.Jobs = jobx.NewClient(queue, jobx.FromConfig(c.Config.Jobx)...)
	c.IAM.RegisterJobs(c.Jobs)

	sweep, err := jobx.NewJob(otpsrv.SweepJobType, nil)
	if err != nil {
		logx.Fatalf("Failed to build OTP sweep job: %v", err)
	}
	if err := c.Jobs.Every(sweep, c.Config.OTP.SweepInterval); err != nil {
		logx.WithError(err).Warn("OTP retention sweep not scheduled")
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	if c.Jobs != nil {
		go func() {
			if err := c.Jobs.Start(ctx); err != nil {
				logx.WithError(err).Error("jobx stopped with error")
			}
		}()
	}
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
