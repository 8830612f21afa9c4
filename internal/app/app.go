package app

import (
	"context"
	"fmt"
	"os"
	"path"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pkrm0306/gp-backend/config"
	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/identifier"
	"github.com/pkrm0306/gp-backend/internal/location"
	"github.com/pkrm0306/gp-backend/internal/registration"
	"github.com/pkrm0306/gp-backend/internal/repository"
	"github.com/pkrm0306/gp-backend/internal/sequence"
	"github.com/pkrm0306/gp-backend/pkg/metrics"
)

type Application struct {
	appConfig    *config.AppConfig
	gormDB       *gorm.DB
	backend      repository.Backend
	lookup       *repository.CachedLookup
	allocator    sequence.Allocator
	bolt         *sequence.BoltAllocator
	bus          EventBus.Bus
	sched        *cron.Cron
	orchestrator *registration.Orchestrator
}

// Ensure Application implements all interfaces
var (
	_ DBProvider           = (*Application)(nil)
	_ ConfigProvider       = (*Application)(nil)
	_ SchedulerProvider    = (*Application)(nil)
	_ StorageProvider      = (*Application)(nil)
	_ RegistrationProvider = (*Application)(nil)
	_ EventProvider        = (*Application)(nil)
	_ AppContext           = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

func (a *Application) Backend() repository.Backend {
	return a.backend
}

func (a *Application) Allocator() sequence.Allocator {
	return a.allocator
}

func (a *Application) Registration() *registration.Orchestrator {
	return a.orchestrator
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Init sets up logging, storage, counters and the registration workflow.
func (a *Application) Init() error {
	cfg := a.appConfig
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if err := initLogger(cfg.Logger); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
			zap.S().Warn("Failed to initialize metrics:", err)
		}
	}

	switch cfg.Database.Type {
	case "memory":
		a.backend = repository.NewMemoryStore()
		zap.S().Info("Using in-memory storage")
	default:
		a.gormDB, err = getDatabase(cfg.Database, cfg.System.Workdir)
		if err != nil {
			return err
		}
		a.backend = repository.NewGormStore(a.gormDB)
		zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)
		if err := a.MigrateDB(false); err != nil {
			zap.S().Errorf("database migration failed: %v", err)
		}
	}

	if err := a.initAllocator(); err != nil {
		return err
	}

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	a.lookup = repository.NewCachedLookup(a.backend, ttl)

	a.bus = EventBus.New()
	a.subscribeMetrics()

	a.orchestrator = registration.NewOrchestrator(
		a.backend,
		a.allocator,
		identifier.NewGenerator(a.lookup),
		location.NewValidator(a.lookup),
		registration.WithPublisher(a.bus),
	)

	ctx := context.Background()
	if cfg.Reference.SeedFile != "" {
		if err := a.SeedReferenceData(ctx, cfg.Reference.SeedFile); err != nil {
			zap.L().Error("reference data seeding failed", zap.String("namespace", "app"), zap.Error(err))
		}
	}
	a.checkSequences(ctx)

	a.initJob()
	return nil
}

func initLogger(cfg config.LogConfig) error {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var zlog *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		zlog = zap.New(core, zap.AddCaller())
	} else {
		var err error
		zlog, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			return errors.Wrap(err, "build logger")
		}
	}

	zap.ReplaceGlobals(zlog)
	return nil
}

func getDatabase(cfg config.DBConfig, workdir string) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		name := cfg.Name
		if !path.IsAbs(name) {
			name = path.Join(workdir, "data", name)
		}
		// immediate transactions take the writer lock at BEGIN so concurrent
		// registrations wait on busy_timeout instead of failing on upgrade
		dialector = sqlite.Open(name + "?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	case "postgres":
		dialector = postgres.Open(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name))
	default:
		return nil, errors.Errorf("unsupported database type %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
	}
	if cfg.IdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func (a *Application) initAllocator() error {
	switch backend := a.appConfig.SequenceBackend(); backend {
	case "memory":
		a.allocator = sequence.NewMemoryAllocator()
	case "bolt":
		b, err := sequence.OpenBolt(path.Join(a.appConfig.GetDataDir(), "sequences.db"))
		if err != nil {
			return err
		}
		a.bolt = b
		a.allocator = b
	case "database":
		if a.gormDB == nil {
			return errors.New("database sequence backend requires a sql database")
		}
		a.allocator = sequence.NewGormAllocator(a.gormDB)
	default:
		return errors.Errorf("unsupported sequence backend %s", backend)
	}
	zap.L().Info("sequence allocator ready",
		zap.String("namespace", "app"),
		zap.String("backend", a.appConfig.SequenceBackend()))
	return nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	if a.gormDB == nil {
		return nil
	}
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.bolt != nil {
		_ = a.bolt.Close()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
