package app

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/pkrm0306/gp-backend/config"
	"github.com/pkrm0306/gp-backend/internal/registration"
	"github.com/pkrm0306/gp-backend/internal/repository"
	"github.com/pkrm0306/gp-backend/internal/sequence"
)

// DBProvider provides database access. DB is nil with the memory backend.
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// StorageProvider provides the product store, reference lookups and counters
type StorageProvider interface {
	Backend() repository.Backend
	Allocator() sequence.Allocator
}

// RegistrationProvider provides the registration workflow
type RegistrationProvider interface {
	Registration() *registration.Orchestrator
}

// EventProvider provides the in-process event bus
type EventProvider interface {
	Bus() EventBus.Bus
}

// AppContext combines all provider interfaces for full application context
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	StorageProvider
	RegistrationProvider
	EventProvider

	MigrateDB(track bool) error
	// ReconcileSequences floors the product and plant counters to the stored maxima.
	ReconcileSequences(ctx context.Context) error
	// SeedReferenceData loads manufacturers, countries and states from a YAML file.
	SeedReferenceData(ctx context.Context, file string) error
}
