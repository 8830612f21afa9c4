package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/registration"
	"github.com/pkrm0306/gp-backend/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	_, err = a.sched.AddFunc("@daily", a.SchedReconcileSequencesTask)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 1m", a.SchedSequenceGaugeTask)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedReconcileSequencesTask floors the counters to the stored maxima
func (a *Application) SchedReconcileSequencesTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	a.checkSequences(ctx)
}

// SchedSequenceGaugeTask records the current counter values
func (a *Application) SchedSequenceGaugeTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if v, err := a.allocator.Current(ctx, domain.SequenceProduct); err == nil {
		metrics.SetGauge("gpreg_sequence_product", v)
	}
	if v, err := a.allocator.Current(ctx, domain.SequencePlant); err == nil {
		metrics.SetGauge("gpreg_sequence_plant", v)
	}
}

// subscribeMetrics turns registration events into counters.
func (a *Application) subscribeMetrics() {
	subs := map[string]interface{}{
		registration.TopicProductRegistered: func(p *domain.Product) {
			metrics.Incr(metrics.RegistrationSucceeded, 1)
			metrics.Incr(metrics.PlantsRegistered, int64(len(p.Plants)))
		},
		registration.TopicProductUpdated: func(_ *domain.Product, _ bool) {
			metrics.Incr(metrics.RegistrationUpdated, 1)
		},
		registration.TopicRegistrationFailed: func(op string, err error) {
			metrics.Incr(metrics.RegistrationFailed, 1)
		},
	}
	for topic, fn := range subs {
		if err := a.bus.Subscribe(topic, fn); err != nil {
			zap.L().Error("event subscription failed",
				zap.String("namespace", "app"),
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
}
