// Package metrics keeps small process-local time series (registration
// counters, gauges) in a tstorage database under the working directory.
package metrics

import (
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
)

const (
	RegistrationSucceeded = "gpreg_registration_succeeded"
	RegistrationUpdated   = "gpreg_registration_updated"
	RegistrationFailed    = "gpreg_registration_failed"
	PlantsRegistered      = "gpreg_plants_registered"
)

var (
	mu      sync.RWMutex
	storage tstorage.Storage
)

// InitMetrics opens the storage at <workdir>/data/metrics. An empty workdir
// keeps everything in memory.
func InitMetrics(workdir string) error {
	opts := []tstorage.Option{
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(time.Hour),
		tstorage.WithRetention(7 * 24 * time.Hour),
	}
	if workdir != "" {
		opts = append(opts, tstorage.WithDataPath(path.Join(workdir, "data", "metrics")))
	}
	s, err := tstorage.NewStorage(opts...)
	if err != nil {
		return errors.Wrap(err, "open metrics storage")
	}

	mu.Lock()
	old := storage
	storage = s
	mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Close flushes and releases the storage.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}

func insert(metric string, value float64, ts time.Time, labels ...tstorage.Label) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{{
		Metric:    metric,
		Labels:    labels,
		DataPoint: tstorage.DataPoint{Timestamp: ts.Unix(), Value: value},
	}})
}

// SetGauge records the current value of a gauge.
func SetGauge(metric string, value int64) {
	insert(metric, float64(value), time.Now())
}

// Incr adds delta to a counter at the current second.
func Incr(metric string, delta int64) {
	insert(metric, float64(delta), time.Now())
}

// Sum adds up every point of metric recorded within the last window.
func Sum(metric string, window time.Duration) (int64, error) {
	points, err := selectWindow(metric, window)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range points {
		total += p.Value
	}
	return int64(total), nil
}

// Last returns the most recent value of a gauge within window.
func Last(metric string, window time.Duration) (int64, bool, error) {
	points, err := selectWindow(metric, window)
	if err != nil || len(points) == 0 {
		return 0, false, err
	}
	latest := points[0]
	for _, p := range points[1:] {
		if p.Timestamp >= latest.Timestamp {
			latest = p
		}
	}
	return int64(latest.Value), true, nil
}

func selectWindow(metric string, window time.Duration) ([]*tstorage.DataPoint, error) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return nil, nil
	}
	now := time.Now()
	points, err := storage.Select(metric, nil, now.Add(-window).Unix(), now.Unix()+1)
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return nil, nil
	}
	return points, errors.Wrapf(err, "select %s", metric)
}
