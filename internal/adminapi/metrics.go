package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/pkrm0306/gp-backend/internal/webserver"
	"github.com/pkrm0306/gp-backend/pkg/metrics"
)

type registrationStats struct {
	WindowMinutes int   `json:"windowMinutes"`
	Registered    int64 `json:"registered"`
	Updated       int64 `json:"updated"`
	Failed        int64 `json:"failed"`
	Plants        int64 `json:"plants"`
}

func registerMetricsRoutes() {
	webserver.ApiGET("/metrics/registrations", getRegistrationStats)
}

func getRegistrationStats(c echo.Context) error {
	minutes := cast.ToInt(c.QueryParam("minutes"))
	if minutes <= 0 {
		minutes = 60
	}
	if minutes > 7*24*60 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "minutes must not exceed 10080", nil)
	}
	window := time.Duration(minutes) * time.Minute

	stats := registrationStats{WindowMinutes: minutes}
	for metric, dst := range map[string]*int64{
		metrics.RegistrationSucceeded: &stats.Registered,
		metrics.RegistrationUpdated:   &stats.Updated,
		metrics.RegistrationFailed:    &stats.Failed,
		metrics.PlantsRegistered:      &stats.Plants,
	} {
		v, err := metrics.Sum(metric, window)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to query metrics", err.Error())
		}
		*dst = v
	}
	return ok(c, stats)
}
