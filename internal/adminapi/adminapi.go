// Package adminapi exposes the registration workflow over HTTP.
package adminapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pkrm0306/gp-backend/internal/app"
	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/webserver"
)

// Init registers every admin API route with the webserver route table.
func Init() {
	registerRegistrationRoutes()
	registerMetricsRoutes()
}

// Response is the success envelope.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Status: "success", Message: "OK", Data: data})
}

func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Status: "success", Message: message, Data: data})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, webserver.ErrorEnvelope{
		Status:  "error",
		Code:    code,
		Message: message,
		Details: details,
	})
}

// failErr maps a classified error to its HTTP status and code.
func failErr(c echo.Context, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case apperr.KindNotFound:
		return fail(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case apperr.KindAllocation:
		return fail(c, http.StatusInternalServerError, "SEQUENCE_ERROR", err.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
	}
}

// validationDetails lists field-level failures from validator/v10.
func validationDetails(err error) interface{} {
	verrs, isValidation := err.(validator.ValidationErrors)
	if !isValidation {
		return err.Error()
	}
	details := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, map[string]string{
			"field": fe.Namespace(),
			"rule":  fe.Tag(),
		})
	}
	return details
}

// GetAppContext returns the application context installed by the webserver.
func GetAppContext(c echo.Context) app.AppContext {
	appCtx, isApp := c.Get(webserver.AppContextKey).(app.AppContext)
	if !isApp {
		zap.L().Error("application context missing", zap.String("namespace", "adminapi"))
		return nil
	}
	return appCtx
}
