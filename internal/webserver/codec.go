package webserver

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONSerializer implements echo.JSONSerializer with json-iterator.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body").SetInternal(err)
	}
	return nil
}

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// ErrorEnvelope is the body of every failed API response.
type ErrorEnvelope struct {
	Status  string      `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// errorHandler renders errors that escaped the handlers (unknown routes,
// binder failures, panics) in the API envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		message = http.StatusText(status)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		switch status {
		case http.StatusNotFound:
			code = "NOT_FOUND"
		case http.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case http.StatusBadRequest:
			code = "INVALID_REQUEST"
		case http.StatusUnauthorized:
			code = "UNAUTHORIZED"
		}
	} else {
		zap.L().Error("unhandled api error", zap.String("namespace", "webserver"), zap.Error(err))
	}

	body := ErrorEnvelope{Status: "error", Code: code, Message: message}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		zap.L().Warn("write error response", zap.String("namespace", "webserver"), zap.Error(werr))
	}
}
