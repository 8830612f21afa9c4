// Package webserver builds the echo HTTP server and keeps the API route table.
// Handler packages register routes with ApiGET/ApiPOST/... before the server
// is built; NewServer mounts them under /api/v1.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"

	"github.com/pkrm0306/gp-backend/config"
)

const (
	ApiPrefix = "/api/v1"

	// AppContextKey is the echo context key holding the application context.
	AppContextKey = "appctx"
)

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	public  bool
}

var (
	routesMu sync.Mutex
	routes   []route
)

func register(method, path string, h echo.HandlerFunc, public bool) {
	routesMu.Lock()
	defer routesMu.Unlock()
	for i, r := range routes {
		if r.method == method && r.path == path {
			routes[i].handler = h
			return
		}
	}
	routes = append(routes, route{method: method, path: path, handler: h, public: public})
}

func ApiGET(path string, h echo.HandlerFunc)  { register(http.MethodGet, path, h, false) }
func ApiPOST(path string, h echo.HandlerFunc) { register(http.MethodPost, path, h, false) }
func ApiPUT(path string, h echo.HandlerFunc)  { register(http.MethodPut, path, h, false) }

// PublicGET registers a route that bypasses the bearer guard.
func PublicGET(path string, h echo.HandlerFunc) { register(http.MethodGet, path, h, true) }

type Server struct {
	root *echo.Echo
	cfg  *config.AppConfig
}

// NewServer creates the echo instance, installs middleware and mounts every
// registered route. appCtx is exposed to handlers under AppContextKey.
func NewServer(cfg *config.AppConfig, appCtx interface{}) (*Server, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = &JSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler
	if cfg.System.Debug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return node.Generate().String() },
	}))
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			return next(c)
		}
	})

	api := e.Group(ApiPrefix)
	var guard echo.MiddlewareFunc
	if cfg.Web.JwtSecret != "" {
		guard = echojwt.WithConfig(echojwt.Config{
			SigningKey: []byte(cfg.Web.JwtSecret),
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusUnauthorized, ErrorEnvelope{
					Status:  "error",
					Code:    "UNAUTHORIZED",
					Message: "Missing or invalid bearer token",
				})
			},
		})
	}

	routesMu.Lock()
	for _, r := range routes {
		var mw []echo.MiddlewareFunc
		if guard != nil && !r.public {
			mw = append(mw, guard)
		}
		api.Add(r.method, r.path, r.handler, mw...)
	}
	routesMu.Unlock()

	return &Server{root: e, cfg: cfg}, nil
}

// Echo exposes the underlying instance, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.root
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("admin api listening", zap.String("namespace", "webserver"), zap.String("addr", addr))
		errCh <- s.root.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.root.Shutdown(shutdownCtx)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("namespace", "webserver"),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Info("request", fields...)
			return nil
		},
	})
}
