// Package httpserver exposes the task manager JSON API over HTTP.
package httpserver

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/task-manager/internal/service"
)

// HealthCheck is a named dependency probe used by /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Options carries the dependencies and knobs of the HTTP layer.
type Options struct {
	Auth   service.AuthService
	Tasks  service.TaskService
	Logger *zap.Logger

	Checks         []HealthCheck
	WebDir         string   // serves login/register/tasks pages when set
	CORSOrigins    []string // empty disables CORS headers
	TrustedProxies []string // nil trusts no proxy for ClientIP
}

// Server wires services into HTTP handlers.
type Server struct {
	auth   service.AuthService
	tasks  service.TaskService
	log    *zap.Logger
	checks []HealthCheck
	opts   Options
}

// New constructs a Server with injected services.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: opts.Auth, tasks: opts.Tasks, log: log, checks: opts.Checks, opts: opts}
}

// Routes builds the gin engine with middleware and all routes registered.
func (s *Server) Routes() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(s.opts.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(Recover(s.log), Logging(s.log))

	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.opts.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:  []string{"Authorization", "Content-Type"},
			ExposeHeaders: []string{"WWW-Authenticate"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.POST("/register", s.register)
	api.POST("/login", s.login)

	tasks := api.Group("/tasks", RequireAuth(s.auth, s.log))
	tasks.GET("", s.listTasks)
	tasks.POST("", s.createTask)
	tasks.GET("/:id", s.getTask)
	tasks.PUT("/:id", s.replaceTask)
	tasks.DELETE("/:id", s.deleteTask)

	if dir := s.opts.WebDir; dir != "" {
		pages := map[string]string{"/": "login.html", "/register": "register.html", "/tasks": "tasks.html"}
		for route, file := range pages {
			p := filepath.Join(dir, file)
			if _, err := os.Stat(p); err != nil {
				s.log.Warn("presentation page missing", zap.String("route", route), zap.String("file", p))
				continue
			}
			r.StaticFile(route, p)
		}
	}
	return r, nil
}

// health reports 200 when every dependency answers, 503 otherwise.
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	out := gin.H{"status": "ok"}
	code := http.StatusOK
	for _, hc := range s.checks {
		if err := hc.Ping(ctx); err != nil {
			s.log.Warn("health check failed", zap.String("check", hc.Name), zap.Error(err))
			out["status"] = "unavailable"
			out[hc.Name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		out[hc.Name] = "up"
	}
	c.JSON(code, out)
}
