package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/talentum-plus/talentum/internal/auth"
	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/models"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Error("panic while serving request",
					zap.String("path", r.URL.Path),
					zap.Any("panic", v),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, detail("Error interno"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.ObserveRequest(r.Method, route, rec.status, elapsed)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
			zap.String(logger.FieldRequestID, requestIDFrom(r.Context())),
		)
	})
}

var (
	adminRoles = []string{models.RoleAdmin}
	staffRoles = []string{models.RoleAdmin, models.RoleRecruiter}
)

// identify verifies the bearer token of r.
func (s *Server) identify(r *http.Request) (*auth.Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, unauthorized("Not authenticated")
	}

	id, err := s.tokens.Verify(strings.TrimSpace(token))
	switch {
	case errors.Is(err, auth.ErrMissingSubject):
		return nil, unauthorized("Token inválido")
	case err != nil:
		return nil, unauthorized("Token expirado o inválido")
	}
	return id, nil
}

// optionalIdentity returns the caller when a valid token is present, nil otherwise.
func (s *Server) optionalIdentity(r *http.Request) *auth.Identity {
	if r.Header.Get("Authorization") == "" {
		return nil
	}
	id, err := s.identify(r)
	if err != nil {
		return nil
	}
	return id
}

// requireRole demands a valid token and, when roles are given, one of them.
func (s *Server) requireRole(h handlerFunc, roles ...string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := s.identify(r)
		if err != nil {
			return err
		}
		if len(roles) > 0 && !id.HasRole(roles...) {
			if len(roles) == 1 && roles[0] == models.RoleAdmin {
				return forbidden("Se requiere rol de administrador")
			}
			return forbidden("Se requiere rol de reclutador o administrador")
		}
		return h(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	}
}

// recruiterGuard applies the staff requirement only when it is configured.
func (s *Server) recruiterGuard(h handlerFunc) handlerFunc {
	if !s.cfg.RequireRecruiter {
		return h
	}
	return s.requireRole(h, staffRoles...)
}

type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

// newLoginLimiter allows perMinute attempts per client. Zero disables throttling.
func newLoginLimiter(perMinute int) *loginLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &loginLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (l *loginLimiter) allow(client string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[client]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters[client] = lim
	}
	return lim.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) limitLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Warn("login throttled", zap.String("client", ip))
			writeJSON(w, http.StatusTooManyRequests, detail("Demasiados intentos de inicio de sesión, probá más tarde"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsHandler() http.Handler {
	if s.metrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, detail("metrics disabled"))
		})
	}
	return s.metrics.Handler()
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func pathID(r *http.Request, name string) (models.ID, error) {
	id, err := models.ParseID(pathVar(r, name))
	if err != nil {
		return 0, newError(http.StatusUnprocessableEntity, "%s: %v", name, err)
	}
	return id, nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, newError(http.StatusUnprocessableEntity, "%s: field required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, newError(http.StatusUnprocessableEntity, "%s: value is not a valid number", name)
	}
	return v, nil
}
