// Package api exposes the platform over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/ai"
	"github.com/talentum-plus/talentum/internal/auth"
	"github.com/talentum-plus/talentum/internal/fanout"
	"github.com/talentum-plus/talentum/internal/filtering"
	"github.com/talentum-plus/talentum/internal/metrics"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
)

// Config holds the HTTP behaviour switches.
type Config struct {
	CORSOrigins []string
	// RequireRecruiter guards process, interview and evaluation creation
	// behind an admin or recruiter token.
	RequireRecruiter bool
	LoginPerMinute   int
	AI               *filtering.AIConfig
}

// Timeouts configure the underlying http.Server.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// Deps are the collaborators of the server. Matcher may be nil when AI
// matching is disabled; Metrics may be nil.
type Deps struct {
	Documents  store.Documents
	Relational store.Relational
	Graph      store.Graph
	Cache      store.Cache
	Syncer     *fanout.Syncer
	Tokens     *auth.Tokens
	Metrics    *metrics.Metrics
	Matcher    ai.Matcher
	Logger     *zap.Logger
}

type Server struct {
	cfg     Config
	docs    store.Documents
	rel     store.Relational
	graph   store.Graph
	cache   store.Cache
	syncer  *fanout.Syncer
	tokens  *auth.Tokens
	metrics *metrics.Metrics
	matcher ai.Matcher
	logger  *zap.Logger

	router  *mux.Router
	limiter *loginLimiter
	now     func() time.Time
	// grade draws an exam grade in [lo, hi].
	grade func(lo, hi int) int
}

func New(cfg Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.AI == nil {
		cfg.AI = &filtering.AIConfig{}
	}

	s := &Server{
		cfg:     cfg,
		docs:    deps.Documents,
		rel:     deps.Relational,
		graph:   deps.Graph,
		cache:   deps.Cache,
		syncer:  deps.Syncer,
		tokens:  deps.Tokens,
		metrics: deps.Metrics,
		matcher: deps.Matcher,
		logger:  log.Named("api"),
		limiter: newLoginLimiter(cfg.LoginPerMinute),
		now:     func() time.Time { return time.Now().UTC() },
		grade:   uniformGrade,
	}
	s.router = s.routes()
	return s
}

// uniformGrade draws an integer uniformly from [lo, hi]. Bounds are clamped to
// the exam scale so a corrupt stored grade cannot make the range empty.
func uniformGrade(lo, hi int) int {
	lo = min(max(lo, 0), models.ExamMaxGrade)
	hi = min(max(hi, lo), models.ExamMaxGrade)
	return lo + rand.IntN(hi-lo+1)
}

// Handler returns the full middleware stack around the router.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return otelhttp.NewHandler(c.Handler(s.router), "talentum")
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, t Timeouts) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  t.Read,
		WriteTimeout: t.Write,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.Shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverPanics, s.requestID, s.accessLog)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, detail("Not Found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, detail("Method Not Allowed"))
	})

	get := func(path string, h handlerFunc) { r.Handle(path, s.handle(h)).Methods(http.MethodGet) }
	post := func(path string, h handlerFunc) { r.Handle(path, s.handle(h)).Methods(http.MethodPost) }
	put := func(path string, h handlerFunc) { r.Handle(path, s.handle(h)).Methods(http.MethodPut) }
	del := func(path string, h handlerFunc) { r.Handle(path, s.handle(h)).Methods(http.MethodDelete) }

	staff := s.recruiterGuard

	// ops
	get("/", s.dashboard)
	get("/healthz", s.health)
	r.Handle("/metrics", s.metricsHandler()).Methods(http.MethodGet)

	// candidates
	post("/candidatos", s.createCandidate)
	get("/candidatos", s.listCandidates)
	get("/candidatos/buscar-por-skills", s.searchBySkills)
	get("/candidatos/{email}", s.getCandidate)
	put("/candidatos/{email}", s.updateCandidate)
	get("/candidatos/{email}/perfil", s.candidateProfile)
	get("/candidatos/{email}/skills", s.candidateSkills)
	post("/candidatos/{email}/skills", s.addSkill)
	del("/candidatos/{email}/skills/{skill}", s.removeSkill)
	put("/candidatos/{email}/seniority", s.setSeniority)
	get("/candidatos/{email}/cursos", s.candidateCourses)
	get("/candidatos/{email}/aplicaciones", s.candidateApplications)
	get("/candidatos/{email}/entrevistas", s.candidateInterviews)
	get("/candidatos/{email}/evaluaciones", s.candidateEvaluations)

	// processes
	post("/procesos", staff(s.createProcess))
	get("/procesos", s.listAllProcesses)
	get("/procesos/{candidato_id}", s.listProcesses)
	get("/procesos/{id}/entrevistas", s.processInterviews)
	get("/procesos/{id}/evaluaciones", s.processEvaluations)

	// matching and graph
	post("/matching", s.matching)
	get("/recomendaciones/{candidato_id}", s.recommendations)
	post("/mentoring/{candidato_id}/{mentor_id}", s.mentoring)
	get("/red/{email}", s.network)

	// connection requests
	post("/solicitudes", s.sendRequest)
	get("/solicitudes/recibidas/{email}", s.receivedRequests)
	get("/solicitudes/enviadas/{email}", s.sentRequests)
	put("/solicitudes/{id}/aceptar", s.acceptRequest)
	put("/solicitudes/{id}/rechazar", s.rejectRequest)
	get("/usuarios/buscar", s.searchUsers)

	// cache passthrough
	get("/cache/{key}", s.getCache)
	post("/cache/{key}", s.setCache)

	// courses and enrollments
	post("/cursos", s.requireRole(s.createCourse, adminRoles...))
	get("/cursos", s.listCourses)
	get("/cursos/{codigo}", s.getCourse)
	post("/inscripciones", s.enroll)
	put("/inscripciones/{id}/progreso", s.updateProgress)
	post("/inscripciones/{id}/rendir-examen", s.takeExam)
	put("/inscripciones/{id}/calificar", s.gradeEnrollment)
	del("/inscripciones/{id}", s.withdraw)

	// companies and offers
	post("/empresas", s.createCompany)
	get("/empresas", s.listCompanies)
	post("/ofertas", s.publishOffer)
	get("/ofertas", s.listOffers)
	get("/ofertas/{id}", s.getOffer)
	put("/ofertas/{id}", s.requireRole(s.updateOffer))
	post("/ofertas/{id}/aplicar", s.apply)
	get("/ofertas/{id}/matches", s.offerMatches)
	post("/ofertas/{id}/evaluar", s.evaluateCandidate)

	// interviews and evaluations
	post("/entrevistas", staff(s.createInterview))
	get("/entrevistas/{id}", s.getInterview)
	put("/entrevistas/{id}", s.updateInterview)
	post("/evaluaciones", staff(s.createEvaluation))
	get("/evaluaciones/{id}", s.getEvaluation)
	put("/evaluaciones/{id}", s.updateEvaluation)

	// accounts
	post("/register", s.register)
	r.Handle("/login", s.limitLogin(s.handle(s.login))).Methods(http.MethodPost)
	get("/me", s.requireRole(s.me))

	return r
}
