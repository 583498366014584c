package core

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"capm/service/logger"
	sm "capm/service/models"
)

const (
	DefaultAddr = ":8080"

	defaultRunsLimit = 20
	maxRunsLimit     = 100
	maxBodyBytes     = 1 << 20

	writeTimeout = 2 * time.Minute
	// runs stop before the server write deadline so the client still gets a 504
	defaultRunTimeout = writeTimeout - 10*time.Second
)

type ServerOptions struct {
	Addr           string
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer // nil leaves /metrics unmounted
	RunTimeout     time.Duration       // zero uses defaultRunTimeout
}

// GetHttpServer makes all of the endpoints and routes.
// The write timeout leaves room for rate limited upstream fetches.
func GetHttpServer(sc *ServiceContext, opts ServerOptions) *http.Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}

	return &http.Server{
		Addr:           opts.Addr,
		Handler:        NewRouter(sc, opts),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   writeTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func NewRouter(sc *ServiceContext, opts ServerOptions) http.Handler {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = defaultRunTimeout
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/ping", ping)
		r.Get("/universe", universe)
		r.With(runDeadline(opts.RunTimeout)).Get("/capm", func(w http.ResponseWriter, r *http.Request) { capmByGet(w, r, sc) })
		r.With(runDeadline(opts.RunTimeout)).Post("/capm", func(w http.ResponseWriter, r *http.Request) { capmByPost(w, r, sc) })
		r.Get("/runs", func(w http.ResponseWriter, r *http.Request) { recentRuns(w, r, sc) })
	})

	return r
}

func ping(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"message": "pong"})
}

func universe(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sm.GetServiceResponseOk(&sm.UniverseResponse{
		Symbols:  sm.Universe,
		Defaults: sm.DefaultSymbols,
		MinYears: sm.MinYears,
		MaxYears: sm.MaxYears,
	}))
}

// capmByGet reads ?symbols=AAPL,TSLA&years=2&riskFreeRate=0.04.
// Without a symbols parameter the default selection is used, an empty one is an empty selection.
func capmByGet(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	query := r.URL.Query()
	req := sm.CapmRequest{Symbols: sm.DefaultSymbols}

	if query.Has("symbols") {
		req.Symbols = []string{}
		for _, s := range strings.Split(query.Get("symbols"), ",") {
			if s = strings.TrimSpace(s); s != "" {
				req.Symbols = append(req.Symbols, s)
			}
		}
	}

	if v := query.Get("years"); v != "" {
		years, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "years must be a whole number")
			return
		}
		req.Years = years
	}

	if v := query.Get("riskFreeRate"); v != "" {
		rf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "riskFreeRate must be a number")
			return
		}
		req.RiskFreeRate = &rf
	}

	runCapm(w, r, sc, req)
}

func capmByPost(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	var req sm.CapmRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	runCapm(w, r, sc, req)
}

func runCapm(w http.ResponseWriter, r *http.Request, sc *ServiceContext, req sm.CapmRequest) {
	resp, err := sc.RunCapm(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, sm.GetServiceResponseOk(resp))
}

func recentRuns(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > maxRunsLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = l
	}

	runs, err := sc.RecentRuns(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, sm.GetServiceResponseOk(&runs))
}

// writeServiceError maps controller errors to a status, aborted runs all get the same user facing message
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case IsAbort(err):
		writeError(w, r, http.StatusUnprocessableEntity, InvalidInputMessage)
	case errors.Is(err, ErrNoRunHistory):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "timed out fetching prices")
	case errors.Is(err, context.Canceled):
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		logger.GetLogger().WithComponent("http").WithError(err).Error("unhandled service error")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, sm.GetServiceResponseError(msg))
}

// runDeadline bounds the request context, writeServiceError turns the expired deadline into a 504
func runDeadline(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			logger.GetLogger().WithComponent("http").WithElapsed(start).WithFields(logger.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    ww.Status(),
				"bytes":     ww.BytesWritten(),
				"requestId": middleware.GetReqID(r.Context()),
			}).Info("request")
		}()

		next.ServeHTTP(ww, r)
	})
}
