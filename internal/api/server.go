// Package api serves the prediction HTTP endpoints.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/TimurManjosov/erpredict/internal/features"
	"github.com/TimurManjosov/erpredict/internal/inference"
	"github.com/TimurManjosov/erpredict/internal/model"
	"github.com/TimurManjosov/erpredict/internal/telemetry"
)

// RootMessage is the body of GET /.
const RootMessage = "ER visit prediction server is running. Use POST /predict for predictions."

// Predictor scores an assembled feature row.
type Predictor interface {
	Predict(ctx context.Context, row features.Row) (inference.Result, error)
}

// Deps is everything a Server needs. It is fixed at construction.
type Deps struct {
	Predictor      Predictor
	Mapper         *features.Mapper
	ModelInfo      model.Info
	Logger         zerolog.Logger
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RateLimitPerIP int // per minute; 0 disables
}

type Server struct {
	predictor      Predictor
	mapper         *features.Mapper
	modelInfo      model.Info
	logger         zerolog.Logger
	requestTimeout time.Duration
	maxBodyBytes   int64
	rateLimitPerIP int
}

func NewServer(d Deps) *Server {
	s := &Server{
		predictor:      d.Predictor,
		mapper:         d.Mapper,
		modelInfo:      d.ModelInfo,
		logger:         d.Logger,
		requestTimeout: d.RequestTimeout,
		maxBodyBytes:   d.MaxBodyBytes,
		rateLimitPerIP: d.RateLimitPerIP,
	}
	if s.mapper == nil {
		s.mapper = features.NewMapper(features.Options{})
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = 5 * time.Second
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = 64 * 1024
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger), requestIDLogger, accessLog)
	r.Use(telemetry.Middleware, recoverer, cors)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(RootMessage))
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// model metadata (ETag is the artifact checksum)
	r.Get("/v1/model", func(w http.ResponseWriter, req *http.Request) {
		etag := `"` + s.modelInfo.Checksum + `"`
		w.Header().Set("ETag", etag)
		if etagMatch(req.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		writeJSON(w, http.StatusOK, s.modelInfo)
	})

	r.Group(func(r chi.Router) {
		if s.rateLimitPerIP > 0 {
			r.Use(httprate.Limit(s.rateLimitPerIP, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(RateLimitedError),
			))
		}
		r.Post("/predict", s.handlePredict)
	})

	return r
}

// etagMatch applies the weak comparison If-None-Match calls for.
func etagMatch(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
