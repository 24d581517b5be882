package router

import (
	"context"
	"net/http"
	"time"

	redisstore "github.com/Teek0505/TransMedix/internal/adapters/cache/redis"
	"github.com/Teek0505/TransMedix/internal/adapters/nlg/gemini"
	"github.com/Teek0505/TransMedix/internal/adapters/speech/voxcribe"
	mem "github.com/Teek0505/TransMedix/internal/adapters/storage/memory"
	"github.com/Teek0505/TransMedix/internal/adapters/storage/mongodb"
	"github.com/Teek0505/TransMedix/internal/config"
	"github.com/Teek0505/TransMedix/internal/domain/patients"
	"github.com/Teek0505/TransMedix/internal/domain/reference"
	"github.com/Teek0505/TransMedix/internal/domain/sessions"
	"github.com/Teek0505/TransMedix/internal/domain/summaries"
	"github.com/Teek0505/TransMedix/internal/domain/transcriptions"
	"github.com/Teek0505/TransMedix/internal/middleware"
	"github.com/Teek0505/TransMedix/internal/platform/logger"
	"github.com/Teek0505/TransMedix/internal/ports/auth"
	"github.com/Teek0505/TransMedix/internal/ports/nlg"
	"github.com/Teek0505/TransMedix/internal/ports/speech"
	"github.com/Teek0505/TransMedix/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
)

type Options struct {
	Cfg          *config.Config
	AuthVerifier auth.Verifier // puede ser nil (modo dev)
	Log          logger.Logger

	// Opcionales: si vienen, se usan en vez de construir desde Cfg.
	// Los tests inyectan fakes por acá.
	DB         *mongo.Database
	Cache      *redisstore.Store
	Recognizer speech.Recognizer
	Generator  nlg.Generator
}

// App agrupa el router y los services ya cableados.
// Los tests usan los services para esperar jobs en vuelo.
type App struct {
	Router http.Handler

	Patients       *patients.Service
	Sessions       *sessions.Service
	Transcriptions *transcriptions.Service
	Summaries      *summaries.Service
	Reference      *reference.Service
	Hub            *ws.Hub
}

func NewRouter(opts Options) http.Handler {
	return Build(opts).Router
}

func Build(opts Options) *App {
	cfg := opts.Cfg
	if cfg == nil {
		cfg, _ = config.Load("")
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Debug-User-ID"},
		AllowCredentials: true,
	}).Handler)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Repos: mongo si hay URI, in-memory si no (modo dev / tests).
	var (
		patientRepo       patients.Repository
		sessionRepo       sessions.Repository
		transcriptionRepo transcriptions.Repository
		summaryRepo       summaries.Repository
		referenceRepo     reference.Repository
	)

	db := opts.DB
	if db == nil && cfg.Mongo.URI != "" {
		opened, err := mongodb.Open(cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Error("mongo connect failed, falling back to memory", map[string]any{"err": logger.Err(err)})
		} else {
			db = opened
		}
	}

	if db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			log.Warn("ensure indexes", map[string]any{"err": logger.Err(err)})
		}
		cancel()

		patientRepo = mongodb.NewPatientsRepo(db)
		sessionRepo = mongodb.NewSessionsRepo(db)
		transcriptionRepo = mongodb.NewTranscriptionsRepo(db)
		summaryRepo = mongodb.NewSummariesRepo(db)
		referenceRepo = mongodb.NewReferenceRepo(db)
	} else {
		patientRepo = mem.NewPatientRepo()
		sessionRepo = mem.NewSessionRepo()
		transcriptionRepo = mem.NewTranscriptionRepo()
		summaryRepo = mem.NewSummaryRepo()
		referenceRepo = mem.NewReferenceRepo()
	}

	// Redis: cache de lookups + locks de generación. Sin addr degrada a no-op.
	cache := opts.Cache
	if cache == nil {
		opened, err := redisstore.Open(context.Background(), redisstore.Config{Addr: cfg.Redis.Addr})
		if err != nil {
			log.Warn("redis connect failed, running degraded", map[string]any{"err": logger.Err(err)})
			opened, _ = redisstore.Open(context.Background(), redisstore.Config{})
		}
		cache = opened
	}

	// Adapters externos. Sin credenciales fallan explícito al usarse.
	rec := opts.Recognizer
	if rec == nil {
		client, err := voxcribe.NewClient(voxcribe.Config{
			BaseURL: cfg.Speech.BaseURL,
			APIKey:  cfg.Speech.APIKey,
		})
		if err != nil {
			log.Warn("voxcribe client", map[string]any{"err": logger.Err(err)})
			client, _ = voxcribe.NewClient(voxcribe.Config{})
		}
		rec = voxcribe.NewRecognizer(client)
	}

	gen := opts.Generator
	if gen == nil {
		gen = gemini.New(cfg.Gemini.APIKeys, cfg.Gemini.Model, log)
	}

	hub := ws.NewHub(log)

	// Services por módulo
	patientsSvc := patients.NewService(patientRepo)
	sessionsSvc := sessions.NewService(sessionRepo, cfg.Speech.DefaultLanguage)
	transcriptionsSvc := transcriptions.NewService(transcriptionRepo, rec, hub, log)
	summariesSvc := summaries.NewService(summaryRepo, transcriptionsSvc, gen, hub, cache, log)
	referenceSvc := reference.NewService(referenceRepo, cache)

	if err := referenceSvc.SeedIfEmpty(context.Background()); err != nil {
		log.Warn("seed reference data", map[string]any{"err": logger.Err(err)})
	}

	// Rutas por módulo
	patients.RegisterRoutes(r, patientsSvc)
	sessions.RegisterRoutes(r, sessionsSvc, patientsSvc, transcriptionsSvc, summariesSvc)
	transcriptions.RegisterRoutes(r, transcriptionsSvc, sessionsSvc, cfg.Limits.MaxUploadBytes)
	summaries.RegisterRoutes(r, summariesSvc, sessionsSvc)
	reference.RegisterRoutes(r, referenceSvc)

	ws.NewHandler(hub, sessionsSvc, rec, cfg.HTTP.AllowedOrigins, log).RegisterRoutes(r)

	return &App{
		Router:         r,
		Patients:       patientsSvc,
		Sessions:       sessionsSvc,
		Transcriptions: transcriptionsSvc,
		Summaries:      summariesSvc,
		Reference:      referenceSvc,
		Hub:            hub,
	}
}
