package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Teek0505/TransMedix/internal/config"
	"github.com/Teek0505/TransMedix/internal/platform/logger"
	"github.com/Teek0505/TransMedix/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	// .env es opcional; en producción las vars vienen del entorno.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog := logger.NewFrom(cfg.Logging.Level, cfg.Logging.Format, "transmedix-api")

	r := router.NewRouter(router.Options{
		Cfg:          cfg,
		AuthVerifier: nil, // sin verifier para modo dev (X-Debug-User-ID)
		Log:          appLog,
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
		// Sin WriteTimeout global: cortaría las conexiones WebSocket.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	appLog.Info("starting server", map[string]any{"addr": cfg.HTTP.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
