// launching the server, storage, diff engine and kafka events
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ds124wfegd/png-diff-server/config"
	"github.com/ds124wfegd/png-diff-server/internal/database"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/decoder"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/differ"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/fetcher"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/kafka"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/storage"
	"github.com/ds124wfegd/png-diff-server/internal/service"
	"github.com/ds124wfegd/png-diff-server/internal/transport"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// SetupLogging applies the configured level to the global logrus logger.
func SetupLogging(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.WithError(err).Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// NewHandler wires the diff pipeline behind the http routes. The returned
// service must be closed after the http server has stopped.
func NewHandler(cfg *config.Config, producer kafka.Producer) (http.Handler, service.DiffService, error) {
	diffEngine, err := differ.New(cfg.App.DiffMode)
	if err != nil {
		return nil, nil, err
	}

	fileStorage := storage.NewFileStorage(cfg.App.StaticDir)
	artifactRepo := database.NewArtifactRepository(fileStorage, strings.TrimPrefix(transport.AssetsRoute, "/"))
	diffService := service.NewDiffService(
		fetcher.NewFetcher(&http.Client{}),
		decoder.NewDecoder(),
		diffEngine,
		artifactRepo,
		producer,
		service.DiffServiceConfig{
			HostInfo: cfg.App.HostInfo,
			Mode:     cfg.App.DiffMode,
		},
	)
	diffHandler := transport.NewDiffHandler(diffService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	return transport.InitRoutes(diffHandler, transport.RouterConfig{
		StaticDir:      cfg.App.StaticDir,
		RequestTimeout: cfg.Server.RequestTimeout,
	}), diffService, nil
}

func NewServer(cfg *config.Config) {

	SetupLogging(cfg)

	if err := os.MkdirAll(cfg.App.StaticDir, 0755); err != nil {
		logrus.Fatalf("cannot create static dir %s: %s", cfg.App.StaticDir, err.Error())
	}

	producer := kafka.NewLogProducer()
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer producer.Close()

	handler, diffService, err := NewHandler(cfg, producer)
	if err != nil {
		logrus.Fatalf("cannot build handler: %s", err.Error())
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, handler); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":       cfg.Server.Addr(),
		"static_dir": cfg.App.StaticDir,
		"diff_mode":  cfg.App.DiffMode,
	}).Info("PNG diff server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	if err := diffService.Close(); err != nil {
		logrus.Errorf("error occured on diff service closing: %s", err.Error())
	}
}
