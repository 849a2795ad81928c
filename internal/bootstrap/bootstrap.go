// Package bootstrap wires the audit engine's components together for the
// httpd entrypoint.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/audit-engine/internal/api"
	"github.com/jonesrussell/audit-engine/internal/capture"
	"github.com/jonesrussell/audit-engine/internal/config"
	"github.com/jonesrussell/audit-engine/internal/ginserver"
	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/mailer"
	"github.com/jonesrussell/audit-engine/internal/metrics"
	"github.com/jonesrussell/audit-engine/internal/modelclient"
	"github.com/jonesrussell/audit-engine/internal/orchestrator"
	"github.com/jonesrussell/audit-engine/internal/pdfclient"
	"github.com/jonesrussell/audit-engine/internal/processor"
	"github.com/jonesrussell/audit-engine/internal/render"
	"github.com/jonesrussell/audit-engine/internal/storage"
)

// healthTimeout bounds each individual health probe.
const healthTimeout = 5 * time.Second

// Components holds everything the entrypoint needs to run and shut down.
type Components struct {
	Config    *config.Config
	Log       logging.Logger
	Redis     *redis.Client
	Server    *ginserver.Server
	Processor *processor.Processor
}

// LoadConfig loads configuration, falling back to defaults when no file
// exists.
func LoadConfig() (*config.Config, error) {
	path := config.GetConfigPath("config.yml")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the service logger from config.
func NewLogger(cfg *config.Config) (logging.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// Build wires every component. The caller owns Start/Shutdown.
func Build(cfg *config.Config, logger logging.Logger) (*Components, error) {
	if cfg.Models.Synthesis.APIKey == "" {
		return nil, fmt.Errorf("SYNTHESIS_API_KEY is required: the synthesis model is the only mandatory collaborator")
	}
	if cfg.Models.Research.APIKey == "" {
		logger.Warn("RESEARCH_API_KEY not set: every audit will run the fallback path")
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Service.Debug {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required outside debug mode: admin routes must not run unprotected")
	}

	rdb, err := storage.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	allocator := storage.NewAuditIDAllocator(rdb)
	assets := storage.NewCaptureAssetStore(rdb)
	jobs := storage.NewJobStore(rdb)
	m := metrics.New()

	researchClient := modelclient.New("research", modelclient.Config{
		Endpoint: cfg.Models.Research.Endpoint,
		Model:    cfg.Models.Research.Model,
		Timeout:  cfg.Models.Research.Timeout,
	}, m, logger)
	synthesisClient := modelclient.New("synthesis", modelclient.Config{
		Endpoint: cfg.Models.Synthesis.Endpoint,
		Model:    cfg.Models.Synthesis.Model,
		Timeout:  cfg.Models.Synthesis.Timeout,
	}, m, logger)

	var dispatcher *capture.Dispatcher
	if cfg.Capture.WorkerURL != "" {
		dispatcher = capture.NewDispatcher(cfg.Capture, assets, m, logger)
	}

	// A nil interface, not a nil *Dispatcher, when capture is off.
	var orchDispatcher orchestrator.CaptureDispatcher
	if dispatcher != nil {
		orchDispatcher = dispatcher
	}
	orch := orchestrator.New(researchClient, synthesisClient, allocator, orchDispatcher, logger)

	renderer := render.New()
	pdf := pdfclient.New(cfg.PDF, logger)

	var mail mailer.Mailer
	smtpMailer := mailer.New(cfg.Mail, logger)
	if smtpMailer.Configured() {
		mail = smtpMailer
	} else {
		logger.Warn("SMTP not configured: reports are API-only, no email delivery")
	}

	deliverer := processor.NewReportDeliverer(renderer, pdf, mail, assets, logger)
	proc := processor.New(cfg.Service, cfg.Models, orch, jobs, deliverer, m, logger)

	var apiDispatcher api.Dispatcher
	if dispatcher != nil {
		apiDispatcher = dispatcher
	}
	handler := api.NewHandler(proc, jobs, assets, apiDispatcher, renderer, logger)

	server := ginserver.New(
		&ginserver.Config{
			Port:           cfg.Service.Port,
			Debug:          cfg.Service.Debug,
			ServiceName:    cfg.Service.Name,
			ServiceVersion: cfg.Service.Version,
		},
		logger,
		func(router *gin.Engine) {
			router.Use(m.Middleware())
			router.GET("/metrics", m.Handler())
			api.RegisterRoutes(router, handler, cfg.Auth.JWTSecret)
		},
		healthChecks(rdb, researchClient, synthesisClient),
	)

	return &Components{
		Config:    cfg,
		Log:       logger,
		Redis:     rdb,
		Server:    server,
		Processor: proc,
	}, nil
}

// healthChecks builds the /health checker set. Redis is critical; the model
// endpoints only degrade since the queue can hold audits through an outage.
func healthChecks(rdb *redis.Client, research, synthesis *modelclient.Client) map[string]ginserver.HealthChecker {
	ping := func(fn func(ctx context.Context) error) func() error {
		return func() error {
			ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
			defer cancel()
			return fn(ctx)
		}
	}

	return map[string]ginserver.HealthChecker{
		"redis": ginserver.PingHealthChecker(ping(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}), true),
		"research_model": ginserver.PingHealthChecker(ping(research.Healthy), false),
		"synthesis_model": ginserver.PingHealthChecker(ping(synthesis.Healthy), false),
	}
}
