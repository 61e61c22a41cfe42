package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/slipforge/payslip-app/internal/assets"
	"github.com/slipforge/payslip-app/internal/batch"
	"github.com/slipforge/payslip-app/internal/config"
	"github.com/slipforge/payslip-app/internal/handlers"
	"github.com/slipforge/payslip-app/internal/pdf"
	"github.com/slipforge/payslip-app/internal/ratelimit"
	"github.com/slipforge/payslip-app/internal/schema"
	"github.com/slipforge/payslip-app/internal/server"
	"github.com/slipforge/payslip-app/internal/services"
)

// App bundles the wired HTTP handler with the components that own background
// work, so main can shut them down.
type App struct {
	Handler http.Handler
	limiter *ratelimit.Limiter
}

// NewApp wires the full pipeline: materializer, renderer, orchestrator,
// handlers and router.
func NewApp(dbConn *gorm.DB, cfg config.Config) *App {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if cfg.Env == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	}

	materializer := assets.New(cfg.FetchTimeout, logger)
	renderer := pdf.NewEngine(cfg.RenderTimeout, logger)
	audit := services.NewAuditRecorder(dbConn, logger)

	batchAudit := func(ctx context.Context, count int, paper schema.PaperSize, orientation schema.Orientation) {
		audit.Record(ctx, "", "batch_export", "Batch", "",
			fmt.Sprintf("records=%d paper=%s orientation=%s", count, paper, orientation))
	}
	orch := batch.New(renderer, materializer, cfg.BatchWorkers, batchAudit, logger)

	limiter := ratelimit.New(cfg.RateLimit, cfg.RateLimitWindow, nil)
	limiter.Start(cfg.RateLimitWindow)

	exportHandler := handlers.NewExportHandler(renderer, materializer, orch, audit, logger)
	sendHandler := handlers.NewSendHandler(renderer, materializer, &services.LogMailer{Log: logger}, audit, logger)
	excelHandler := handlers.NewExcelHandler(logger)
	templateHandler := handlers.NewTemplateHandler(dbConn, services.NewTemplateService(dbConn))

	h := server.New(server.Deps{
		DB:       dbConn,
		Export:   exportHandler,
		Send:     sendHandler,
		Excel:    excelHandler,
		Template: templateHandler,
		Limiter:  limiter,
		Log:      logger,
	})
	return &App{Handler: h, limiter: limiter}
}

// Close stops background work owned by the app.
func (a *App) Close() {
	a.limiter.Stop()
}
