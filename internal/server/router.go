package server

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/slipforge/payslip-app/internal/handlers"
	"github.com/slipforge/payslip-app/internal/httpx"
	"github.com/slipforge/payslip-app/internal/ratelimit"
)

// Deps carries everything the router wires together.
type Deps struct {
	DB       *gorm.DB
	Export   *handlers.ExportHandler
	Send     *handlers.SendHandler
	Excel    *handlers.ExcelHandler
	Template *handlers.TemplateHandler
	Limiter  *ratelimit.Limiter
	Log      zerolog.Logger
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := d.DB.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Export endpoints are the expensive ones; they sit behind the limiter.
	mux.Handle("/export/pdf", post(limited(d.Limiter, d.Export.PDF)))
	mux.Handle("/export/batch", post(limited(d.Limiter, d.Export.Batch)))
	mux.Handle("/export/send", post(limited(d.Limiter, d.Send.Send)))

	mux.Handle("/excel/template", post(http.HandlerFunc(d.Excel.Template)))
	mux.Handle("/excel/upload", post(http.HandlerFunc(d.Excel.Upload)))

	mux.Handle("/templates", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			d.Template.List(w, r)
		case http.MethodPost:
			d.Template.Create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}))
	mux.HandleFunc("/templates/get", d.Template.Get)
	mux.HandleFunc("/templates/variables", d.Template.Variables)
	mux.Handle("/templates/update", post(http.HandlerFunc(d.Template.Update)))
	mux.Handle("/templates/delete", post(http.HandlerFunc(d.Template.Delete)))
	mux.Handle("/templates/duplicate", post(http.HandlerFunc(d.Template.Duplicate)))

	return withRecover(withLogging(mux, d.Log), d.Log)
}

func post(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limited applies the per-client fixed-window limiter, keyed on remote IP.
func limited(l *ratelimit.Limiter, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l != nil {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}
			if !l.Allow(key) {
				httpx.JSONError(w, http.StatusTooManyRequests, "rate_limited", nil)
				return
			}
		}
		next(w, r)
	})
}

func withLogging(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).Msg("request")
	})
}

func withRecover(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Str("path", r.URL.Path).Interface("panic", rec).Msg("handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
