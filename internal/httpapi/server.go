package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/service/cashbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/orderview"
)

const (
	maxBodyBytes   = 1 << 20
	requestTimeout = 30 * time.Second
)

// Handler обслуживает HTTP API бэк-офиса.
type Handler struct {
	view        *orderview.Service
	provisioner *cashbox.Provisioner
	logger      *log.Entry
	clock       func() time.Time
}

// NewHandler создаёт обработчик. provisioner может быть nil, тогда ручка касс отвечает 503.
func NewHandler(view *orderview.Service, provisioner *cashbox.Provisioner, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return &Handler{
		view:        view,
		provisioner: provisioner,
		logger:      logger,
		clock:       time.Now,
	}
}

// Routes возвращает chi-роутер со всеми маршрутами API.
func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(requestLogger(h.logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(requestTimeout))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/orders/{orderID}/items", h.getOrderItems)
		r.Post("/orders/{orderID}/lines", h.appendOrderLine)
		r.Post("/order-items/format", h.formatOrderItems)
		r.Post("/order-items/sizes-display", h.formatSizesDisplay)
		r.Post("/cashboxes/today", h.ensureTodayCashbox)
	})
	return router
}

// NewServer оборачивает роутер в http.Server с таймаутами.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry := logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(started).Milliseconds(),
				"request_id":  chimw.GetReqID(r.Context()),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("http request failed")
				return
			}
			entry.Debug("http request")
		})
	}
}
