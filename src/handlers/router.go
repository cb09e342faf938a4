// src/handlers/router.go
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/username/sbiledger/src/logger"
	"github.com/username/sbiledger/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter wires the API surface onto a chi router.
func NewRouter(service services.ImportService) http.Handler {
	uploadHandler := NewUploadHandler(service)
	txHandler := NewTransactionHandler(service)
	healthHandler := NewHealthHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rateLimitMiddleware)

	r.Post("/parse", uploadHandler.HandleParse)
	r.Post("/parse-and-save", uploadHandler.HandleParseAndSave)
	r.Get("/transactions", txHandler.HandleGetTransactions)
	r.Get("/health", healthHandler.HandleHealth)

	return r
}
