package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter wires every route. Routes under /accounts/me and /transactions
// require a session token.
func NewRouter(b Bank, sessions *Sessions, allowedOrigins []string, logger *zap.Logger) http.Handler {
	accountHandler := NewAccountHandler(b, sessions, logger)
	transactionHandler := NewTransactionHandler(b, logger)

	r := mux.NewRouter()
	r.Use(requestLogger(logger))
	r.HandleFunc("/accounts", accountHandler.CreateAccountHandler).Methods("POST")
	r.HandleFunc("/sessions", accountHandler.LoginHandler).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(RequireSession(b, sessions, logger))
	authed.HandleFunc("/accounts/me", accountHandler.CloseAccountHandler).Methods("DELETE")
	authed.HandleFunc("/accounts/me/balance", accountHandler.GetBalanceHandler).Methods("GET")
	authed.HandleFunc("/accounts/me/income", accountHandler.AddIncomeHandler).Methods("POST")
	authed.HandleFunc("/transactions", transactionHandler.CreateTransactionHandler).Methods("POST")

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})(r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			logger.Info("request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
