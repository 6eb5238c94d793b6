package api

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"ledger-service/internal/ledger"
)

type Server struct {
	coordinator *ledger.TransactionCoordinator
	queries     *ledger.QueryService
	log         *logrus.Logger
}

func New(coordinator *ledger.TransactionCoordinator, queries *ledger.QueryService, log *logrus.Logger) *Server {
	return &Server{
		coordinator: coordinator,
		queries:     queries,
		log:         log,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)
	mux.HandleFunc("POST /transactions/topup", s.topUp)
	mux.HandleFunc("POST /transactions/bonus", s.bonus)
	mux.HandleFunc("POST /transactions/spend", s.spend)
	mux.HandleFunc("GET /users/{userId}/balance", s.getBalance)
	mux.HandleFunc("GET /users/{userId}/history", s.getHistory)
	mux.HandleFunc("GET /assets", s.listAssets)

	return s.logRequest(mux)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"uri":    r.URL.RequestURI(),
			"ip":     r.RemoteAddr,
		}).Debug("received request")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
