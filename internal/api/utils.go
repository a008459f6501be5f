package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quote-desk-backend/internal/api/middleware"
	"quote-desk-backend/internal/queue"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (s *APIServer) corsConfig() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "OPTIONS", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "X-Requested-With", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}
}

// MakeHTTPHandleFunc runs f on the request queue behind CORS, access
// logging and the given auth middleware.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, authMiddleware ...middleware.Middleware) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		job := queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		}

		if err := s.requestQueueManager.EnqueueJob(job); err != nil {
			log.Printf("request queue: %v", err)
			WriteJSON(w, http.StatusServiceUnavailable, ApiError{Error: "Service unavailable"})
			return
		}

		if err := <-errc; err != nil {
			writeError(w, err)
		}
	}

	finalHandler := middleware.Chain(baseHandler, authMiddleware...)

	return middleware.Chain(finalHandler, middleware.CORS(s.corsConfig()), middleware.Logging())
}

func writeError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.ErrorLog != nil {
			log.Printf("http %d: %v", httpErr.StatusCode, httpErr.ErrorLog)
		}
		WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
		return
	}
	log.Printf("http 500: %v", err)
	WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
}
