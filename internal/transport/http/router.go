package http

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/app"
)

// NewRouter wires every REST and WebSocket route of the quiz engine.
// Team and admin identities come from the auth gateway as request headers.
func NewRouter(service *app.QuizService, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger)

	quiz := NewQuizHandler(service)
	admin := NewAdminHandler(service)
	ws := NewWSHandler(service)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/quiz/info", quiz.Info).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", quiz.Leaderboard).Methods(http.MethodGet)

	team := api.PathPrefix("/quiz").Subrouter()
	team.Use(requireTeam)
	team.HandleFunc("/start", quiz.Start).Methods(http.MethodGet)
	team.HandleFunc("/attempt", quiz.Attempt).Methods(http.MethodPost)
	team.HandleFunc("/hint", quiz.Hint).Methods(http.MethodPost)
	team.HandleFunc("/submit", quiz.Submit).Methods(http.MethodPost)
	team.HandleFunc("/violation", quiz.Violation).Methods(http.MethodPost)

	adminRoutes := api.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(requireAdmin)
	adminRoutes.HandleFunc("/window", admin.GetWindow).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/window", admin.SetWindow).Methods(http.MethodPut)
	adminRoutes.HandleFunc("/results", admin.Results).Methods(http.MethodGet)

	r.HandleFunc("/ws/leaderboard", ws.ServeLeaderboard).Methods(http.MethodGet)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", teamHeader, roleHeader},
	})
	return c.Handler(r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
