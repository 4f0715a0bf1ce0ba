package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"puma/internal/back"
	"puma/internal/config"
	"puma/internal/util"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize bounds JSON and CSV request bodies.
const maxBodySize = 1 << 20

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/", noContent)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/players", s.getPlayers)
		r.Get("/players/{id}", s.getOnePlayer)
		r.Get("/players/{id}/history", s.getPlayerHistory)
		r.Get("/players/{id}/ratings.svg", s.getPlayerRatingGraph)

		r.Get("/available", s.getAvailable)
		r.Get("/unavailable", s.getUnavailable)

		r.Get("/matches", s.getMatches)
		r.Get("/matches/{id}", s.getOneMatch)
		r.Get("/matches/{id}/predict", s.predictMatch)
		r.Get("/predict", s.predictTeams)

		r.Get("/leaderboard", s.getLeaderboard)
		r.Get("/stats", s.getStats)
		r.Get("/stats/ratings.svg", s.getRatingsGraph)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			r.Post("/players", s.createPlayer)
			r.Put("/players/{id}", s.updatePlayer)
			r.Delete("/players/{id}", s.deletePlayer)
			r.Put("/players/{id}/rating", s.setPlayerRating)

			r.Post("/import/players", s.importPlayers)
			r.Post("/import/ratings", s.importRatings)

			r.Post("/available/{id}/toggle", s.toggleAvailable)
			r.Post("/available", s.setAvailable(true))
			r.Delete("/available", s.setAvailable(false))
			r.Post("/available/save", s.saveAvailable)
			r.Post("/available/load", s.loadAvailable)

			r.Post("/matches", s.createMatch)
			r.Put("/matches/{id}/score", s.recordScore)
			r.Post("/matches/{id}/return", s.returnPlayers)
		})
	})

	return r
}

type Server struct {
	http   *http.Server
	back   *back.Back
	config *config.Config
}

func NewServer(back *back.Back, conf *config.Config) *Server {
	s := &Server{
		back:   back,
		config: conf,
	}

	s.http = &http.Server{
		Addr:         conf.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  10 * time.Second,
		Handler:      s.setupRouter(),
	}

	return s
}

// Handler returns the root handler of the server.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	log.Printf("info: starting HTTP server on %s", s.http.Addr)
	wg.Add(1)
	defer wg.Done()

	if !s.config.WritesEnabled() {
		log.Print("warning: no web token configured, the API is read-only")
	}

	go func() {
		err := s.http.ListenAndServe()
		if err == http.ErrServerClosed {
			log.Println("info: HTTP server closed")
			return
		}

		log.Fatalf("webserver crashed: %s", err)
	}()

	<-done
	if err := s.http.Close(); err != nil {
		log.Printf("warning: unable to close webserver: %s", err)
	}
}

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.config.CheckAPIToken(r.Header.Get("Authorization")); err != nil {
			s.error(w, err)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) response(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	response, err := json.Marshal(data)
	if err != nil {
		log.Printf("error: unable to marshal response: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(code)

	if _, err := w.Write(response); err != nil {
		log.Printf("error: unable to send response: %s", err)
	}
}

func (s *Server) svg(w http.ResponseWriter, svg []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write(svg); err != nil {
		log.Printf("error: unable to send response: %s", err)
	}
}

type errorResponse struct {
	Error string
}

// error sends the appropriate status for err. Only ErrPublic messages are
// sent to the client, anything unexpected is logged.
func (s *Server) error(w http.ResponseWriter, err error) {
	var public util.ErrPublic

	switch {
	case errors.As(err, &public):
		s.response(w, http.StatusBadRequest, errorResponse{public.Error()})
	case errors.Is(err, sql.ErrNoRows):
		s.response(w, http.StatusNotFound, errorResponse{"not found"})
	case errors.Is(err, config.ErrInvalidToken):
		s.response(w, http.StatusUnauthorized, errorResponse{err.Error()})
	case errors.Is(err, config.ErrWritesDisabled):
		s.response(w, http.StatusForbidden, errorResponse{err.Error()})
	default:
		log.Printf("error: %s", err)
		s.response(w, http.StatusInternalServerError, errorResponse{http.StatusText(http.StatusInternalServerError)})
	}
}

func (s *Server) cache(w http.ResponseWriter, scope string, d time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("%s,max-age=%d", scope, d/time.Second))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return util.ErrPublic(fmt.Sprintf("invalid JSON body: %s", err))
	}

	return nil
}

func idParam(r *http.Request) (int64, error) {
	str := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, util.ErrPublic(fmt.Sprintf("invalid ID `%s`", str))
	}

	return id, nil
}
