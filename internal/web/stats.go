package web

import (
	"net/http"
	"time"
)

func (s *Server) getLeaderboard(w http.ResponseWriter, _ *http.Request) {
	leaderboard, err := s.back.GetLeaderboard()
	if err != nil {
		s.error(w, err)
		return
	}

	s.cache(w, "public", 1*time.Minute)
	s.response(w, http.StatusOK, leaderboard)
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.back.GetStats()
	if err != nil {
		s.error(w, err)
		return
	}

	s.cache(w, "public", 1*time.Minute)
	s.response(w, http.StatusOK, stats)
}

func (s *Server) getRatingsGraph(w http.ResponseWriter, _ *http.Request) {
	svg, err := s.back.GetRatingsDistributionGraph()
	if err != nil {
		s.error(w, err)
		return
	}

	s.cache(w, "public", 5*time.Minute)
	s.svg(w, svg)
}
