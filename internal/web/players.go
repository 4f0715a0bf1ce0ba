package web

import (
	"net/http"
	"puma/internal/back"
	"time"

	"gopkg.in/guregu/null.v4"
)

type playerRequest struct {
	DisplayName         string
	FirstName, LastName null.String

	// Rating is only used on creation.
	Rating null.Float
}

func (p playerRequest) input() back.PlayerInput {
	return back.PlayerInput{
		DisplayName: p.DisplayName,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
	}
}

func (s *Server) getPlayers(w http.ResponseWriter, _ *http.Request) {
	players, err := s.back.GetPlayers()
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, players)
}

func (s *Server) getOnePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	player, err := s.back.GetPlayer(id)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, player)
}

func (s *Server) getPlayerHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	history, err := s.back.GetRatingHistory(id)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, history)
}

func (s *Server) getPlayerRatingGraph(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	svg, err := s.back.GetPlayerRatingGraph(id)
	if err != nil {
		s.error(w, err)
		return
	}

	s.cache(w, "public", 5*time.Minute)
	s.svg(w, svg)
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := s.decode(w, r, &req); err != nil {
		s.error(w, err)
		return
	}

	player, err := s.back.CreatePlayer(req.input(), req.Rating)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusCreated, player)
}

func (s *Server) updatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	var req playerRequest
	if err := s.decode(w, r, &req); err != nil {
		s.error(w, err)
		return
	}

	player, err := s.back.UpdatePlayer(id, req.input())
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, player)
}

func (s *Server) deletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	if err := s.back.DeletePlayer(id); err != nil {
		s.error(w, err)
		return
	}

	noContent(w, r)
}

func (s *Server) setPlayerRating(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	var req struct {
		Rating float64
	}
	if err := s.decode(w, r, &req); err != nil {
		s.error(w, err)
		return
	}

	history, err := s.back.AdjustRating(id, req.Rating)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, history)
}

func (s *Server) importPlayers(w http.ResponseWriter, r *http.Request) {
	res, err := s.back.ImportPlayers(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, res)
}

func (s *Server) importRatings(w http.ResponseWriter, r *http.Request) {
	res, err := s.back.ImportRatings(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, res)
}
