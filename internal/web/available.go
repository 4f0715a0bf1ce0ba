package web

import (
	"fmt"
	"net/http"
	"puma/internal/back"
	"puma/internal/util"
	"strconv"
)

// rankWindowFromQuery reads the optional minRank and maxRank parameters.
func rankWindowFromQuery(r *http.Request) (back.RankWindow, error) {
	var (
		window back.RankWindow
		q      = r.URL.Query()
	)

	for _, v := range []struct {
		name string
		dst  *int
	}{
		{"minRank", &window.Min},
		{"maxRank", &window.Max},
	} {
		str := q.Get(v.name)
		if str == "" {
			continue
		}

		n, err := strconv.Atoi(str)
		if err != nil {
			return back.RankWindow{}, util.ErrPublic(fmt.Sprintf("invalid %s `%s`", v.name, str))
		}
		*v.dst = n
	}

	return window, nil
}

func (s *Server) getAvailable(w http.ResponseWriter, r *http.Request) {
	window, err := rankWindowFromQuery(r)
	if err != nil {
		s.error(w, err)
		return
	}

	players, err := s.back.GetAvailablePlayers(window)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, players)
}

func (s *Server) getUnavailable(w http.ResponseWriter, _ *http.Request) {
	players, err := s.back.GetUnavailablePlayers()
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, players)
}

func (s *Server) toggleAvailable(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	available, err := s.back.ToggleAvailable(id)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, struct {
		PlayerID  int64
		Available bool
	}{id, available})
}

func (s *Server) setAvailable(available bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerIDs []int64
		}
		if err := s.decode(w, r, &req); err != nil {
			s.error(w, err)
			return
		}

		if err := s.back.SetAvailable(req.PlayerIDs, available); err != nil {
			s.error(w, err)
			return
		}

		noContent(w, r)
	}
}

func (s *Server) saveAvailable(w http.ResponseWriter, r *http.Request) {
	if err := s.back.SaveAvailable(); err != nil {
		s.error(w, err)
		return
	}

	noContent(w, r)
}

func (s *Server) loadAvailable(w http.ResponseWriter, r *http.Request) {
	if err := s.back.LoadAvailable(); err != nil {
		s.error(w, err)
		return
	}

	noContent(w, r)
}
