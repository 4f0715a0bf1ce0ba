package web

import (
	"fmt"
	"net/http"
	"puma/internal/back"
	"puma/internal/balance"
	"puma/internal/util"
	"strconv"
	"strings"
)

func (s *Server) getMatches(w http.ResponseWriter, r *http.Request) {
	var limit int
	if str := r.URL.Query().Get("limit"); str != "" {
		n, err := strconv.Atoi(str)
		if err != nil {
			s.error(w, util.ErrPublic(fmt.Sprintf("invalid limit `%s`", str)))
			return
		}
		limit = n
	}

	matches, err := s.back.GetMatches(limit)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, matches)
}

func (s *Server) getOneMatch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	match, err := s.back.GetMatch(id)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, match)
}

type matchRequest struct {
	Kind             balance.Kind
	Method           balance.Method
	MinRank, MaxRank int
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	req := matchRequest{Kind: balance.KindDoubles, Method: balance.MethodOptimal}
	if err := s.decode(w, r, &req); err != nil {
		s.error(w, err)
		return
	}

	match, err := s.back.CreateMatch(back.MatchRequest{
		Kind:   req.Kind,
		Method: req.Method,
		Window: back.RankWindow{Min: req.MinRank, Max: req.MaxRank},
	}, nil)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusCreated, match)
}

func (s *Server) recordScore(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	var req struct {
		Sets []back.Set
	}
	if err := s.decode(w, r, &req); err != nil {
		s.error(w, err)
		return
	}

	match, history, err := s.back.RecordScore(id, req.Sets)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, struct {
		Match   back.MatchWithPlayers
		History []back.RatingHistory
	}{match, history})
}

func (s *Server) returnPlayers(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	players, err := s.back.ReturnPlayers(id)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, struct {
		PlayerIDs []int64
	}{players})
}

func (s *Server) predictMatch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, err)
		return
	}

	prediction, err := s.back.PredictMatch(id)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, prediction)
}

// predictTeams computes the odds of arbitrary teams given as ?a=1,2&b=3,4
func (s *Server) predictTeams(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	side1, err := parseIDList(q.Get("a"))
	if err != nil {
		s.error(w, err)
		return
	}
	side2, err := parseIDList(q.Get("b"))
	if err != nil {
		s.error(w, err)
		return
	}

	prediction, err := s.back.PredictTeams(side1, side2)
	if err != nil {
		s.error(w, err)
		return
	}

	s.response(w, http.StatusOK, prediction)
}

func parseIDList(str string) ([]int64, error) {
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}

	parts := strings.Split(str, ",")
	ret := make([]int64, 0, len(parts))
	for _, v := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, util.ErrPublic(fmt.Sprintf("invalid ID `%s`", v))
		}
		ret = append(ret, id)
	}

	return ret, nil
}
