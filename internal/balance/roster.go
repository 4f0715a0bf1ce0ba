// Package balance splits a pool of rated players into two opposing teams.
//
// All functions are pure: they never mutate the given Roster and share no
// state besides the package-level random source used by Random when no
// source is given.
package balance

import (
	"errors"
	"fmt"
	"math"
	"puma/internal/elo"

	"gopkg.in/guregu/null.v4"
)

// ErrInsufficientPlayers means the pool is too small for the requested
// pairing method. No teams are produced.
var ErrInsufficientPlayers = errors.New("insufficient players")

// An Entry is a player available for pairing, unrated players have an
// invalid Rating.
type Entry struct {
	PlayerID int64
	Rating   null.Float
}

// A Roster is a set of entries with unique player IDs. Its order matters
// for tie-breaking: every deterministic method resolves ties in pool order.
type Roster []Entry

// A Pairing holds the player IDs of two disjoint teams. Order within a team
// carries no meaning.
type Pairing struct {
	A []int64
	B []int64
}

// IDs returns the IDs of both teams, A first.
func (p Pairing) IDs() []int64 {
	ret := make([]int64, 0, len(p.A)+len(p.B))
	ret = append(ret, p.A...)
	return append(ret, p.B...)
}

type rated struct {
	id     int64
	rating float64
}

// normalize validates a roster and injects the default rating for unrated
// players. This is the only place where missing ratings are handled.
func normalize(pool Roster) ([]rated, error) {
	seen := make(map[int64]struct{}, len(pool))
	ret := make([]rated, len(pool))

	for k, v := range pool {
		if _, ok := seen[v.PlayerID]; ok {
			return nil, fmt.Errorf("%w: duplicate player %d in roster", elo.ErrInvalidArgument, v.PlayerID)
		}
		seen[v.PlayerID] = struct{}{}

		rating := elo.DefaultRating
		if v.Rating.Valid {
			rating = v.Rating.Float64
		}

		if math.IsNaN(rating) || math.IsInf(rating, 0) {
			return nil, fmt.Errorf("%w: player %d has a non-finite rating", elo.ErrInvalidArgument, v.PlayerID)
		}

		ret[k] = rated{id: v.PlayerID, rating: rating}
	}

	return ret, nil
}

func requirePlayers(pool Roster, min int) error {
	if len(pool) < min {
		return fmt.Errorf("%w: need at least %d players, got %d", ErrInsufficientPlayers, min, len(pool))
	}

	return nil
}

func ids(players []rated) []int64 {
	ret := make([]int64, len(players))
	for k := range players {
		ret[k] = players[k].id
	}

	return ret
}

// Imbalance returns |sum(A) - sum(B)| of a pairing, using the ratings found
// in pool.
func Imbalance(pool Roster, p Pairing) (float64, error) {
	players, err := normalize(pool)
	if err != nil {
		return 0, err
	}

	byID := make(map[int64]float64, len(players))
	for _, v := range players {
		byID[v.id] = v.rating
	}

	sum := func(team []int64) (float64, error) {
		var ret float64
		for _, id := range team {
			rating, ok := byID[id]
			if !ok {
				return 0, fmt.Errorf("%w: player %d is not in the pool", elo.ErrInvalidArgument, id)
			}
			ret += rating
		}
		return ret, nil
	}

	a, err := sum(p.A)
	if err != nil {
		return 0, err
	}
	b, err := sum(p.B)
	if err != nil {
		return 0, err
	}

	return math.Abs(a - b), nil
}
