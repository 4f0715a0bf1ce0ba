package back

import (
	"fmt"
	"log"
	"math/rand"
	"puma/internal/balance"
	"puma/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

// MatchRequest holds the parameters of a match to create from the pool.
type MatchRequest struct {
	Kind   balance.Kind
	Method balance.Method
	Window RankWindow
}

// CreateMatch pairs players from the available pool, records the match and
// removes its players from the pool. Nothing is written if pairing fails.
func (b *Back) CreateMatch(req MatchRequest, rnd *rand.Rand) (match MatchWithPlayers, _ error) {
	start := time.Now()

	var imbalance float64
	if err := b.transaction(func(tx *sqlx.Tx) error {
		players, err := getAvailablePlayers(tx, req.Window)
		if err != nil {
			return err
		}

		if len(players) < req.Kind.MinPlayers() {
			return util.ErrPublic(fmt.Sprintf(
				"not enough available players for a %s match, need %d and got %d",
				req.Kind, req.Kind.MinPlayers(), len(players),
			))
		}

		if usesExhaustiveSearch(req) {
			combinations := balance.Combinations(len(players), req.Kind.TeamSize())
			if combinations > b.maxOptimalCombinations() {
				return util.ErrPublic(fmt.Sprintf(
					"too many available players (%d) for an exhaustive search, it would try %d teams and the limit is %d: narrow the rank window",
					len(players), combinations, b.maxOptimalCombinations(),
				))
			}
		}

		roster := toRoster(players)
		pairing, err := balance.Pick(req.Kind, req.Method, roster, rnd)
		if err != nil {
			return err
		}

		if imbalance, err = balance.Imbalance(roster, pairing); err != nil {
			return err
		}

		m := NewMatch(req.Kind, req.Method, pairing)
		if err := m.insert(tx); err != nil {
			return fmt.Errorf("unable to insert match: %w", err)
		}

		if err := removeAvailable(tx, pairing.IDs()); err != nil {
			return fmt.Errorf("unable to remove players from pool: %w", err)
		}

		resolved, err := resolveMatches(tx, []Match{m})
		if err != nil {
			return err
		}
		match = resolved[0]

		return nil
	}); err != nil {
		return MatchWithPlayers{}, err
	}

	matchesCreated.WithLabelValues(req.Kind.String(), req.Method.String()).Inc()
	log.Printf(
		"info: created %s match #%d (%s, imbalance %s) in %s",
		match.Kind, match.ID, match.Method, util.Rating(imbalance), time.Since(start),
	)

	return match, nil
}

// usesExhaustiveSearch returns true if the request goes through
// balance.Optimal, which has to be bounded.
func usesExhaustiveSearch(req MatchRequest) bool {
	return req.Kind == balance.KindSingles || req.Method == balance.MethodOptimal
}

func toRoster(players []RatedPlayer) balance.Roster {
	return lo.Map(players, func(p RatedPlayer, _ int) balance.Entry {
		return balance.Entry{PlayerID: p.ID, Rating: p.Rating}
	})
}

// ReturnPlayers puts the players of a match back in the available pool.
func (b *Back) ReturnPlayers(matchID int64) (players []int64, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		match, err := getMatchByID(tx, matchID)
		if err != nil {
			return err
		}

		players = match.PlayerIDs()

		return addAvailable(tx, players)
	}); err != nil {
		return nil, err
	}

	return players, nil
}
