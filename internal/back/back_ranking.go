package back

import (
	"fmt"
	"log"
	"puma/internal/elo"
	"puma/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
	glicko "github.com/zelenin/go-glicko2"
)

// RecordScore stores the score of a match. If the score designates a winner
// the outcome is applied to the ratings of every player of the match in the
// same transaction and the match is frozen. A drawn score is stored but
// leaves ratings untouched and can be amended.
func (b *Back) RecordScore(matchID int64, sets []Set) (match MatchWithPlayers, history []RatingHistory, _ error) {
	if err := validateSets(sets); err != nil {
		return MatchWithPlayers{}, nil, err
	}

	if err := b.transaction(func(tx *sqlx.Tx) error {
		m, err := getMatchByID(tx, matchID)
		if err != nil {
			return err
		}

		if m.IsRated() {
			return util.ErrPublic(fmt.Sprintf("match #%d was rated already, its score cannot be changed", m.ID))
		}

		m.setSets(sets)
		now := time.Now()

		if m.Winner() != SideNone {
			history, err = rateMatch(tx, m, now)
			if err != nil {
				return err
			}

			m.RatedAt = util.NewNullTimeAsTimestamp(now)
		}

		if err := m.updateScore(tx); err != nil {
			return err
		}

		resolved, err := resolveMatches(tx, []Match{m})
		if err != nil {
			return err
		}
		match = resolved[0]

		return nil
	}); err != nil {
		return MatchWithPlayers{}, nil, err
	}

	if match.IsRated() {
		matchesRated.Inc()
		ratingWrites.WithLabelValues("match").Add(float64(len(history)))
	}

	return match, history, nil
}

// rateMatch applies the outcome of a decided match to the current ratings.
// Deleted players are ignored, a side left without players makes the match
// unratable.
func rateMatch(tx *sqlx.Tx, m Match, now time.Time) ([]RatingHistory, error) {
	side1, side2 := m.Side(Side1), m.Side(Side2)
	if len(side1) == 0 || len(side2) == 0 {
		return nil, util.ErrPublic(fmt.Sprintf("match #%d lost all the players of one side, it cannot be rated", m.ID))
	}

	ratings1, err := getCurrentRatings(tx, side1)
	if err != nil {
		return nil, err
	}
	ratings2, err := getCurrentRatings(tx, side2)
	if err != nil {
		return nil, err
	}

	side1Won := m.Winner() == Side1
	new1, new2, err := elo.UpdateTeams(ratings1, ratings2, side1Won)
	if err != nil {
		return nil, fmt.Errorf("unable to compute ratings for match #%d: %w", m.ID, err)
	}

	sets1, sets2 := m.SetsWon()
	history := make([]RatingHistory, 0, len(side1)+len(side2))
	write := func(ids []int64, ratings []float64, won bool, setsFor, setsAgainst int) error {
		for k, id := range ids {
			h, err := setRating(tx, id, ratings[k], reasonMatch(m.ID, won, setsFor, setsAgainst), now)
			if err != nil {
				return err
			}
			history = append(history, h)
		}
		return nil
	}

	if err := write(side1, new1, side1Won, sets1, sets2); err != nil {
		return nil, err
	}
	if err := write(side2, new2, !side1Won, sets2, sets1); err != nil {
		return nil, err
	}

	log.Printf("info: rated match #%d, %d ratings updated", m.ID, len(history))

	return history, nil
}

// getCurrentRatings returns the ratings of the given players in order,
// unrated players get the default rating.
func getCurrentRatings(tx *sqlx.Tx, ids []int64) ([]float64, error) {
	ret := make([]float64, len(ids))
	for k, id := range ids {
		rating, err := getPlayerRating(tx, id)
		if err != nil {
			return nil, err
		}

		ret[k] = rating.Float64
		if !rating.Valid {
			ret[k] = elo.DefaultRating
		}
	}

	return ret, nil
}

// Prediction is the expected outcome of a match between two teams.
type Prediction struct {
	Side1, Side2 []int64

	// Side1WinProbability is the expected score of side 1 against side 2.
	Side1WinProbability float64

	// Ratings deltas applied to each side on a side 1 win or loss.
	Side1WinDeltas, Side1LossDeltas TeamDeltas
}

// TeamDeltas holds the rating change of each player of both sides, in the
// order of the sides.
type TeamDeltas struct {
	Side1, Side2 []float64
}

// PredictTeams computes the odds of two arbitrary teams of players.
func (b *Back) PredictTeams(side1, side2 []int64) (p Prediction, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		for _, id := range append(append([]int64{}, side1...), side2...) {
			if _, err := getPlayerByID(tx, id); err != nil {
				return err
			}
		}

		p, err = predict(tx, side1, side2)
		return err
	}); err != nil {
		return Prediction{}, err
	}

	return p, nil
}

// PredictMatch computes the odds of an existing match.
func (b *Back) PredictMatch(matchID int64) (p Prediction, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		m, err := getMatchByID(tx, matchID)
		if err != nil {
			return err
		}

		p, err = predict(tx, m.Side(Side1), m.Side(Side2))
		return err
	}); err != nil {
		return Prediction{}, err
	}

	return p, nil
}

func predict(tx *sqlx.Tx, side1, side2 []int64) (Prediction, error) {
	if len(side1) == 0 || len(side2) == 0 {
		return Prediction{}, util.ErrPublic("both sides need at least one player")
	}

	ratings1, err := getCurrentRatings(tx, side1)
	if err != nil {
		return Prediction{}, err
	}
	ratings2, err := getCurrentRatings(tx, side2)
	if err != nil {
		return Prediction{}, err
	}

	proba, err := elo.WinProbability(ratings1, ratings2)
	if err != nil {
		return Prediction{}, err
	}

	p := Prediction{Side1: side1, Side2: side2, Side1WinProbability: proba}
	for _, v := range []struct {
		won bool
		dst *TeamDeltas
	}{
		{true, &p.Side1WinDeltas},
		{false, &p.Side1LossDeltas},
	} {
		new1, new2, err := elo.UpdateTeams(ratings1, ratings2, v.won)
		if err != nil {
			return Prediction{}, err
		}
		v.dst.Side1 = deltas(ratings1, new1)
		v.dst.Side2 = deltas(ratings2, new2)
	}

	return p, nil
}

func deltas(before, after []float64) []float64 {
	ret := make([]float64, len(before))
	for k := range before {
		ret[k] = after[k] - before[k]
	}

	return ret
}

// computeDeviations replays every rated match in a single Glicko-2 period
// and returns the resulting rating deviation of each player. This is only an
// uncertainty indicator, Elo ratings stay the ratings of record.
func computeDeviations(matches []Match) map[int64]float64 {
	type result struct {
		p1, p2 *glicko.Player
		won    bool
	}

	glickoPlayers := map[int64]*glicko.Player{}
	getGlickoPlayer := func(playerID int64) *glicko.Player {
		p, ok := glickoPlayers[playerID]
		if !ok {
			p = glicko.NewPlayer(glicko.NewRating(
				glicko.RATING_BASE_R, glicko.RATING_BASE_RD, glicko.RATING_BASE_SIGMA,
			))
			glickoPlayers[playerID] = p
		}
		return p
	}

	// Team matches are decomposed in 1v1 results between opponents.
	var results []result
	for k := range matches {
		winner := matches[k].Winner()
		if winner == SideNone {
			continue
		}

		for _, id1 := range matches[k].Side(Side1) {
			for _, id2 := range matches[k].Side(Side2) {
				results = append(results, result{getGlickoPlayer(id1), getGlickoPlayer(id2), winner == Side1})
			}
		}
	}

	period := glicko.NewRatingPeriod()
	for k := range glickoPlayers {
		period.AddPlayer(glickoPlayers[k])
	}
	for _, v := range results {
		if v.won {
			period.AddMatch(v.p1, v.p2, glicko.MATCH_RESULT_WIN)
		} else {
			period.AddMatch(v.p1, v.p2, glicko.MATCH_RESULT_LOSS)
		}
	}

	start := time.Now()
	period.Calculate()
	log.Printf(
		"debug: replayed %d matches for %d players in %s",
		len(matches), len(glickoPlayers), time.Since(start),
	)

	ret := make(map[int64]float64, len(glickoPlayers))
	for id, p := range glickoPlayers {
		ret[id] = p.Rating().Rd()
	}

	return ret
}
