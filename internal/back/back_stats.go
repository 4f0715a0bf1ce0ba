package back

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// recentResultsCount is the number of results returned by GetStats.
const recentResultsCount = 5

// LeaderboardEntry is a rated player with its rank and record.
type LeaderboardEntry struct {
	Rank        int
	PlayerID    int64
	DisplayName string
	Rating      float64

	// Deviation is the Glicko-2 rating deviation obtained by replaying every
	// rated match, invalid for players without any.
	Deviation null.Float

	Wins, Losses int
}

// GetLeaderboard returns every rated player, best first.
func (b *Back) GetLeaderboard() (leaderboard []LeaderboardEntry, _ error) {
	start := time.Now()
	defer func() { log.Printf("info: computed leaderboard in %s", time.Since(start)) }()

	if err := b.transaction(func(tx *sqlx.Tx) error {
		var players []struct {
			ID          int64
			DisplayName string
			Rating      float64
		}
		if err := tx.Select(&players, `
            SELECT Player.ID, Player.DisplayName, PlayerRating.Rating
            FROM PlayerRating
            INNER JOIN Player ON (Player.ID = PlayerRating.PlayerID)
            ORDER BY PlayerRating.Rating DESC, Player.DisplayName ASC`,
		); err != nil {
			return err
		}

		matches, err := getRatedMatches(tx)
		if err != nil {
			return err
		}

		wins, losses := countRecords(matches)
		deviations := computeDeviations(matches)

		leaderboard = make([]LeaderboardEntry, 0, len(players))
		for k, v := range players {
			entry := LeaderboardEntry{
				Rank:        k + 1,
				PlayerID:    v.ID,
				DisplayName: v.DisplayName,
				Rating:      v.Rating,
				Wins:        wins[v.ID],
				Losses:      losses[v.ID],
			}
			if rd, ok := deviations[v.ID]; ok {
				entry.Deviation = null.FloatFrom(rd)
			}

			leaderboard = append(leaderboard, entry)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return leaderboard, nil
}

func getRatedMatches(tx *sqlx.Tx) ([]Match, error) {
	var matches []Match
	if err := tx.Select(&matches, `SELECT * FROM Match WHERE RatedAt IS NOT NULL ORDER BY RatedAt ASC, ID ASC`); err != nil {
		return nil, err
	}

	return matches, nil
}

func countRecords(matches []Match) (wins, losses map[int64]int) {
	wins, losses = map[int64]int{}, map[int64]int{}
	for k := range matches {
		var winners, losers []int64
		switch matches[k].Winner() {
		case Side1:
			winners, losers = matches[k].Side(Side1), matches[k].Side(Side2)
		case Side2:
			winners, losers = matches[k].Side(Side2), matches[k].Side(Side1)
		default:
			continue
		}

		for _, id := range winners {
			wins[id]++
		}
		for _, id := range losers {
			losses[id]++
		}
	}

	return wins, losses
}

// Stats holds club-wide counters and the latest results.
type Stats struct {
	Players, RatedPlayers, AvailablePlayers int
	TotalMatches, CompletedMatches          int
	RatedMatches                            int

	RecentResults []MatchWithPlayers
}

func (b *Back) GetStats() (stats Stats, _ error) {
	start := time.Now()
	defer func() { log.Printf("info: computed misc stats in %s", time.Since(start)) }()

	if err := b.transaction(func(tx *sqlx.Tx) error {
		queries := []struct {
			Dst   interface{}
			Query string
		}{
			{&stats.Players, `SELECT COUNT(*) FROM Player`},
			{&stats.RatedPlayers, `SELECT COUNT(*) FROM PlayerRating
                INNER JOIN Player ON (Player.ID = PlayerRating.PlayerID)`},
			{&stats.AvailablePlayers, `SELECT COUNT(*) FROM Available`},
			{&stats.TotalMatches, `SELECT COUNT(*) FROM Match`},
			{&stats.CompletedMatches, `SELECT COUNT(*) FROM Match
                WHERE Set1Side1 IS NOT NULL AND Set1Side2 IS NOT NULL`},
			{&stats.RatedMatches, `SELECT COUNT(*) FROM Match WHERE RatedAt IS NOT NULL`},
		}

		for _, v := range queries {
			if err := tx.Get(v.Dst, v.Query); err != nil {
				return err
			}
		}

		var recent []Match
		if err := tx.Select(&recent, `
            SELECT * FROM Match
            WHERE Set1Side1 IS NOT NULL AND Set1Side2 IS NOT NULL
            ORDER BY ID DESC LIMIT ?`,
			recentResultsCount,
		); err != nil {
			return err
		}

		var err error
		stats.RecentResults, err = resolveMatches(tx, recent)

		return err
	}); err != nil {
		return Stats{}, err
	}

	return stats, nil
}
