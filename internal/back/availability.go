package back

import (
	"puma/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

// ToggleAvailable flips the availability of a player and returns whether the
// player is now available.
func (b *Back) ToggleAvailable(playerID int64) (available bool, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		if _, err := getPlayerByID(tx, playerID); err != nil {
			return err
		}

		res, err := tx.Exec(`DELETE FROM Available WHERE PlayerID = ?`, playerID)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		available = true
		return addAvailable(tx, []int64{playerID})
	}); err != nil {
		return false, err
	}

	return available, nil
}

// SetAvailable adds or removes players from the pool. Adding an already
// available player or removing an unavailable one is a no-op.
func (b *Back) SetAvailable(playerIDs []int64, available bool) error {
	return b.transaction(func(tx *sqlx.Tx) error {
		if !available {
			return removeAvailable(tx, playerIDs)
		}

		players, err := getPlayersByIDs(tx, playerIDs)
		if err != nil {
			return err
		}

		if missing, _ := lo.Difference(lo.Uniq(playerIDs), lo.Keys(players)); len(missing) > 0 {
			return util.ErrPublic("unknown player")
		}

		return addAvailable(tx, playerIDs)
	})
}

func addAvailable(tx *sqlx.Tx, playerIDs []int64) error {
	for _, id := range playerIDs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO Available (PlayerID) VALUES (?)`, id); err != nil {
			return err
		}
	}

	return nil
}

func removeAvailable(tx *sqlx.Tx, playerIDs []int64) error {
	if len(playerIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM Available WHERE PlayerID IN(?)`, playerIDs)
	if err != nil {
		return err
	}

	_, err = tx.Exec(tx.Rebind(query), args...)

	return err
}

// SaveAvailable replaces the saved snapshot with the current pool.
func (b *Back) SaveAvailable() error {
	return b.transaction(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`DELETE FROM SavedAvailable`); err != nil {
			return err
		}

		_, err := tx.Exec(`INSERT INTO SavedAvailable (PlayerID) SELECT PlayerID FROM Available`)
		return err
	})
}

// LoadAvailable replaces the current pool with the saved snapshot.
func (b *Back) LoadAvailable() error {
	return b.transaction(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`DELETE FROM Available`); err != nil {
			return err
		}

		_, err := tx.Exec(`INSERT INTO Available (PlayerID) SELECT PlayerID FROM SavedAvailable`)
		return err
	})
}

// RankWindow restricts the available pool to the players ranked between Min
// and Max, both 1-based and inclusive. Zero means unbounded.
type RankWindow struct {
	Min, Max int
}

// apply slices players, already ordered by rank, to the window. Bounds are
// clamped and an inverted window yields nothing.
func (w RankWindow) apply(players []RatedPlayer) []RatedPlayer {
	if w.Min == 0 && w.Max == 0 {
		return players
	}

	first, last := 0, len(players)-1
	if w.Min != 0 {
		first = w.Min - 1
	}
	if w.Max != 0 {
		last = w.Max - 1
	}

	if first < 0 {
		first = 0
	}
	if last > len(players)-1 {
		last = len(players) - 1
	}

	if first > last {
		return []RatedPlayer{}
	}

	return players[first : last+1]
}

// GetAvailablePlayers returns the pool ordered by rating, best first,
// unrated players last, restricted to the given rank window.
func (b *Back) GetAvailablePlayers(window RankWindow) (players []RatedPlayer, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		players, err = getAvailablePlayers(tx, window)
		return err
	}); err != nil {
		return nil, err
	}

	return players, nil
}

func getAvailablePlayers(tx *sqlx.Tx, window RankWindow) ([]RatedPlayer, error) {
	var players []RatedPlayer
	if err := tx.Select(&players, ratedPlayerSelect+`
        INNER JOIN Available ON (Available.PlayerID = Player.ID)
        ORDER BY PlayerRating.Rating DESC, Player.ID ASC`,
	); err != nil {
		return nil, err
	}

	return window.apply(players), nil
}

// GetUnavailablePlayers returns every player not in the pool, best first.
func (b *Back) GetUnavailablePlayers() (players []RatedPlayer, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		return tx.Select(&players, ratedPlayerSelect+`
            LEFT JOIN Available ON (Available.PlayerID = Player.ID)
            WHERE Available.PlayerID IS NULL
            ORDER BY PlayerRating.Rating DESC, Player.ID ASC`,
		)
	}); err != nil {
		return nil, err
	}

	return players, nil
}
