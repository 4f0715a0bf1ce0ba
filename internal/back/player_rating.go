package back

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"puma/internal/util"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

const (
	reasonInitialSetup = "Initial player setup"
	reasonBulkImport   = "Bulk import - initial setup"
	reasonRatingImport = "Rating import"
)

func reasonManualAdjustment(from, to float64) string {
	return fmt.Sprintf("Manual adjustment from %s to %s", util.Rating(from), util.Rating(to))
}

func reasonMatch(matchID int64, won bool, setsFor, setsAgainst int) string {
	outcome := "Defeat"
	if won {
		outcome = "Victory"
	}

	return fmt.Sprintf("Match #%d: %s (%d-%d)", matchID, outcome, setsFor, setsAgainst)
}

// PlayerRating is the current rating of a player, there is at most one per
// player.
type PlayerRating struct {
	PlayerID  int64
	Rating    float64
	UpdatedAt util.TimeAsTimestamp
}

// RatingHistory is an immutable audit entry written on every rating change.
type RatingHistory struct {
	ID        util.UUIDAsBlob
	PlayerID  int64
	OldRating null.Float
	NewRating float64
	Reason    string
	CreatedAt util.TimeAsTimestamp
}

func (r *PlayerRating) upsert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("PlayerRating").SetMap(squirrel.Eq{
		"PlayerID":  r.PlayerID,
		"Rating":    r.Rating,
		"UpdatedAt": r.UpdatedAt,
	}).Suffix(`ON CONFLICT(PlayerID) DO UPDATE SET
        Rating = excluded.Rating,
        UpdatedAt = excluded.UpdatedAt`,
	).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (h *RatingHistory) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("RatingHistory").SetMap(squirrel.Eq{
		"ID":        h.ID,
		"PlayerID":  h.PlayerID,
		"OldRating": h.OldRating,
		"NewRating": h.NewRating,
		"Reason":    h.Reason,
		"CreatedAt": h.CreatedAt,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// getPlayerRating returns the current rating of a player, the result is
// invalid for unrated players.
func getPlayerRating(tx *sqlx.Tx, playerID int64) (null.Float, error) {
	var ret PlayerRating
	query := `SELECT * FROM PlayerRating WHERE PlayerID = ? LIMIT 1`
	if err := tx.Get(&ret, query, playerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return null.Float{}, nil
		}
		return null.Float{}, err
	}

	return null.FloatFrom(ret.Rating), nil
}

// setRating writes the new current rating of a player and appends the
// corresponding history entry.
func setRating(tx *sqlx.Tx, playerID int64, rating float64, reason string, now time.Time) (RatingHistory, error) {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return RatingHistory{}, util.ErrPublic("a rating must be a finite number")
	}

	old, err := getPlayerRating(tx, playerID)
	if err != nil {
		return RatingHistory{}, err
	}

	current := PlayerRating{
		PlayerID:  playerID,
		Rating:    rating,
		UpdatedAt: util.TimeAsTimestamp(now),
	}
	if err := current.upsert(tx); err != nil {
		return RatingHistory{}, fmt.Errorf("unable to update rating: %w", err)
	}

	history := RatingHistory{
		ID:        util.NewUUIDAsBlob(),
		PlayerID:  playerID,
		OldRating: old,
		NewRating: rating,
		Reason:    reason,
		CreatedAt: util.TimeAsTimestamp(now),
	}
	if err := history.insert(tx); err != nil {
		return RatingHistory{}, fmt.Errorf("unable to insert rating history: %w", err)
	}

	return history, nil
}

// AdjustRating manually sets the rating of a player.
func (b *Back) AdjustRating(playerID int64, rating float64) (history RatingHistory, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		player, err := getRatedPlayerByID(tx, playerID)
		if err != nil {
			return err
		}

		history, err = setRating(
			tx, playerID, rating,
			reasonManualAdjustment(player.RatingOrDefault(), rating),
			time.Now(),
		)

		return err
	}); err != nil {
		return RatingHistory{}, err
	}

	ratingWrites.WithLabelValues("manual").Inc()

	return history, nil
}

// GetRatingHistory returns the rating changes of a player, newest first. It
// works for deleted players as well.
func (b *Back) GetRatingHistory(playerID int64) (history []RatingHistory, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		return tx.Select(
			&history,
			`SELECT * FROM RatingHistory WHERE PlayerID = ?
            ORDER BY CreatedAt DESC, rowid DESC`,
			playerID,
		)
	}); err != nil {
		return nil, err
	}

	return history, nil
}
