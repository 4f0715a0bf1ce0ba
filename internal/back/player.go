package back

import (
	"database/sql"
	"errors"
	"fmt"
	"puma/internal/elo"
	"puma/internal/util"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

const maxDisplayNameLen = 64

// A Player is a club member that can be made available and put in a Match.
type Player struct {
	ID          int64
	CreatedAt   util.TimeAsTimestamp
	DisplayName string
	FirstName   null.String
	LastName    null.String
	DiscordID   null.String
}

// RatedPlayer is a Player with its current rating, if any.
type RatedPlayer struct {
	Player
	Rating null.Float

	// Saved is true when the player is part of the saved availability pool.
	Saved bool
}

// RatingOrDefault returns the stored rating or the default rating for an
// unrated player.
func (p RatedPlayer) RatingOrDefault() float64 {
	if p.Rating.Valid {
		return p.Rating.Float64
	}

	return elo.DefaultRating
}

// PlayerInput holds the user-provided fields of a Player.
type PlayerInput struct {
	DisplayName string
	FirstName   null.String
	LastName    null.String
}

func (in *PlayerInput) normalize() error {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.DisplayName == "" {
		return util.ErrPublic("the display name is required")
	}

	if len(in.DisplayName) > maxDisplayNameLen {
		return util.ErrPublic(fmt.Sprintf("the display name must be at most %d characters", maxDisplayNameLen))
	}

	in.FirstName = trimNullString(in.FirstName)
	in.LastName = trimNullString(in.LastName)

	return nil
}

func trimNullString(s null.String) null.String {
	return null.NewString(strings.TrimSpace(s.String), s.Valid && strings.TrimSpace(s.String) != "")
}

func NewPlayer(in PlayerInput) Player {
	return Player{
		CreatedAt:   util.NewTimeAsTimestamp(),
		DisplayName: in.DisplayName,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
	}
}

func (p *Player) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Player").SetMap(squirrel.Eq{
		"CreatedAt":   p.CreatedAt,
		"DisplayName": p.DisplayName,
		"FirstName":   p.FirstName,
		"LastName":    p.LastName,
		"DiscordID":   p.DiscordID,
	}).ToSql()
	if err != nil {
		return err
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}

	p.ID, err = res.LastInsertId()

	return err
}

func (p *Player) update(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Player").SetMap(squirrel.Eq{
		"DisplayName": p.DisplayName,
		"FirstName":   p.FirstName,
		"LastName":    p.LastName,
		"DiscordID":   p.DiscordID,
	}).Where("Player.ID = ?", p.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// ensureNameIsFree returns a public error if another player than exceptID
// already uses the name.
func ensureNameIsFree(tx *sqlx.Tx, name string, exceptID int64) error {
	other, err := getPlayerByName(tx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	if other.ID != exceptID {
		return util.ErrPublic(fmt.Sprintf("the name `%s` is taken already", name))
	}

	return nil
}

// CreatePlayer registers a new player. If rating is valid an initial rating
// is written with its history entry.
func (b *Back) CreatePlayer(in PlayerInput, rating null.Float) (player Player, _ error) {
	if err := in.normalize(); err != nil {
		return Player{}, err
	}

	if err := b.transaction(func(tx *sqlx.Tx) error {
		if err := ensureNameIsFree(tx, in.DisplayName, 0); err != nil {
			return err
		}

		player = NewPlayer(in)
		if err := player.insert(tx); err != nil {
			return err
		}

		if !rating.Valid {
			return nil
		}

		_, err := setRating(tx, player.ID, rating.Float64, reasonInitialSetup, time.Now())
		return err
	}); err != nil {
		return Player{}, err
	}

	if rating.Valid {
		ratingWrites.WithLabelValues("initial").Inc()
	}

	return player, nil
}

func (b *Back) UpdatePlayer(id int64, in PlayerInput) (player Player, _ error) {
	if err := in.normalize(); err != nil {
		return Player{}, err
	}

	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByID(tx, id)
		if err != nil {
			return err
		}

		if err := ensureNameIsFree(tx, in.DisplayName, id); err != nil {
			return err
		}

		player.DisplayName = in.DisplayName
		player.FirstName = in.FirstName
		player.LastName = in.LastName

		return player.update(tx)
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

// DeletePlayer removes a player, its current rating and its availability.
// Matches keep existing with a NULL reference in place of the player and the
// rating history is left untouched.
func (b *Back) DeletePlayer(id int64) error {
	return b.transaction(func(tx *sqlx.Tx) error {
		if _, err := getPlayerByID(tx, id); err != nil {
			return err
		}

		for _, col := range matchPlayerColumns {
			query, args, err := squirrel.Update("Match").
				Set(col, nil).
				Where(squirrel.Eq{col: id}).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.Exec(query, args...); err != nil {
				return fmt.Errorf("unable to detach player from matches: %w", err)
			}
		}

		for _, table := range []string{"Available", "SavedAvailable", "PlayerRating"} {
			if _, err := tx.Exec(`DELETE FROM "`+table+`" WHERE PlayerID = ?`, id); err != nil {
				return err
			}
		}

		_, err := tx.Exec(`DELETE FROM Player WHERE ID = ?`, id)
		return err
	})
}

// LinkDiscordPlayer associates a Discord account to an existing player.
func (b *Back) LinkDiscordPlayer(discordID, displayName string) (player Player, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		if linked, err := getPlayerByDiscordID(tx, discordID); err == nil {
			return util.ErrPublic(fmt.Sprintf("you are already registered as `%s`", linked.DisplayName))
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		player, err = getPlayerByName(tx, strings.TrimSpace(displayName))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return util.ErrPublic(fmt.Sprintf("there is no player named `%s`", displayName))
			}
			return err
		}

		if player.DiscordID.Valid {
			return util.ErrPublic(fmt.Sprintf("`%s` is linked to another account already", player.DisplayName))
		}

		player.DiscordID = null.StringFrom(discordID)

		return player.update(tx)
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

func (b *Back) GetPlayer(id int64) (player RatedPlayer, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getRatedPlayerByID(tx, id)
		return err
	}); err != nil {
		return RatedPlayer{}, err
	}

	return player, nil
}

func (b *Back) GetPlayerByName(name string) (player Player, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByName(tx, name)
		return err
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

func (b *Back) GetPlayerByDiscordID(discordID string) (player Player, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByDiscordID(tx, discordID)
		return err
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

// GetPlayers returns every player ordered by display name.
func (b *Back) GetPlayers() (players []RatedPlayer, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		return tx.Select(&players, ratedPlayerSelect+` ORDER BY Player.DisplayName ASC`)
	}); err != nil {
		return nil, err
	}

	return players, nil
}

const ratedPlayerSelect = `
    SELECT Player.*, PlayerRating.Rating,
        (SavedAvailable.PlayerID IS NOT NULL) AS Saved
    FROM Player
    LEFT JOIN PlayerRating ON (PlayerRating.PlayerID = Player.ID)
    LEFT JOIN SavedAvailable ON (SavedAvailable.PlayerID = Player.ID)`

func getRatedPlayerByID(tx *sqlx.Tx, id int64) (RatedPlayer, error) {
	var ret RatedPlayer
	if err := tx.Get(&ret, ratedPlayerSelect+` WHERE Player.ID = ? LIMIT 1`, id); err != nil {
		return RatedPlayer{}, err
	}

	return ret, nil
}

func getPlayerByName(tx *sqlx.Tx, name string) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.DisplayName = ? LIMIT 1`
	if err := tx.Get(&ret, query, name); err != nil {
		return Player{}, err
	}

	return ret, nil
}

func getPlayerByID(tx *sqlx.Tx, id int64) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		return Player{}, err
	}

	return ret, nil
}

func getPlayerByDiscordID(tx *sqlx.Tx, discordID string) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.DiscordID = ? LIMIT 1`
	if err := tx.Get(&ret, query, discordID); err != nil {
		return Player{}, err
	}

	return ret, nil
}

func getPlayersByIDs(tx *sqlx.Tx, ids []int64) (map[int64]Player, error) {
	if len(ids) == 0 {
		return map[int64]Player{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM Player WHERE ID IN(?)`, ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	players := make([]Player, 0, len(ids))
	if err := tx.Select(&players, query, args...); err != nil {
		return nil, err
	}

	ret := make(map[int64]Player, len(players))
	for k := range players {
		ret[players[k].ID] = players[k]
	}

	return ret, nil
}
