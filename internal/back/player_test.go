package back // nolint:testpackage

import (
	"database/sql"
	"puma/internal/balance"
	"puma/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func TestCreatePlayerWritesHistory(t *testing.T) {
	back := createTestBack(t)

	player, err := back.CreatePlayer(PlayerInput{
		DisplayName: "  Saria ",
		FirstName:   null.StringFrom("Saria"),
		LastName:    null.StringFrom(" "),
	}, null.FloatFrom(1600))
	require.NoError(t, err)
	assert.Equal(t, "Saria", player.DisplayName)
	assert.False(t, player.LastName.Valid)

	_, err = back.AdjustRating(player.ID, 1650)
	require.NoError(t, err)

	history, err := back.GetRatingHistory(player.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "Manual adjustment from 1600.0 to 1650.0", history[0].Reason)
	assert.Equal(t, null.FloatFrom(1600), history[0].OldRating)
	assert.Equal(t, 1650.0, history[0].NewRating)

	assert.Equal(t, reasonInitialSetup, history[1].Reason)
	assert.False(t, history[1].OldRating.Valid)
	assert.Equal(t, 1600.0, history[1].NewRating)

	rated, err := back.GetPlayer(player.ID)
	require.NoError(t, err)
	assert.Equal(t, null.FloatFrom(1650), rated.Rating)
}

func TestCreatePlayerValidation(t *testing.T) {
	back := createTestBack(t)

	_, err := back.CreatePlayer(PlayerInput{DisplayName: "Saria"}, null.Float{})
	require.NoError(t, err)

	cases := []struct {
		name  string
		input PlayerInput
	}{
		{"duplicate", PlayerInput{DisplayName: "Saria"}},
		{"duplicate with spaces", PlayerInput{DisplayName: " Saria"}},
		{"empty", PlayerInput{DisplayName: "   "}},
	}

	for _, v := range cases {
		v := v
		t.Run(v.name, func(t *testing.T) {
			_, err := back.CreatePlayer(v.input, null.Float{})
			assert.True(t, util.IsPublic(err), "expected a public error, got %v", err)
		})
	}
}

func TestUnratedPlayerHasNoHistory(t *testing.T) {
	back := createTestBack(t)

	player, err := back.CreatePlayer(PlayerInput{DisplayName: "Impa"}, null.Float{})
	require.NoError(t, err)

	history, err := back.GetRatingHistory(player.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	rated, err := back.GetPlayer(player.ID)
	require.NoError(t, err)
	assert.False(t, rated.Rating.Valid)
	assert.Equal(t, 1500.0, rated.RatingOrDefault())

	// The adjustment reason uses the default rating of unrated players.
	h, err := back.AdjustRating(player.ID, 1400)
	require.NoError(t, err)
	assert.Equal(t, "Manual adjustment from 1500.0 to 1400.0", h.Reason)
	assert.False(t, h.OldRating.Valid)
}

func TestUpdatePlayer(t *testing.T) {
	back := createTestBack(t)
	players := createPlayers(t, back, unrated(2)...)

	updated, err := back.UpdatePlayer(players[0].ID, PlayerInput{
		DisplayName: players[0].DisplayName,
		FirstName:   null.StringFrom("Goron"),
	})
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("Goron"), updated.FirstName)

	_, err = back.UpdatePlayer(players[0].ID, PlayerInput{DisplayName: players[1].DisplayName})
	assert.True(t, util.IsPublic(err))

	_, err = back.UpdatePlayer(4242, PlayerInput{DisplayName: "Nobody"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeletePlayerKeepsHistory(t *testing.T) {
	back := createTestBack(t)
	players := createPlayers(t, back, rated(1500, 1500)...)

	match, err := back.CreateMatch(MatchRequest{Kind: balance.KindSingles}, nil)
	require.NoError(t, err)

	deleted := match.Side(Side1)[0]
	require.NoError(t, back.DeletePlayer(deleted))

	_, err = back.GetPlayer(deleted)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	history, err := back.GetRatingHistory(deleted)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	after, err := back.GetMatch(match.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Side(Side1))
	assert.Empty(t, after.Side1)
	assert.Len(t, after.Side(Side2), 1)

	all, err := back.GetPlayers()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotEqual(t, deleted, all[0].ID)
	assert.Contains(t, []int64{players[0].ID, players[1].ID}, all[0].ID)

	assert.ErrorIs(t, back.DeletePlayer(deleted), sql.ErrNoRows)

	// A match that lost a whole side cannot be rated.
	_, _, err = back.RecordScore(match.ID, []Set{{21, 10}})
	assert.True(t, util.IsPublic(err))
}

func TestLinkDiscordPlayer(t *testing.T) {
	back := createTestBack(t)
	players := createPlayers(t, back, unrated(2)...)

	linked, err := back.LinkDiscordPlayer("1234", players[0].DisplayName)
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("1234"), linked.DiscordID)

	found, err := back.GetPlayerByDiscordID("1234")
	require.NoError(t, err)
	assert.Equal(t, players[0].ID, found.ID)

	_, err = back.LinkDiscordPlayer("1234", players[1].DisplayName)
	assert.True(t, util.IsPublic(err), "already registered")

	_, err = back.LinkDiscordPlayer("5678", players[0].DisplayName)
	assert.True(t, util.IsPublic(err), "already linked")

	_, err = back.LinkDiscordPlayer("5678", "Ganondorf")
	assert.True(t, util.IsPublic(err), "unknown player")
}
