package back // nolint:testpackage

import (
	"database/sql"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func playerIDs(players []RatedPlayer) []int64 {
	return lo.Map(players, func(p RatedPlayer, _ int) int64 { return p.ID })
}

func TestToggleAvailable(t *testing.T) {
	back := createTestBack(t)
	players := createPlayers(t, back, unrated(2)...)

	available, err := back.ToggleAvailable(players[0].ID)
	require.NoError(t, err)
	assert.False(t, available)

	unavailable, err := back.GetUnavailablePlayers()
	require.NoError(t, err)
	assert.Equal(t, []int64{players[0].ID}, playerIDs(unavailable))

	available, err = back.ToggleAvailable(players[0].ID)
	require.NoError(t, err)
	assert.True(t, available)

	_, err = back.ToggleAvailable(4242)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSetAvailable(t *testing.T) {
	back := createTestBack(t)
	players := createPlayers(t, back, unrated(3)...)

	require.NoError(t, back.SetAvailable([]int64{players[0].ID, players[1].ID}, false))
	// Removing twice and adding an available player are no-ops.
	require.NoError(t, back.SetAvailable([]int64{players[0].ID}, false))
	require.NoError(t, back.SetAvailable([]int64{players[2].ID}, true))

	pool, err := back.GetAvailablePlayers(RankWindow{})
	require.NoError(t, err)
	assert.Equal(t, []int64{players[2].ID}, playerIDs(pool))

	assert.Error(t, back.SetAvailable([]int64{players[0].ID, 4242}, true))

	pool, err = back.GetAvailablePlayers(RankWindow{})
	require.NoError(t, err)
	assert.Len(t, pool, 1, "a failed addition must not be partially applied")
}

func TestSaveLoadAvailable(t *testing.T) {
	back := createTestBack(t)
	players := createPlayers(t, back, unrated(3)...)

	require.NoError(t, back.SetAvailable([]int64{players[2].ID}, false))
	require.NoError(t, back.SaveAvailable())

	require.NoError(t, back.SetAvailable([]int64{players[0].ID, players[1].ID}, false))
	require.NoError(t, back.SetAvailable([]int64{players[2].ID}, true))

	all, err := back.GetPlayers()
	require.NoError(t, err)
	saved := lo.FilterMap(all, func(p RatedPlayer, _ int) (int64, bool) { return p.ID, p.Saved })
	assert.ElementsMatch(t, []int64{players[0].ID, players[1].ID}, saved)

	require.NoError(t, back.LoadAvailable())

	pool, err := back.GetAvailablePlayers(RankWindow{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{players[0].ID, players[1].ID}, playerIDs(pool))
}

func TestGetAvailablePlayersOrder(t *testing.T) {
	back := createTestBack(t)
	players := createPlayers(t, back,
		null.FloatFrom(1400), null.Float{}, null.FloatFrom(1800), null.FloatFrom(1600),
	)

	pool, err := back.GetAvailablePlayers(RankWindow{})
	require.NoError(t, err)
	assert.Equal(t,
		[]int64{players[2].ID, players[3].ID, players[0].ID, players[1].ID},
		playerIDs(pool),
		"best first, unrated last",
	)

	pool, err = back.GetAvailablePlayers(RankWindow{Min: 2, Max: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{players[3].ID, players[0].ID}, playerIDs(pool))
}

func TestRankWindow(t *testing.T) {
	players := make([]RatedPlayer, 5)
	for k := range players {
		players[k].ID = int64(k + 1)
	}

	cases := []struct {
		window   RankWindow
		expected []int64
	}{
		{RankWindow{}, []int64{1, 2, 3, 4, 5}},
		{RankWindow{Min: 2}, []int64{2, 3, 4, 5}},
		{RankWindow{Max: 2}, []int64{1, 2}},
		{RankWindow{Min: 2, Max: 4}, []int64{2, 3, 4}},
		{RankWindow{Min: 3, Max: 3}, []int64{3}},
		{RankWindow{Min: -4, Max: 2}, []int64{1, 2}},
		{RankWindow{Min: 4, Max: 42}, []int64{4, 5}},
		{RankWindow{Min: 4, Max: 2}, []int64{}},
		{RankWindow{Min: 6}, []int64{}},
	}

	for k, v := range cases {
		actual := playerIDs(v.window.apply(players))
		assert.Equal(t, v.expected, actual, "case #%d: %+v", k, v.window)
	}
}
