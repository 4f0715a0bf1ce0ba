package back // nolint:testpackage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func TestLeaderboardAndStats(t *testing.T) {
	back := createTestBack(t)
	players := createPlayers(t, back, rated(1500, 1500, 1500, 1500)...)
	_, err := back.CreatePlayer(PlayerInput{DisplayName: "Unrated"}, null.Float{})
	require.NoError(t, err)

	match := createDoublesMatch(t, back)
	_, _, err = back.RecordScore(match.ID, []Set{{21, 10}, {21, 12}})
	require.NoError(t, err)

	leaderboard, err := back.GetLeaderboard()
	require.NoError(t, err)
	require.Len(t, leaderboard, len(players), "unrated players are not ranked")

	for k, v := range leaderboard {
		assert.Equal(t, k+1, v.Rank)
		assert.True(t, v.Deviation.Valid)
	}

	winners := match.Side(Side1)
	for _, v := range leaderboard[:2] {
		assert.Contains(t, winners, v.PlayerID)
		assert.Equal(t, 1, v.Wins)
		assert.Equal(t, 0, v.Losses)
		assert.InDelta(t, 1516, v.Rating, 1e-9)
	}
	for _, v := range leaderboard[2:] {
		assert.NotContains(t, winners, v.PlayerID)
		assert.Equal(t, 0, v.Wins)
		assert.Equal(t, 1, v.Losses)
	}

	stats, err := back.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Players)
	assert.Equal(t, 4, stats.RatedPlayers)
	assert.Equal(t, 0, stats.AvailablePlayers)
	assert.Equal(t, 1, stats.TotalMatches)
	assert.Equal(t, 1, stats.CompletedMatches)
	assert.Equal(t, 1, stats.RatedMatches)
	require.Len(t, stats.RecentResults, 1)
	assert.Equal(t, Side1, stats.RecentResults[0].Winner)
}

func TestGraphs(t *testing.T) {
	back := createTestBack(t)

	svg, err := back.GetRatingsDistributionGraph()
	require.NoError(t, err)
	assert.Equal(t, emptySVG, string(svg))

	players := createPlayers(t, back, rated(1210, 1500, 1530, 1890)...)

	svg, err = back.GetRatingsDistributionGraph()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), "<svg"))

	svg, err = back.GetPlayerRatingGraph(players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, emptySVG, string(svg), "a single entry is not enough")

	_, err = back.AdjustRating(players[0].ID, 1250)
	require.NoError(t, err)

	svg, err = back.GetPlayerRatingGraph(players[0].ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), "<svg"))
}
