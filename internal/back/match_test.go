package back // nolint:testpackage

import (
	"puma/internal/balance"
	"puma/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func TestMatchWinner(t *testing.T) {
	cases := []struct {
		sets         []Set
		side1, side2 int
		winner       Side
	}{
		{nil, 0, 0, SideNone},
		{[]Set{{21, 15}}, 1, 0, Side1},
		{[]Set{{15, 21}}, 0, 1, Side2},
		{[]Set{{21, 15}, {18, 21}}, 1, 1, SideNone},
		{[]Set{{21, 15}, {18, 21}, {21, 19}}, 2, 1, Side1},
		{[]Set{{21, 21}, {18, 21}}, 0, 1, Side2},
		{[]Set{{21, 21}}, 0, 0, SideNone},
	}

	for k, v := range cases {
		var m Match
		m.setSets(v.sets)

		side1, side2 := m.SetsWon()
		assert.Equal(t, v.side1, side1, "case #%d", k)
		assert.Equal(t, v.side2, side2, "case #%d", k)
		assert.Equal(t, v.winner, m.Winner(), "case #%d", k)
		assert.Equal(t, len(v.sets) > 0, m.HasScore(), "case #%d", k)
	}
}

func TestMatchSetsSkipsPartialSets(t *testing.T) {
	m := Match{
		Set1Side1: null.IntFrom(21), Set1Side2: null.IntFrom(10),
		Set2Side1: null.IntFrom(21),
	}

	assert.Equal(t, []Set{{21, 10}}, m.Sets())
}

func TestNewMatchSides(t *testing.T) {
	m := NewMatch(balance.KindDoubles, balance.MethodOptimal, balance.Pairing{
		A: []int64{1, 4},
		B: []int64{2, 3},
	})
	assert.Equal(t, []int64{1, 4}, m.Side(Side1))
	assert.Equal(t, []int64{2, 3}, m.Side(Side2))
	assert.Equal(t, []int64{1, 4, 2, 3}, m.PlayerIDs())

	m = NewMatch(balance.KindSingles, balance.MethodOptimal, balance.Pairing{A: []int64{7}, B: []int64{9}})
	assert.Equal(t, []int64{7}, m.Side(Side1))
	assert.Equal(t, []int64{9}, m.Side(Side2))
	assert.False(t, m.Side1Player2ID.Valid)
	assert.Nil(t, m.Side(SideNone))
}

func TestParseSet(t *testing.T) {
	cases := []struct {
		input    string
		expected Set
		valid    bool
	}{
		{"21-15", Set{21, 15}, true},
		{" 18 - 21 ", Set{18, 21}, true},
		{"21", Set{}, false},
		{"a-b", Set{}, false},
		{"21-", Set{}, false},
	}

	for _, v := range cases {
		actual, err := ParseSet(v.input)
		if !v.valid {
			assert.True(t, util.IsPublic(err), "input %q", v.input)
			continue
		}

		require.NoError(t, err, "input %q", v.input)
		assert.Equal(t, v.expected, actual)
	}
}

func TestValidateSets(t *testing.T) {
	assert.Error(t, validateSets(nil))
	assert.Error(t, validateSets([]Set{{1, 0}, {1, 0}, {1, 0}, {1, 0}}))
	assert.Error(t, validateSets([]Set{{-1, 21}}))
	assert.NoError(t, validateSets([]Set{{0, 0}}))
	assert.NoError(t, validateSets([]Set{{21, 15}, {18, 21}, {21, 19}}))
}
