package back

import (
	"fmt"
	"puma/internal/balance"
	"puma/internal/util"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// MaxSets is the maximum number of sets of a match.
const MaxSets = 3

var matchPlayerColumns = []string{ // nolint:gochecknoglobals
	"Side1Player1ID", "Side1Player2ID",
	"Side2Player1ID", "Side2Player2ID",
}

type Match struct {
	ID        int64
	CreatedAt util.TimeAsTimestamp
	Kind      balance.Kind
	Method    balance.Method

	// A NULL player is either the unused second slot of a singles match or
	// a deleted player.
	Side1Player1ID null.Int
	Side1Player2ID null.Int
	Side2Player1ID null.Int
	Side2Player2ID null.Int

	Set1Side1, Set1Side2 null.Int
	Set2Side1, Set2Side2 null.Int
	Set3Side1, Set3Side2 null.Int

	// RatedAt is set once the outcome of the match was applied to ratings,
	// the score is then frozen.
	RatedAt util.NullTimeAsTimestamp
}

// Side designates one of the two teams of a Match.
type Side int

const (
	SideNone Side = 0
	Side1    Side = 1
	Side2    Side = 2
)

// Set is the score of a single set.
type Set struct {
	Side1, Side2 int
}

func (s Set) String() string {
	return fmt.Sprintf("%d-%d", s.Side1, s.Side2)
}

// ParseSet reads a set score formatted as "21-15".
func ParseSet(str string) (Set, error) {
	parts := strings.SplitN(strings.TrimSpace(str), "-", 2)
	if len(parts) != 2 {
		return Set{}, util.ErrPublic(fmt.Sprintf("invalid set score `%s`, expected something like `21-15`", str))
	}

	side1, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	side2, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return Set{}, util.ErrPublic(fmt.Sprintf("invalid set score `%s`, expected something like `21-15`", str))
	}

	return Set{Side1: side1, Side2: side2}, nil
}

func NewMatch(kind balance.Kind, method balance.Method, pairing balance.Pairing) Match {
	m := Match{
		CreatedAt: util.NewTimeAsTimestamp(),
		Kind:      kind,
		Method:    method,
	}

	slots := [2][2]*null.Int{
		{&m.Side1Player1ID, &m.Side1Player2ID},
		{&m.Side2Player1ID, &m.Side2Player2ID},
	}
	for k, id := range pairing.A {
		*slots[0][k] = null.IntFrom(id)
	}
	for k, id := range pairing.B {
		*slots[1][k] = null.IntFrom(id)
	}

	return m
}

// Side returns the IDs of the players still referenced on the given side.
func (m *Match) Side(side Side) []int64 {
	var slots []null.Int
	switch side {
	case Side1:
		slots = []null.Int{m.Side1Player1ID, m.Side1Player2ID}
	case Side2:
		slots = []null.Int{m.Side2Player1ID, m.Side2Player2ID}
	default:
		return nil
	}

	ret := make([]int64, 0, len(slots))
	for _, v := range slots {
		if v.Valid {
			ret = append(ret, v.Int64)
		}
	}

	return ret
}

// PlayerIDs returns every player still referenced by the match.
func (m *Match) PlayerIDs() []int64 {
	return append(m.Side(Side1), m.Side(Side2)...)
}

func (m *Match) IsRated() bool {
	return m.RatedAt.Valid
}

func (m *Match) HasScore() bool {
	return len(m.Sets()) > 0
}

// Sets returns the sets with both scores set, in order.
func (m *Match) Sets() []Set {
	pairs := [MaxSets][2]null.Int{
		{m.Set1Side1, m.Set1Side2},
		{m.Set2Side1, m.Set2Side2},
		{m.Set3Side1, m.Set3Side2},
	}

	sets := make([]Set, 0, MaxSets)
	for _, v := range pairs {
		if !v[0].Valid || !v[1].Valid {
			continue
		}

		sets = append(sets, Set{Side1: int(v[0].Int64), Side2: int(v[1].Int64)})
	}

	return sets
}

func (m *Match) setSets(sets []Set) {
	slots := [MaxSets][2]*null.Int{
		{&m.Set1Side1, &m.Set1Side2},
		{&m.Set2Side1, &m.Set2Side2},
		{&m.Set3Side1, &m.Set3Side2},
	}

	for k := range slots {
		if k >= len(sets) {
			*slots[k][0], *slots[k][1] = null.Int{}, null.Int{}
			continue
		}

		*slots[k][0] = null.IntFrom(int64(sets[k].Side1))
		*slots[k][1] = null.IntFrom(int64(sets[k].Side2))
	}
}

// SetsWon counts the sets won by each side, a tied set counts for nobody.
func (m *Match) SetsWon() (side1, side2 int) {
	for _, v := range m.Sets() {
		switch {
		case v.Side1 > v.Side2:
			side1++
		case v.Side2 > v.Side1:
			side2++
		}
	}

	return side1, side2
}

// Winner returns the side that won the most sets, SideNone for a draw or a
// match without score.
func (m *Match) Winner() Side {
	side1, side2 := m.SetsWon()
	switch {
	case side1 > side2:
		return Side1
	case side2 > side1:
		return Side2
	default:
		return SideNone
	}
}

func validateSets(sets []Set) error {
	if len(sets) == 0 || len(sets) > MaxSets {
		return util.ErrPublic(fmt.Sprintf("a score must have between 1 and %d sets", MaxSets))
	}

	for _, v := range sets {
		if v.Side1 < 0 || v.Side2 < 0 {
			return util.ErrPublic("a set score cannot be negative")
		}
	}

	return nil
}

func (m *Match) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Match").SetMap(squirrel.Eq{
		"CreatedAt":      m.CreatedAt,
		"Kind":           m.Kind,
		"Method":         m.Method,
		"Side1Player1ID": m.Side1Player1ID,
		"Side1Player2ID": m.Side1Player2ID,
		"Side2Player1ID": m.Side2Player1ID,
		"Side2Player2ID": m.Side2Player2ID,
	}).ToSql()
	if err != nil {
		return err
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}

	m.ID, err = res.LastInsertId()

	return err
}

func (m *Match) updateScore(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Match").SetMap(squirrel.Eq{
		"Set1Side1": m.Set1Side1,
		"Set1Side2": m.Set1Side2,
		"Set2Side1": m.Set2Side1,
		"Set2Side2": m.Set2Side2,
		"Set3Side1": m.Set3Side1,
		"Set3Side2": m.Set3Side2,
		"RatedAt":   m.RatedAt,
	}).Where("Match.ID = ?", m.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getMatchByID(tx *sqlx.Tx, id int64) (Match, error) {
	var ret Match
	query := `SELECT * FROM Match WHERE Match.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		return Match{}, err
	}

	return ret, nil
}

// MatchWithPlayers is a Match with the players of both sides resolved.
type MatchWithPlayers struct {
	Match
	Side1, Side2 []Player
	Winner       Side
}

func resolveMatches(tx *sqlx.Tx, matches []Match) ([]MatchWithPlayers, error) {
	ids := make([]int64, 0, len(matches)*4)
	for k := range matches {
		ids = append(ids, matches[k].PlayerIDs()...)
	}

	players, err := getPlayersByIDs(tx, ids)
	if err != nil {
		return nil, err
	}

	pick := func(ids []int64) []Player {
		ret := make([]Player, 0, len(ids))
		for _, id := range ids {
			if p, ok := players[id]; ok {
				ret = append(ret, p)
			}
		}
		return ret
	}

	ret := make([]MatchWithPlayers, len(matches))
	for k := range matches {
		ret[k] = MatchWithPlayers{
			Match:  matches[k],
			Side1:  pick(matches[k].Side(Side1)),
			Side2:  pick(matches[k].Side(Side2)),
			Winner: matches[k].Winner(),
		}
	}

	return ret, nil
}

func (b *Back) GetMatch(id int64) (match MatchWithPlayers, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		m, err := getMatchByID(tx, id)
		if err != nil {
			return err
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

	return match, nil
}

// GetMatches returns the most recent matches first, limit <= 0 means all.
func (b *Back) GetMatches(limit int) (matches []MatchWithPlayers, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		q := squirrel.Select("*").From("Match").OrderBy("ID DESC")
		if limit > 0 {
			q = q.Limit(uint64(limit))
		}

		query, args, err := q.ToSql()
		if err != nil {
			return err
		}

		var raw []Match
		if err := tx.Select(&raw, query, args...); err != nil {
			return err
		}

		matches, err = resolveMatches(tx, raw)
		return err
	}); err != nil {
		return nil, err
	}

	return matches, nil
}
