package bot // nolint:testpackage

import (
	"bytes"
	"puma/internal/back"
	"puma/internal/balance"
	"puma/internal/config"
	"testing"

	"github.com/bwmarrin/discordgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

const adminID = "1000"

func createTestBot(t *testing.T) *Bot {
	t.Helper()

	conf := config.Default()
	conf.DatabaseDSN = ":memory:"
	conf.DiscordAdminUserIDs = []string{adminID}

	b, err := back.New(conf)
	require.NoError(t, err)
	t.Cleanup(func() {
		b.Close()
	})

	for k, name := range []string{"Darunia", "Nabooru", "Rauru", "Ruto"} {
		_, err := b.CreatePlayer(back.PlayerInput{DisplayName: name}, null.FloatFrom(1800-float64(k)*100))
		require.NoError(t, err)
	}

	bot, err := New(b, conf)
	require.NoError(t, err)

	return bot
}

// send runs a command as the given Discord user and returns the reply.
func send(bot *Bot, userID, content string) string {
	var buf bytes.Buffer
	bot.run(&discordgo.Message{
		Content: content,
		Author:  &discordgo.User{ID: userID},
	}, &buf)

	return buf.String()
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		input   string
		command string
		args    []string
	}{
		{"", "", nil},
		{"!help", "!help", nil},
		{"!Match  singles   random", "!match", []string{"singles", "random"}},
		{"!score 3 21-15 18-21", "!score", []string{"3", "21-15", "18-21"}},
	}

	for _, v := range cases {
		command, args := parseCommand(v.input)
		assert.Equal(t, v.command, command, v.input)
		assert.Equal(t, v.args, args, v.input)
	}
}

func TestParseMatchRequest(t *testing.T) {
	req, err := parseMatchRequest(nil)
	require.NoError(t, err)
	assert.Equal(t, balance.KindDoubles, req.Kind)
	assert.Equal(t, balance.MethodOptimal, req.Method)

	req, err = parseMatchRequest([]string{"singles"})
	require.NoError(t, err)
	assert.Equal(t, balance.KindSingles, req.Kind)

	req, err = parseMatchRequest([]string{"doubles", "heuristic"})
	require.NoError(t, err)
	assert.Equal(t, balance.MethodBalanced, req.Method)

	_, err = parseMatchRequest([]string{"triples"})
	assert.Error(t, err)
	_, err = parseMatchRequest([]string{"doubles", "random", "now"})
	assert.Error(t, err)
}

func TestParseScore(t *testing.T) {
	id, err := parseMatchID([]string{"#12"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = parseMatchID(nil)
	assert.Error(t, err)
	_, err = parseMatchID([]string{"-1"})
	assert.Error(t, err)

	sets, err := parseSets([]string{"21-15", "18-21"})
	require.NoError(t, err)
	assert.Equal(t, []back.Set{{Side1: 21, Side2: 15}, {Side1: 18, Side2: 21}}, sets)

	_, err = parseSets(nil)
	assert.Error(t, err)
	_, err = parseSets([]string{"1-0", "1-0", "1-0", "1-0"})
	assert.Error(t, err)
	_, err = parseSets([]string{"21:15"})
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	bot := createTestBot(t)

	out := send(bot, "1", "!in")
	assert.Contains(t, out, "not registered")

	out = send(bot, "1", "!register Darunia")
	assert.Contains(t, out, "registered as `Darunia`")

	out = send(bot, "2", "!register Darunia")
	assert.Contains(t, out, "linked to another account")

	assert.Contains(t, send(bot, "1", "!in"), "`Darunia` is waiting")
	assert.Contains(t, send(bot, "1", "!in Nabooru"), "`Nabooru` is waiting")
	assert.Contains(t, send(bot, "1", "!in Nobody"), "no player named `Nobody`")

	out = send(bot, "1", "!available")
	assert.Contains(t, out, "2 players")
	assert.Contains(t, out, "1. Darunia (1800.0)")

	out = send(bot, "1", "!match doubles")
	assert.Contains(t, out, "not enough available players")

	out = send(bot, "1", "!match singles")
	assert.Contains(t, out, "**Match #1** (singles, optimal)")
	assert.Contains(t, out, "Darunia vs. Nabooru")

	assert.Contains(t, send(bot, "1", "!odds 1"), "Darunia: 64%")

	out = send(bot, "1", "!score 1 21-15 21-19")
	assert.Contains(t, out, "**Darunia win**")
	assert.Contains(t, out, "- Darunia: 1811.5 (+11.5)")

	assert.Contains(t, send(bot, "1", "!score 1 21-15"), "already")
	assert.Contains(t, send(bot, "1", "!odds 42"), "no match #42")

	assert.Contains(t, send(bot, "1", "!return 1"), "2 players of match #1")
	assert.Contains(t, send(bot, "1", "!out"), "`Darunia` left the pool")

	out = send(bot, "1", "!leaderboard")
	assert.Contains(t, out, "Darunia")
	assert.Contains(t, out, "1-0")
}

func TestUnknownCommand(t *testing.T) {
	bot := createTestBot(t)

	out := send(bot, "1", "!nope")
	assert.Contains(t, out, "invalid command: !nope")
}

func TestAdminCommands(t *testing.T) {
	bot := createTestBot(t)

	// Non-public errors are not echoed.
	out := send(bot, "1", "!dev error")
	assert.Contains(t, out, "An admin will check the logs")
	assert.NotContains(t, out, "non-admin")

	assert.Contains(t, send(bot, adminID, "!dev error"), "here's your error")
	assert.Contains(t, send(bot, adminID, "!dev save"), "saved")
	assert.Contains(t, send(bot, adminID, "!dev load"), "restored")

	assert.NotContains(t, send(bot, "1", "!help"), "Admin-only")
	assert.Contains(t, send(bot, adminID, "!help"), "Admin-only")
}

func TestRateLimit(t *testing.T) {
	bot := createTestBot(t)

	for i := 0; i < commandBurst; i++ {
		assert.True(t, bot.allow("1"))
	}
	assert.False(t, bot.allow("1"))
	assert.True(t, bot.allow("2"))
}
