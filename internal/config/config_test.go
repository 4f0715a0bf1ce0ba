package config_test

import (
	"path/filepath"
	"puma/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	assert.Equal(t, config.DefaultDatabaseDSN, c.DatabaseDSN)
	assert.Equal(t, config.DefaultHTTPAddress, c.HTTPAddress)
	assert.Equal(t, config.DefaultMaxOptimalCombinations, c.MaxOptimalCombinations)
	assert.False(t, c.WritesEnabled())
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	c := config.Default()
	c.WebToken = testToken
	c.DiscordAdminUserIDs = []string{"42"}
	require.NoError(t, c.WriteFile(path))

	var read config.Config
	require.NoError(t, read.ReadFile(path))
	assert.Equal(t, *c, read)
	assert.True(t, read.IsDiscordAdmin("42"))
	assert.False(t, read.IsDiscordAdmin("43"))
}

func TestReadFileMissing(t *testing.T) {
	c := config.Config{WebToken: testToken}
	require.NoError(t, c.ReadFile(filepath.Join(t.TempDir(), "nope.json")))
	assert.Equal(t, config.Config{}, c)
}

func TestListensTo(t *testing.T) {
	c := config.Config{}
	assert.True(t, c.ListensTo("1"))

	c.DiscordListenIDs = []string{"2"}
	assert.False(t, c.ListensTo("1"))
	assert.True(t, c.ListensTo("2"))
}
