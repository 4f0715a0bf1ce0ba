package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultDatabaseDSN        = "./puma.db"
	DefaultHTTPAddress        = "127.0.0.1:3001"
	DefaultMaxOptimalCombinations = 50000
)

type Config struct {
	// DatabaseDSN is the path to the SQLite database.
	DatabaseDSN string

	// HTTPAddress is where the JSON API listens, empty disables it.
	HTTPAddress string

	// DiscordListenIDs is a list of channel ID where the bot will listen and
	// accept commands. PMs are always listened to.
	DiscordListenIDs []string

	// Who is allowed to act on behalf of other players and create matches.
	DiscordAdminUserIDs []string

	// Who is not allowed to do anything.
	DiscordBannedUserIDs []string

	// MaxOptimalCombinations bounds the number of candidate teams the
	// exhaustive search may evaluate, C(players, team size).
	MaxOptimalCombinations int

	DiscordToken, WebToken string
}

// Default returns a configuration with every default set and nothing read
// from disk nor from the environment.
func Default() *Config {
	c := &Config{}
	c.setDefaults()

	return c
}

func NewFromUserConfigDir() (*Config, error) {
	c := &Config{}
	if err := c.ReloadFromUserConfigDir(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) setDefaults() {
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = DefaultDatabaseDSN
	}

	if c.HTTPAddress == "" {
		c.HTTPAddress = DefaultHTTPAddress
	}

	if c.MaxOptimalCombinations <= 0 {
		c.MaxOptimalCombinations = DefaultMaxOptimalCombinations
	}
}

func (c *Config) expandFromEnv() {
	// A missing .env is the common case, anything else is worth a warning.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: unable to load .env: %s", err)
	}

	vars := []struct {
		src string
		dst *string
	}{
		{"PUMA_DB", &c.DatabaseDSN},
		{"PUMA_HTTP_ADDRESS", &c.HTTPAddress},
		{"PUMA_DISCORD_TOKEN", &c.DiscordToken},
		{"PUMA_WEB_TOKEN", &c.WebToken},
	}

	for _, v := range vars {
		if str := os.Getenv(v.src); str != "" {
			*v.dst = str
		}
	}

	if str := os.Getenv("PUMA_MAX_OPTIMAL_COMBINATIONS"); str != "" {
		n, err := strconv.Atoi(str)
		if err != nil {
			log.Printf("warning: ignoring PUMA_MAX_OPTIMAL_COMBINATIONS: %s", err)
		} else {
			c.MaxOptimalCombinations = n
		}
	}

	c.setDefaults()
}

func (c *Config) ReloadFromUserConfigDir() error {
	defer c.expandFromEnv()

	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}
	log.Printf("debug: reading conf from %s", path)

	return c.ReadFile(path)
}

// ReadFile replaces the configuration with the contents of the JSON file at
// path, a missing file yields an empty configuration.
func (c *Config) ReadFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		*c = Config{}
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	*c = Config{}

	return json.NewDecoder(f).Decode(c)
}

func getOrCreateUserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "puma")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.json"), nil
}

func (c *Config) Write() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}
	log.Printf("debug: writing conf to %s", path)

	return c.WriteFile(path)
}

func (c *Config) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(c); err != nil {
		if err2 := f.Close(); err2 != nil {
			return fmt.Errorf("unable to close file (%s) after error: %w", err2, err)
		}

		return err
	}

	return f.Close()
}

func (c *Config) IsDiscordAdmin(userID string) bool {
	return contains(c.DiscordAdminUserIDs, userID)
}

func (c *Config) IsDiscordBanned(userID string) bool {
	return contains(c.DiscordBannedUserIDs, userID)
}

// ListensTo returns true if the bot should accept commands from the channel.
// An empty list means every channel.
func (c *Config) ListensTo(channelID string) bool {
	return len(c.DiscordListenIDs) == 0 || contains(c.DiscordListenIDs, channelID)
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}

	return false
}
