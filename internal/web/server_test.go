package web_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"puma/internal/back"
	"puma/internal/config"
	"puma/internal/web"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "00000000000000000000000000000000"

type client struct {
	t       *testing.T
	handler http.Handler
}

func newClient(t *testing.T) *client {
	t.Helper()

	conf := config.Default()
	conf.DatabaseDSN = ":memory:"
	conf.WebToken = testToken

	b, err := back.New(conf)
	require.NoError(t, err)
	t.Cleanup(func() {
		b.Close()
	})

	return &client{t: t, handler: web.NewServer(b, conf).Handler()}
}

// do sends an authenticated request and decodes the JSON response in dst if
// it is not nil.
func (c *client) do(method, path, body string, dst interface{}) int {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if dst != nil {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
	}

	return rec.Code
}

func TestWritesRequireToken(t *testing.T) {
	c := newClient(t)

	cases := []struct {
		header string
		code   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer " + testToken, http.StatusCreated},
	}

	for _, v := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/players", strings.NewReader(`{"DisplayName": "Saria"}`))
		if v.header != "" {
			req.Header.Set("Authorization", v.header)
		}
		rec := httptest.NewRecorder()
		c.handler.ServeHTTP(rec, req)
		assert.Equal(t, v.code, rec.Code, v.header)
	}

	// Reads are public.
	req := httptest.NewRequest(http.MethodGet, "/v1/players", nil)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlayerLifecycle(t *testing.T) {
	c := newClient(t)

	var player struct {
		ID          int64
		DisplayName string
	}
	code := c.do(http.MethodPost, "/v1/players", `{"displayName": "Saria", "rating": 1600}`, &player)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Saria", player.DisplayName)

	var errResp struct{ Error string }
	code = c.do(http.MethodPost, "/v1/players", `{"displayName": "Saria"}`, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errResp.Error, "taken")

	code = c.do(http.MethodPost, "/v1/players", `{"displayName": "Saria", "nope": 1}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var history []struct {
		Reason    string
		NewRating float64
	}
	code = c.do(http.MethodPut, "/v1/players/1/rating", `{"rating": 1650}`, nil)
	require.Equal(t, http.StatusOK, code)
	code = c.do(http.MethodGet, "/v1/players/1/history", "", &history)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, history, 2)
	assert.Equal(t, "Manual adjustment from 1600.0 to 1650.0", history[0].Reason)

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/v1/players/42", "", nil))
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/v1/players/abc", "", nil))

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/v1/players/1", "", nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/v1/players/1", "", nil))

	// History outlives the player.
	code = c.do(http.MethodGet, "/v1/players/1/history", "", &history)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, history, 2)
}

func TestMatchFlow(t *testing.T) {
	c := newClient(t)

	var res back.ImportResult
	code := c.do(http.MethodPost, "/v1/import/players", "display_name,elo\nA,2000\nB,1800\nC,1600\nD,1400\nE,1000\n", &res)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 5, res.Imported)

	require.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/v1/available", `{"PlayerIDs": [1, 2, 3, 4, 5]}`, nil))

	var pool []struct{ ID int64 }
	code = c.do(http.MethodGet, "/v1/available?minRank=1&maxRank=4", "", &pool)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, pool, 4)

	var match struct {
		ID    int64
		Kind  string
		Side1 []struct{ DisplayName string }
		Side2 []struct{ DisplayName string }
	}
	code = c.do(http.MethodPost, "/v1/matches", `{"kind": "doubles", "method": "balanced", "maxRank": 4}`, &match)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "doubles", match.Kind)
	require.Len(t, match.Side1, 2)
	assert.Equal(t, "A", match.Side1[0].DisplayName)
	assert.Equal(t, "D", match.Side1[1].DisplayName)

	var prediction struct{ Side1WinProbability float64 }
	code = c.do(http.MethodGet, "/v1/matches/1/predict", "", &prediction)
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 0.5, prediction.Side1WinProbability, 1e-9)

	code = c.do(http.MethodGet, "/v1/predict?a=1&b=5", "", &prediction)
	require.Equal(t, http.StatusOK, code)
	assert.Greater(t, prediction.Side1WinProbability, 0.9)

	var scored struct {
		History []struct{ Reason string }
	}
	code = c.do(http.MethodPut, "/v1/matches/1/score", `{"sets": [{"Side1": 21, "Side2": 15}, {"Side1": 21, "Side2": 19}]}`, &scored)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, scored.History, 4)
	assert.Equal(t, "Match #1: Victory (2-0)", scored.History[0].Reason)

	code = c.do(http.MethodPut, "/v1/matches/1/score", `{"sets": [{"Side1": 0, "Side2": 21}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Only one player is left, not enough for another match.
	code = c.do(http.MethodPost, "/v1/matches", `{"kind": "singles"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/v1/matches/1/return", "", nil))
	code = c.do(http.MethodGet, "/v1/available", "", &pool)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, pool, 5)

	var leaderboard []struct {
		Rank int
		Wins int
	}
	code = c.do(http.MethodGet, "/v1/leaderboard", "", &leaderboard)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, leaderboard, 5)
}

func TestRatingsGraph(t *testing.T) {
	c := newClient(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats/ratings.svg", nil)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))
}

func TestMetrics(t *testing.T) {
	c := newClient(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
