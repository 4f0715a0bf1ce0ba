// Package elo implements the paired-comparison rating update used by the
// ladder. Every function is pure and safe to call concurrently.
package elo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// K is the fixed K-factor, the most a single result can move a rating.
	K = 32.0

	// DefaultRating is given to players that were never rated.
	DefaultRating = 1500.0

	// spread is the rating difference at which the stronger side is expected
	// to win ten times as often.
	spread = 400.0
)

// ErrInvalidArgument is returned for inputs the engine has no defined output
// for: empty teams and malformed roster entries.
var ErrInvalidArgument = errors.New("invalid argument")

// Outcome is the actual score of a player in a match.
type Outcome float64

const (
	Loss Outcome = 0
	Draw Outcome = 0.5
	Win  Outcome = 1
)

// OutcomeFromWin returns Win if won is true, Loss otherwise.
func OutcomeFromWin(won bool) Outcome {
	if won {
		return Win
	}

	return Loss
}

// ExpectedScore returns the probability of a player rated a beating a player
// rated b.
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/spread))
}

// Delta returns the rating change for a player after a match with the given
// result against an opponent. It is not clamped and can be negative.
func Delta(rating, opponent float64, result Outcome) float64 {
	return K * (float64(result) - ExpectedScore(rating, opponent))
}

// Average returns the arithmetic mean of a team's ratings.
func Average(ratings []float64) (float64, error) {
	if len(ratings) == 0 {
		return 0, fmt.Errorf("%w: empty team", ErrInvalidArgument)
	}

	var sum float64
	for _, v := range ratings {
		sum += v
	}

	return sum / float64(len(ratings)), nil
}

// UpdateTeams returns the new ratings of both teams after a decided match.
// Each player is rated against the average of the opposing team, not their
// own team's. The returned slices have the same length and order as the
// inputs, which are left untouched.
func UpdateTeams(a, b []float64, aWon bool) ([]float64, []float64, error) {
	avgA, err := Average(a)
	if err != nil {
		return nil, nil, fmt.Errorf("team A: %w", err)
	}

	avgB, err := Average(b)
	if err != nil {
		return nil, nil, fmt.Errorf("team B: %w", err)
	}

	resultA := OutcomeFromWin(aWon)
	resultB := OutcomeFromWin(!aWon)

	newA := make([]float64, len(a))
	for k, v := range a {
		newA[k] = v + Delta(v, avgB, resultA)
	}

	newB := make([]float64, len(b))
	for k, v := range b {
		newB[k] = v + Delta(v, avgA, resultB)
	}

	return newA, newB, nil
}

// WinProbability returns the probability of team a beating team b, computed
// on the team averages.
func WinProbability(a, b []float64) (float64, error) {
	avgA, err := Average(a)
	if err != nil {
		return 0, fmt.Errorf("team A: %w", err)
	}

	avgB, err := Average(b)
	if err != nil {
		return 0, fmt.Errorf("team B: %w", err)
	}

	return ExpectedScore(avgA, avgB), nil
}
