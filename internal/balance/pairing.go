package balance

import (
	"fmt"
	"math"
	"math/rand"
	"puma/internal/elo"
	"sort"
)

// DoublesTeamSize is the number of players per team in a doubles match.
const DoublesTeamSize = 2

// Random picks four distinct players uniformly without replacement and
// splits them first two against last two. There is no fairness guarantee,
// this is meant for casual play. A nil rnd uses the math/rand global source.
func Random(pool Roster, rnd *rand.Rand) (Pairing, error) {
	if err := requirePlayers(pool, 2*DoublesTeamSize); err != nil {
		return Pairing{}, err
	}

	players, err := normalize(pool)
	if err != nil {
		return Pairing{}, err
	}

	// Partial Fisher-Yates on a copy of the indices.
	indices := make([]int, len(players))
	for k := range indices {
		indices[k] = k
	}
	for i := 0; i < 2*DoublesTeamSize; i++ {
		j := i + intn(rnd, len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	return Pairing{
		A: []int64{players[indices[0]].id, players[indices[1]].id},
		B: []int64{players[indices[2]].id, players[indices[3]].id},
	}, nil
}

func intn(rnd *rand.Rand, n int) int {
	if rnd == nil {
		return rand.Intn(n) // nolint:gosec
	}

	return rnd.Intn(n)
}

// Heuristic pairs the best and the worst of the four highest rated players
// against the two in the middle. Only the top four participate, ties keep
// the pool order.
func Heuristic(pool Roster) (Pairing, error) {
	if err := requirePlayers(pool, 2*DoublesTeamSize); err != nil {
		return Pairing{}, err
	}

	players, err := normalize(pool)
	if err != nil {
		return Pairing{}, err
	}

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].rating > players[j].rating
	})

	return Pairing{
		A: []int64{players[0].id, players[3].id},
		B: []int64{players[1].id, players[2].id},
	}, nil
}

// Singles is Optimal with one player per team. Because of how Optimal picks
// team B, every candidate pairing involves one of the first two pool entries.
func Singles(pool Roster) (Pairing, error) {
	return Optimal(pool, 1)
}

// Optimal exhaustively searches every combination of teamSize players for
// team A and keeps the one minimizing |sum(A) - sum(B)|, the first found
// wins ties. This costs O(C(n, teamSize)), callers must bound the pool.
//
// Team B is not chosen combinatorially: it is always the first teamSize
// players left over in pool order. This restricts the partitions considered
// and may be unintended, it is kept as-is until confirmed otherwise.
func Optimal(pool Roster, teamSize int) (Pairing, error) {
	if teamSize < 1 {
		return Pairing{}, fmt.Errorf("%w: team size must be positive, got %d", elo.ErrInvalidArgument, teamSize)
	}

	if err := requirePlayers(pool, 2*teamSize); err != nil {
		return Pairing{}, err
	}

	players, err := normalize(pool)
	if err != nil {
		return Pairing{}, err
	}

	var (
		n        = len(players)
		bestDiff = math.Inf(1)
		bestA    = make([]int, teamSize)
		bestB    = make([]int, teamSize)
		combo    = make([]int, teamSize)
		others   = make([]int, teamSize)
		inA      = make([]bool, n)
	)

	for k := range combo {
		combo[k] = k
	}

	for {
		for k := range inA {
			inA[k] = false
		}

		var sumA, sumB float64
		for _, i := range combo {
			inA[i] = true
			sumA += players[i].rating
		}

		found := 0
		for i := 0; i < n && found < teamSize; i++ {
			if inA[i] {
				continue
			}
			others[found] = i
			sumB += players[i].rating
			found++
		}

		if diff := math.Abs(sumA - sumB); diff < bestDiff {
			bestDiff = diff
			copy(bestA, combo)
			copy(bestB, others)
		}

		if !nextCombination(combo, n) {
			break
		}
	}

	pairing := Pairing{A: make([]int64, teamSize), B: make([]int64, teamSize)}
	for k := 0; k < teamSize; k++ {
		pairing.A[k] = players[bestA[k]].id
		pairing.B[k] = players[bestB[k]].id
	}

	return pairing, nil
}

// Combinations returns C(n, k), the number of team A candidates Optimal
// evaluates for a pool of n players. It saturates at math.MaxInt.
func Combinations(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}

	ret := 1
	for i := 0; i < k; i++ {
		// ret*(n-i) is always divisible by i+1.
		if ret > math.MaxInt/(n-i) {
			return math.MaxInt
		}
		ret = ret * (n - i) / (i + 1)
	}

	return ret
}

// nextCombination advances combo to the next k-combination of [0, n) in
// lexicographic order and returns false once the last one was reached.
func nextCombination(combo []int, n int) bool {
	k := len(combo)
	i := k - 1
	for i >= 0 && combo[i] == n-k+i {
		i--
	}

	if i < 0 {
		return false
	}

	combo[i]++
	for j := i + 1; j < k; j++ {
		combo[j] = combo[j-1] + 1
	}

	return true
}

// Pick creates a pairing of the given kind using the given method. Singles
// ignore the method and always go through Singles.
func Pick(kind Kind, method Method, pool Roster, rnd *rand.Rand) (Pairing, error) {
	switch kind {
	case KindSingles:
		return Singles(pool)
	case KindDoubles:
	default:
		return Pairing{}, fmt.Errorf("%w: unknown match kind %d", elo.ErrInvalidArgument, kind)
	}

	switch method {
	case MethodRandom:
		return Random(pool, rnd)
	case MethodBalanced:
		return Heuristic(pool)
	case MethodOptimal:
		return Optimal(pool, DoublesTeamSize)
	default:
		return Pairing{}, fmt.Errorf("%w: unknown method %d", elo.ErrInvalidArgument, method)
	}
}
