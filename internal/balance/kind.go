package balance

import (
	"fmt"
	"puma/internal/elo"
	"strings"
)

// Kind is the format of a match.
type Kind int

const ( // this is stored in DB, don't change values
	KindDoubles Kind = 0
	KindSingles Kind = 1
)

// TeamSize returns the number of players per team.
func (k Kind) TeamSize() int {
	if k == KindSingles {
		return 1
	}

	return DoublesTeamSize
}

// MinPlayers returns the smallest pool a match of this kind can be created
// from.
func (k Kind) MinPlayers() int {
	return 2 * k.TeamSize()
}

func (k Kind) String() string {
	switch k {
	case KindDoubles:
		return "doubles"
	case KindSingles:
		return "singles"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the reverse of Kind.String.
func ParseKind(str string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "doubles", "":
		return KindDoubles, nil
	case "singles":
		return KindSingles, nil
	default:
		return 0, fmt.Errorf("%w: unknown match kind %q", elo.ErrInvalidArgument, str)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) (err error) {
	*k, err = ParseKind(string(b))
	return err
}

// Method is the team selection policy used for doubles.
type Method int

const ( // this is stored in DB, don't change values
	MethodRandom   Method = 0
	MethodBalanced Method = 1 // best+worst vs middle two
	MethodOptimal  Method = 2 // exhaustive search
)

func (m Method) String() string {
	switch m {
	case MethodRandom:
		return "random"
	case MethodBalanced:
		return "balanced"
	case MethodOptimal:
		return "optimal"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod is the reverse of Method.String.
func ParseMethod(str string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "random":
		return MethodRandom, nil
	case "balanced", "heuristic":
		return MethodBalanced, nil
	case "optimal", "":
		return MethodOptimal, nil
	default:
		return 0, fmt.Errorf("%w: unknown pairing method %q", elo.ErrInvalidArgument, str)
	}
}

func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(b []byte) (err error) {
	*m, err = ParseMethod(string(b))
	return err
}
