package core

// Verdict is the confidence that a message pertains to the tracked profile
type Verdict string

const (
	ConfirmedMatch Verdict = "CONFIRMED_MATCH"
	Possibility    Verdict = "POSSIBILITY"
	PartialMatch   Verdict = "PARTIAL_MATCH"
	NoMatch        Verdict = "NO_MATCH"
)

// verdictHierarchy lists verdicts strongest first; the index is the rank
var verdictHierarchy = []Verdict{ConfirmedMatch, Possibility, PartialMatch, NoMatch}

// Verdicts returns all known verdicts, strongest first
func Verdicts() []Verdict {
	out := make([]Verdict, len(verdictHierarchy))
	copy(out, verdictHierarchy)
	return out
}

// Rank returns the position of the verdict in the confidence order.
// Unknown values rank below NoMatch.
func (v Verdict) Rank() int {
	for i, known := range verdictHierarchy {
		if v == known {
			return i
		}
	}
	return len(verdictHierarchy)
}

// Valid reports whether v is one of the four known verdicts
func (v Verdict) Valid() bool {
	return v.Rank() < len(verdictHierarchy)
}

// StrongerThan reports whether v carries more confidence than other
func (v Verdict) StrongerThan(other Verdict) bool {
	return v.Rank() < other.Rank()
}

// IsMatch reports whether the verdict is anything other than NoMatch
func (v Verdict) IsMatch() bool {
	return v.Valid() && v != NoMatch
}

func (v Verdict) String() string {
	return string(v)
}

// Fuse combines independently computed verdicts by keeping the strongest.
// Empty and unknown values are ignored; with nothing left the result is NoMatch.
func Fuse(verdicts ...Verdict) Verdict {
	best := NoMatch
	for _, v := range verdicts {
		if !v.Valid() {
			continue
		}
		if v.StrongerThan(best) {
			best = v
		}
	}
	return best
}

// Decide maps the two identity signals onto a verdict.
// idMatched covers either a registration code or an email address.
func Decide(nameMatched, idMatched bool) Verdict {
	switch {
	case nameMatched && idMatched:
		return ConfirmedMatch
	case nameMatched:
		return Possibility
	case idMatched:
		return PartialMatch
	default:
		return NoMatch
	}
}
