// AngelaMos | 2026
// vote.go

package vote

// Kind names the content type a vote or view targets.
type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Position is where one voter stands on one content item. A voter holds
// exactly one position per item, so upvotes and downvotes never overlap.
type Position string

const (
	None      Position = "none"
	Upvoted   Position = "upvoted"
	Downvoted Position = "downvoted"
)

type Op string

const (
	OpUpvote         Op = "upvote"
	OpDownvote       Op = "downvote"
	OpUnvote         Op = "unvote"
	OpUnvoteDownvote Op = "unvote-downvote"
)

func (o Op) valid() bool {
	switch o {
	case OpUpvote, OpDownvote, OpUnvote, OpUnvoteDownvote:
		return true
	}
	return false
}

func (p Position) direction() Direction {
	if p == Downvoted {
		return Down
	}
	return Up
}

// Apply is the per-voter transition function.
//
//	upvote          any       -> upvoted
//	downvote        any       -> downvoted
//	unvote          upvoted   -> none, otherwise unchanged
//	unvote-downvote downvoted -> none, otherwise unchanged
func Apply(p Position, op Op) Position {
	switch op {
	case OpUpvote:
		return Upvoted
	case OpDownvote:
		return Downvoted
	case OpUnvote:
		if p == Upvoted {
			return None
		}
	case OpUnvoteDownvote:
		if p == Downvoted {
			return None
		}
	}
	return p
}

// Tally lists voter ids per direction in the order the votes were cast.
type Tally struct {
	Upvotes   []string `json:"upvotes"`
	Downvotes []string `json:"downvotes"`
}

func NewTally() Tally {
	return Tally{Upvotes: []string{}, Downvotes: []string{}}
}

func (t Tally) Score() int {
	return len(t.Upvotes) - len(t.Downvotes)
}

// PositionOf reports where userID stands in t.
func (t Tally) PositionOf(userID string) Position {
	for _, id := range t.Upvotes {
		if id == userID {
			return Upvoted
		}
	}
	for _, id := range t.Downvotes {
		if id == userID {
			return Downvoted
		}
	}
	return None
}
