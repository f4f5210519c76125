// Package action decodes the button payloads clients send back ("like_42",
// "reveal_7", ...) into typed actions, once, at the edge.
package action

import (
	"fmt"
	"strconv"
	"strings"

	svcErr "github.com/oggyb/crushconnect/internal/errors"
)

// Action is one of Like, Pass, Unlike, Reveal, Unmatch or Next.
type Action interface {
	// String encodes the action back into its payload form.
	String() string
	isAction()
}

// Like likes a candidate. "likeback_<id>" decodes to Like as well.
type Like struct{ TargetID uint64 }

// Pass skips a candidate.
type Pass struct{ TargetID uint64 }

// Unlike withdraws a one-sided like.
type Unlike struct{ TargetID uint64 }

// Reveal asks to reveal identities in a match.
type Reveal struct{ MatchID uint64 }

// Unmatch ends a match.
type Unmatch struct{ MatchID uint64 }

// Next asks for the next candidate.
type Next struct{}

func (a Like) String() string    { return "like_" + strconv.FormatUint(a.TargetID, 10) }
func (a Pass) String() string    { return "pass_" + strconv.FormatUint(a.TargetID, 10) }
func (a Unlike) String() string  { return "unlike_" + strconv.FormatUint(a.TargetID, 10) }
func (a Reveal) String() string  { return "reveal_" + strconv.FormatUint(a.MatchID, 10) }
func (a Unmatch) String() string { return "unmatch_" + strconv.FormatUint(a.MatchID, 10) }
func (Next) String() string      { return "next" }

func (Like) isAction()    {}
func (Pass) isAction()    {}
func (Unlike) isAction()  {}
func (Reveal) isAction()  {}
func (Unmatch) isAction() {}
func (Next) isAction()    {}

var decoders = map[string]func(id uint64) Action{
	"like":     func(id uint64) Action { return Like{TargetID: id} },
	"likeback": func(id uint64) Action { return Like{TargetID: id} },
	"pass":     func(id uint64) Action { return Pass{TargetID: id} },
	"unlike":   func(id uint64) Action { return Unlike{TargetID: id} },
	"reveal":   func(id uint64) Action { return Reveal{MatchID: id} },
	"unmatch":  func(id uint64) Action { return Unmatch{MatchID: id} },
}

// Decode parses a payload of the form "<verb>_<id>" or "next".
// Anything else, including ids that are not positive integers, is
// ErrInvalidArgument.
//
// Example:
//
//	a, _ := action.Decode("reveal_12") // action.Reveal{MatchID: 12}
func Decode(data string) (Action, error) {
	data = strings.TrimSpace(data)
	if data == "next" {
		return Next{}, nil
	}

	verb, rawID, ok := strings.Cut(data, "_")
	if !ok {
		return nil, fmt.Errorf("action %q: %w", data, svcErr.ErrInvalidArgument)
	}
	decode, known := decoders[verb]
	if !known {
		return nil, fmt.Errorf("action %q: unknown verb: %w", data, svcErr.ErrInvalidArgument)
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("action %q: bad id: %w", data, svcErr.ErrInvalidArgument)
	}
	return decode(id), nil
}
