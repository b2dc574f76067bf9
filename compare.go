package cubetracker

import (
	"fmt"
	"strings"
)

// EventKind tags a MoveEvent.
type EventKind int

const (
	// EventMove is a cube leaving From and showing up on To.
	EventMove EventKind = iota
	// EventCaptureInPlace is a cube on From replaced by a cube of another color.
	EventCaptureInPlace
	// EventRemoved is a cube gone from From.
	EventRemoved
	// EventAdded is a new cube on To.
	EventAdded
)

func (k EventKind) String() string {
	switch k {
	case EventMove:
		return "move"
	case EventCaptureInPlace:
		return "captured"
	case EventRemoved:
		return "removed"
	case EventAdded:
		return "added"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// MoveEvent is one change between two board states.
// Move uses From and To, CaptureInPlace and Removed use From, Added uses To.
type MoveEvent struct {
	Kind     EventKind
	From, To SquareLabel
}

// Token is the compact form consumed by the arm: a1a2, a1captured, a1removed, newb3.
func (e MoveEvent) Token() string {
	switch e.Kind {
	case EventMove:
		return e.From.Token() + e.To.Token()
	case EventCaptureInPlace:
		return e.From.Token() + "captured"
	case EventRemoved:
		return e.From.Token() + "removed"
	case EventAdded:
		return "new" + e.To.Token()
	}
	return ""
}

func (e MoveEvent) String() string {
	switch e.Kind {
	case EventMove:
		return fmt.Sprintf("cube moved from %v to %v", e.From, e.To)
	case EventCaptureInPlace:
		return fmt.Sprintf("cube at %v was captured and replaced", e.From)
	case EventRemoved:
		return fmt.Sprintf("cube at %v was removed", e.From)
	case EventAdded:
		return fmt.Sprintf("new cube detected at %v", e.To)
	}
	return e.Kind.String()
}

// Tokens returns the token of each event, in order.
func Tokens(events []MoveEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Token())
	}
	return out
}

type placedCube struct {
	square SquareLabel
	color  string
}

// CompareBoards works out what happened between before and after.
//
// Changed colors on a square count as a removal plus an addition there.
// Removals are matched greedily to the first unmatched addition of the same
// color, giving moves. Unmatched removals on a square that some move ended on
// are not reported. An unmatched removal and addition left on the same
// square become one capture in place. Everything else is a plain removal or
// addition.
//
// Squares are visited in board order (common squares first), so the result
// is deterministic. Events come out as moves, then captures and removals,
// then additions.
//
// Squares holding more than one cube are not supported and return
// ErrMultipleOccupants.
func CompareBoards(before, after BoardState) ([]MoveEvent, error) {
	if err := requireSingleOccupants(before, "before"); err != nil {
		return nil, err
	}
	if err := requireSingleOccupants(after, "after"); err != nil {
		return nil, err
	}

	var removed, added []placedCube
	var onlyBefore, onlyAfter []SquareLabel

	for _, sq := range before.Labels() {
		oldColor := before[sq][0]
		newOcc, ok := after[sq]
		if !ok {
			onlyBefore = append(onlyBefore, sq)
			continue
		}
		if newColor := newOcc[0]; newColor != oldColor {
			removed = append(removed, placedCube{sq, oldColor})
			added = append(added, placedCube{sq, newColor})
		}
	}
	for _, sq := range after.Labels() {
		if _, ok := before[sq]; !ok {
			onlyAfter = append(onlyAfter, sq)
		}
	}
	for _, sq := range onlyBefore {
		removed = append(removed, placedCube{sq, before[sq][0]})
	}
	for _, sq := range onlyAfter {
		added = append(added, placedCube{sq, after[sq][0]})
	}

	var events []MoveEvent
	matchedRemoved := make([]bool, len(removed))
	matchedAdded := make([]bool, len(added))
	movementTargets := map[SquareLabel]bool{}

	for i, r := range removed {
		for j, a := range added {
			if matchedAdded[j] || a.color != r.color {
				continue
			}
			matchedRemoved[i] = true
			matchedAdded[j] = true
			movementTargets[a.square] = true
			if r.square == a.square {
				events = append(events, MoveEvent{Kind: EventCaptureInPlace, From: r.square})
			} else {
				events = append(events, MoveEvent{Kind: EventMove, From: r.square, To: a.square})
			}
			break
		}
	}

	// additions still unmatched, by square, for capture-in-place pairing
	pendingAdded := map[SquareLabel]int{}
	for j, a := range added {
		if !matchedAdded[j] {
			pendingAdded[a.square] = j
		}
	}

	for i, r := range removed {
		if matchedRemoved[i] || movementTargets[r.square] {
			continue
		}
		if j, ok := pendingAdded[r.square]; ok {
			matchedAdded[j] = true
			delete(pendingAdded, r.square)
			events = append(events, MoveEvent{Kind: EventCaptureInPlace, From: r.square})
			continue
		}
		events = append(events, MoveEvent{Kind: EventRemoved, From: r.square})
	}

	for j, a := range added {
		if !matchedAdded[j] {
			events = append(events, MoveEvent{Kind: EventAdded, To: a.square})
		}
	}

	return events, nil
}

func requireSingleOccupants(s BoardState, which string) error {
	var bad []string
	for _, sq := range s.Labels() {
		if _, ok := s[sq].Single(); !ok {
			bad = append(bad, fmt.Sprintf("%v (%v)", sq, s[sq]))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%s state: %s: %w", which, strings.Join(bad, "; "), ErrMultipleOccupants)
	}
	return nil
}
