package cubetracker

import (
	"slices"
	"strings"
)

// Occupant lists the cube colors seen on one square, in detection order.
// Normally it holds exactly one color.
type Occupant []string

// Single returns the color when exactly one cube is on the square.
func (o Occupant) Single() (string, bool) {
	if len(o) != 1 {
		return "", false
	}
	return o[0], true
}

func (o Occupant) String() string {
	return strings.Join(o, ", ")
}

// BoardState maps occupied squares to what is on them. Empty squares are absent.
type BoardState map[SquareLabel]Occupant

// Clone returns a deep copy.
func (s BoardState) Clone() BoardState {
	if s == nil {
		return nil
	}
	out := make(BoardState, len(s))
	for k, v := range s {
		out[k] = slices.Clone(v)
	}
	return out
}

// Labels returns the occupied squares in board order.
func (s BoardState) Labels() []SquareLabel {
	labels := make([]SquareLabel, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sortLabels(labels)
	return labels
}

// Strings is the state keyed by label text, colors joined with ", ".
func (s BoardState) Strings() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k.String()] = v.String()
	}
	return out
}

// Lines renders the state as "A1: blue" lines in board order.
func (s BoardState) Lines() []string {
	labels := s.Labels()
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.String()+": "+s[l].String())
	}
	return out
}

func sortLabels(labels []SquareLabel) {
	slices.SortFunc(labels, func(a, b SquareLabel) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		}
		return 0
	})
}
