package interval

import (
	"cmp"
	"slices"
)

type eventKind int8

// Enters sort before exits at the same depth so that touching intervals
// never open a zero-width gap.
const (
	enterEvent eventKind = iota
	exitEvent
)

type event struct {
	depth  float64
	kind   eventKind
	source int // index into the input slice
}

// sweepState is the multiset of intervals open between two event depths
type sweepState struct {
	open       int
	components map[ComponentID]int
	hints      map[float64]int
}

func (s *sweepState) apply(iv Interval, kind eventKind) {
	delta := 1
	if kind == exitEvent {
		delta = -1
	}
	s.open += delta
	for _, c := range iv.Components {
		adjustCount(s.components, c, delta)
	}
	if iv.StepLength > 0 {
		adjustCount(s.hints, iv.StepLength, delta)
	}
}

func adjustCount[K comparable](m map[K]int, key K, delta int) {
	if n := m[key] + delta; n > 0 {
		m[key] = n
	} else {
		delete(m, key)
	}
}

// stepHint is the finest positive hint among the open intervals
func (s *sweepState) stepHint() float64 {
	hint := 0.0
	for h := range s.hints {
		if hint == 0 || h < hint {
			hint = h
		}
	}
	return hint
}

// Split converts possibly overlapping intervals into a disjoint sequence
// ordered by ascending Min that covers the union of the inputs.
//
// Each output interval carries the sorted set of components active over it.
// Neighbouring pieces with the same components and step hint are merged, so
// a component whose intervals touch or overlap yields one continuous range
// and Split(Split(x)) equals Split(x). Intervals with NaN bounds or without
// positive length are dropped.
func Split(intervals []Interval) []Interval {
	events := make([]event, 0, 2*len(intervals))
	for i, iv := range intervals {
		if iv.IsDegenerate() {
			continue
		}
		events = append(events,
			event{depth: iv.Min, kind: enterEvent, source: i},
			event{depth: iv.Max, kind: exitEvent, source: i})
	}
	if len(events) == 0 {
		return nil
	}

	slices.SortFunc(events, func(a, b event) int {
		if c := cmp.Compare(a.depth, b.depth); c != 0 {
			return c
		}
		if c := cmp.Compare(a.kind, b.kind); c != 0 {
			return c
		}
		return cmp.Compare(a.source, b.source)
	})

	state := sweepState{
		components: make(map[ComponentID]int),
		hints:      make(map[float64]int),
	}

	var result []Interval
	for i := 0; i < len(events); {
		depth := events[i].depth
		for i < len(events) && events[i].depth == depth {
			state.apply(intervals[events[i].source], events[i].kind)
			i++
		}
		if i == len(events) || state.open == 0 {
			continue
		}
		result = appendPiece(result, depth, events[i].depth, &state)
	}

	return result
}

// appendPiece emits [min, max) for the current sweep state, extending the
// previous piece instead when it continues it with identical metadata.
func appendPiece(result []Interval, min, max float64, state *sweepState) []Interval {
	components := make([]ComponentID, 0, len(state.components))
	for c := range state.components {
		components = append(components, c)
	}
	slices.Sort(components)
	hint := state.stepHint()

	if n := len(result); n > 0 {
		last := &result[n-1]
		if last.Max == min && last.StepLength == hint && slices.Equal(last.Components, components) {
			last.Max = max
			return result
		}
	}

	return append(result, Interval{
		Min:        min,
		Max:        max,
		Components: components,
		StepLength: hint,
	})
}
