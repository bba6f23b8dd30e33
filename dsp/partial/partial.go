// Package partial defines the frequency-domain signal model: sinusoidal
// partials, per-block sets of partials keyed by stable identity, and
// sub-block keyframe trajectories.
package partial

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-additive/dsp/core"
)

// Errors returned by set operations.
var (
	ErrDuplicateID = errors.New("partial: duplicate partial id in set")
	ErrUnknownID   = errors.New("partial: unknown partial id")
)

// ID is an opaque stable identifier for one synthesis voice. The same ID
// across consecutive blocks refers to the same voice, so the synthesizer
// can carry oscillator phase forward.
type ID uint64

// Partial is one sinusoidal component's state at a block boundary.
// It is an immutable value snapshot; effects produce new Partials rather
// than mutating in place.
type Partial struct {
	ID        ID
	Frequency float64 // Hz
	Amplitude float64 // linear, >= 0
	Phase     float64 // radians, wrapped to [0, 2*pi); seed for unseen IDs
}

// Normalized returns a copy with the phase folded into [0, 2*pi).
func (p Partial) Normalized() Partial {
	p.Phase = core.WrapPhase(p.Phase)
	return p
}

// Keyframe is a timestamped frequency/amplitude target within one block,
// used to interpolate a smooth trajectory between block boundaries.
type Keyframe struct {
	SampleOffset int
	Frequency    float64 // Hz
	Amplitude    float64 // linear, >= 0
}

// Set holds the partials of one block, keyed by unique ID. The zero value
// is not usable; construct with NewSet. Iteration order is deterministic
// (ascending ID) regardless of insertion order.
type Set struct {
	partials     map[ID]Partial
	trajectories map[ID][]Keyframe

	sorted []ID
	dirty  bool
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{partials: make(map[ID]Partial)}
}

// Add inserts a partial. Adding an ID already present returns
// ErrDuplicateID; sets never hold two partials with the same identity.
func (s *Set) Add(p Partial) error {
	if _, exists := s.partials[p.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateID, p.ID)
	}

	s.partials[p.ID] = p.Normalized()
	s.dirty = true

	return nil
}

// Replace inserts a partial, overwriting any existing one with the same ID.
func (s *Set) Replace(p Partial) {
	if _, exists := s.partials[p.ID]; !exists {
		s.dirty = true
	}
	s.partials[p.ID] = p.Normalized()
}

// Get returns the partial for id and whether it exists.
func (s *Set) Get(id ID) (Partial, bool) {
	p, ok := s.partials[id]
	return p, ok
}

// Len returns the number of partials in the set.
func (s *Set) Len() int {
	return len(s.partials)
}

// IDs returns the partial IDs in ascending order. The returned slice is
// owned by the set and must not be modified.
func (s *Set) IDs() []ID {
	if s.dirty || s.sorted == nil {
		s.sorted = s.sorted[:0]
		for id := range s.partials {
			s.sorted = append(s.sorted, id)
		}
		sort.Slice(s.sorted, func(i, j int) bool { return s.sorted[i] < s.sorted[j] })
		s.dirty = false
	}
	return s.sorted
}

// Each calls fn for every partial in ascending ID order.
func (s *Set) Each(fn func(Partial)) {
	for _, id := range s.IDs() {
		fn(s.partials[id])
	}
}

// SetTrajectory attaches a sub-block keyframe trajectory to an existing
// partial. Effects that modulate within a block use this to hand the
// synthesizer more detail than the start/end snapshot.
func (s *Set) SetTrajectory(id ID, keys []Keyframe) error {
	if _, ok := s.partials[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownID, id)
	}

	if s.trajectories == nil {
		s.trajectories = make(map[ID][]Keyframe)
	}

	s.trajectories[id] = keys

	return nil
}

// Trajectory returns the keyframe trajectory for id, or nil if the partial
// has only its block-boundary snapshot.
func (s *Set) Trajectory(id ID) []Keyframe {
	return s.trajectories[id]
}

// Clone returns a deep copy of the set, including trajectories.
func (s *Set) Clone() *Set {
	out := &Set{partials: make(map[ID]Partial, len(s.partials))}
	for id, p := range s.partials {
		out.partials[id] = p
	}

	if s.trajectories != nil {
		out.trajectories = make(map[ID][]Keyframe, len(s.trajectories))
		for id, keys := range s.trajectories {
			cp := make([]Keyframe, len(keys))
			copy(cp, keys)
			out.trajectories[id] = cp
		}
	}

	out.dirty = true

	return out
}

// AmplitudeSum returns the sum of all partial amplitudes. Output samples
// are theoretically bounded by this value.
func (s *Set) AmplitudeSum() float64 {
	sum := 0.0
	for _, p := range s.partials {
		sum += p.Amplitude
	}
	return sum
}
