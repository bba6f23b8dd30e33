package effect

import (
	"fmt"

	"github.com/cwbudde/algo-additive/dsp/partial"
)

// MergePolicy controls how a fan-in node resolves the same partial ID
// arriving from two different producers.
type MergePolicy string

const (
	// MergeError treats any collision as a recoverable per-block error.
	// It is the default: silently preferring either producer is never
	// assumed on the caller's behalf.
	MergeError MergePolicy = "error"
	// MergeDrop keeps the partial from the earliest input edge and counts
	// the dropped duplicates.
	MergeDrop MergePolicy = "drop"
	// MergeSum adds the amplitudes of colliding partials, keeping the
	// frequency and phase of the earliest input edge.
	MergeSum MergePolicy = "sum"
)

// mixRuntime merges the partial sets of all incoming edges into one set,
// in input order, resolving ID collisions per the configured policy. Each
// surviving partial keeps its trajectory; for drop and sum the earliest
// edge's trajectory wins and the colliding partial's trajectory is
// discarded along with its snapshot.
//
// Parameters: "policy" ("error", "drop", or "sum"; default "error").
type mixRuntime struct {
	policy     MergePolicy
	collisions uint64
}

func (r *mixRuntime) Configure(_ Context, p Params) error {
	policy := MergePolicy(p.GetStr("policy", string(MergeError)))
	switch policy {
	case MergeError, MergeDrop, MergeSum:
	default:
		return fmt.Errorf("effect: unknown mix policy %q", policy)
	}

	r.policy = policy

	return nil
}

func (r *mixRuntime) Latency() int { return 0 }

// Collisions returns how many ID collisions the drop policy has resolved
// since the node was created.
func (r *mixRuntime) Collisions() uint64 { return r.collisions }

func (r *mixRuntime) Process(inputs []*partial.Set, _ uint64) ([]*partial.Set, error) {
	out := partial.NewSet()

	for _, in := range inputs {
		if in == nil {
			continue
		}

		var err error
		in.Each(func(p partial.Partial) {
			if err != nil {
				return
			}

			existing, collided := out.Get(p.ID)
			if !collided {
				if err = out.Add(p); err != nil {
					return
				}

				if keys := in.Trajectory(p.ID); keys != nil {
					err = out.SetTrajectory(p.ID, keys)
				}
				return
			}

			switch r.policy {
			case MergeDrop:
				r.collisions++
			case MergeSum:
				existing.Amplitude += p.Amplitude
				out.Replace(existing)
			default:
				err = fmt.Errorf("%w: id %d", ErrIDCollision, p.ID)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("effect: mix: %w", err)
		}
	}

	return []*partial.Set{out}, nil
}
