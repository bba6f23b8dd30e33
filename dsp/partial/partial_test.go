package partial

import (
	"errors"
	"math"
	"testing"
)

func TestSetAddRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	s := NewSet()
	if err := s.Add(Partial{ID: 1, Frequency: 220, Amplitude: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.Add(Partial{ID: 1, Frequency: 330, Amplitude: 0.5})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID, got %v", err)
	}

	if s.Len() != 1 {
		t.Errorf("failed Add must not modify the set, len = %d", s.Len())
	}
}

func TestSetIDsSorted(t *testing.T) {
	t.Parallel()

	s := NewSet()
	for _, id := range []ID{42, 7, 19, 3} {
		if err := s.Add(Partial{ID: id, Frequency: 100, Amplitude: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	ids := s.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("IDs not ascending: %v", ids)
		}
	}

	// Adding after a read keeps the order fresh.
	if err := s.Add(Partial{ID: 1, Frequency: 100, Amplitude: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.IDs()[0]; got != 1 {
		t.Errorf("IDs()[0] = %d, want 1", got)
	}
}

func TestAddNormalizesPhase(t *testing.T) {
	t.Parallel()

	s := NewSet()
	if err := s.Add(Partial{ID: 1, Frequency: 100, Amplitude: 1, Phase: -math.Pi}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := s.Get(1)
	if p.Phase < 0 || p.Phase >= 2*math.Pi {
		t.Errorf("phase not normalized: %v", p.Phase)
	}
}

func TestTrajectory(t *testing.T) {
	t.Parallel()

	s := NewSet()
	if err := s.Add(Partial{ID: 5, Frequency: 440, Amplitude: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.SetTrajectory(9, []Keyframe{{SampleOffset: 0, Frequency: 440, Amplitude: 1}})
	if !errors.Is(err, ErrUnknownID) {
		t.Fatalf("want ErrUnknownID, got %v", err)
	}

	keys := []Keyframe{
		{SampleOffset: 0, Frequency: 440, Amplitude: 1},
		{SampleOffset: 512, Frequency: 880, Amplitude: 0.5},
	}
	if err := s.SetTrajectory(5, keys); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := s.Trajectory(5)
	if len(got) != 2 || got[1].Frequency != 880 {
		t.Errorf("unexpected trajectory: %+v", got)
	}

	if s.Trajectory(1234) != nil {
		t.Error("missing trajectory should be nil")
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	s := NewSet()
	if err := s.Add(Partial{ID: 1, Frequency: 220, Amplitude: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetTrajectory(1, []Keyframe{{0, 220, 1}, {100, 440, 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := s.Clone()
	c.Replace(Partial{ID: 1, Frequency: 999, Amplitude: 2})
	c.Trajectory(1)[0].Frequency = 999

	orig, _ := s.Get(1)
	if orig.Frequency != 220 {
		t.Error("Clone must not alias partials")
	}

	if s.Trajectory(1)[0].Frequency != 220 {
		t.Error("Clone must not alias trajectories")
	}
}

func TestAmplitudeSum(t *testing.T) {
	t.Parallel()

	s := NewSet()
	for i, a := range []float64{0.5, 0.25, 0.25} {
		if err := s.Add(Partial{ID: ID(i + 1), Frequency: 100, Amplitude: a}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := s.AmplitudeSum(); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("AmplitudeSum = %v, want 1", got)
	}
}
