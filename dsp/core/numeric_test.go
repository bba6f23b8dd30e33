package core

import (
	"math"
	"testing"
)

func TestWrapPhase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"in range", 1.5, 1.5},
		{"exactly two pi", TwoPi, 0},
		{"above two pi", TwoPi + 0.25, 0.25},
		{"negative", -0.25, TwoPi - 0.25},
		{"many cycles", 10*TwoPi + 1, 1},
		{"negative cycles", -3*TwoPi - 1, TwoPi - 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := WrapPhase(tc.in)
			if !NearlyEqual(got, tc.want, 1e-12) {
				t.Errorf("WrapPhase(%v) = %v, want %v", tc.in, got, tc.want)
			}

			if got < 0 || got >= TwoPi {
				t.Errorf("WrapPhase(%v) = %v outside [0, 2*pi)", tc.in, got)
			}
		})
	}
}

func TestPhaseNearlyEqual(t *testing.T) {
	t.Parallel()

	if !PhaseNearlyEqual(0, TwoPi-1e-13, 1e-12) {
		t.Error("phases across the wrap seam should compare equal")
	}

	if PhaseNearlyEqual(0, math.Pi, 1e-12) {
		t.Error("opposite phases should not compare equal")
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp(5,0,1) = %v", got)
	}

	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp(-5,0,1) = %v", got)
	}

	// Swapped bounds are tolerated.
	if got := Clamp(0.5, 1, 0); got != 0.5 {
		t.Errorf("Clamp(0.5,1,0) = %v", got)
	}
}

func TestDBConversions(t *testing.T) {
	t.Parallel()

	if got := DBToLinear(0); !NearlyEqual(got, 1, 1e-12) {
		t.Errorf("DBToLinear(0) = %v", got)
	}

	if got := DBToLinear(-6.0205999132796239); !NearlyEqual(got, 0.5, 1e-9) {
		t.Errorf("DBToLinear(-6.02...) = %v", got)
	}

	if got := LinearToDB(0); !math.IsInf(got, -1) {
		t.Errorf("LinearToDB(0) = %v, want -Inf", got)
	}

	if got := LinearToDB(-1); !math.IsNaN(got) {
		t.Errorf("LinearToDB(-1) = %v, want NaN", got)
	}
}

func TestApplyProcessorOptions(t *testing.T) {
	t.Parallel()

	cfg := ApplyProcessorOptions()
	if cfg.SampleRate != 44100 || cfg.BlockSize != 1024 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	cfg = ApplyProcessorOptions(WithSampleRate(48000), WithBlockSize(256))
	if cfg.SampleRate != 48000 || cfg.BlockSize != 256 {
		t.Errorf("options not applied: %+v", cfg)
	}

	// Invalid values leave the defaults untouched.
	cfg = ApplyProcessorOptions(WithSampleRate(-1), WithBlockSize(0), nil)
	if cfg.SampleRate != 44100 || cfg.BlockSize != 1024 {
		t.Errorf("invalid options should be ignored: %+v", cfg)
	}
}
