package spectral

import (
	"errors"
	"math"
	"testing"
)

func sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	return out
}

func TestMagnitudeSpectrumErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		signal     []float64
		sampleRate float64
		wantErr    error
	}{
		{"empty signal", nil, 44100, ErrEmptySignal},
		{"zero sample rate", []float64{1, 0, -1, 0}, 0, ErrInvalidSampleRate},
		{"negative sample rate", []float64{1, 0, -1, 0}, -1, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := MagnitudeSpectrum(tt.signal, tt.sampleRate)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("MagnitudeSpectrum() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPeakDetection(t *testing.T) {
	t.Parallel()

	const (
		sampleRate = 44100.0
		freq       = 1000.0
	)

	// 4096-sample sine gives ~10.8 Hz bin resolution.
	st, err := Analyze(sine(freq, sampleRate, 4096), sampleRate)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	binWidth := sampleRate / 4096.0
	if math.Abs(st.Peak-freq) > binWidth {
		t.Errorf("peak = %.2f Hz, want %.2f Hz within one bin (%.2f Hz)", st.Peak, freq, binWidth)
	}
}

func TestCentroidBetweenTwoTones(t *testing.T) {
	t.Parallel()

	const sampleRate = 44100.0

	low := sine(500, sampleRate, 8192)
	high := sine(2000, sampleRate, 8192)

	mixed := make([]float64, len(low))
	for i := range mixed {
		mixed[i] = 0.5*low[i] + 0.5*high[i]
	}

	st, err := Analyze(mixed, sampleRate)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if st.Centroid < 500 || st.Centroid > 2000 {
		t.Errorf("centroid = %.2f Hz, want between the two tone frequencies", st.Centroid)
	}
}

func TestCalculateRejectsShortSpectrum(t *testing.T) {
	t.Parallel()

	if _, err := Calculate([]float64{1}, 44100); !errors.Is(err, ErrEmptySignal) {
		t.Fatalf("Calculate() error = %v, want %v", err, ErrEmptySignal)
	}
}

func TestRMS(t *testing.T) {
	t.Parallel()

	// Full-scale sine has RMS 1/sqrt(2).
	got := RMS(sine(1000, 44100, 44100))
	want := 1 / math.Sqrt2

	if math.Abs(got-want) > 1e-3 {
		t.Errorf("RMS = %.6f, want %.6f", got, want)
	}

	if RMS(nil) != 0 {
		t.Error("RMS of empty signal should be 0")
	}
}

func TestSpectrumSizeIsPowerOfTwoPlusOne(t *testing.T) {
	t.Parallel()

	mag, err := MagnitudeSpectrum(make([]float64, 1000), 44100)
	if err != nil {
		t.Fatalf("MagnitudeSpectrum() error = %v", err)
	}

	// 1000 pads to 1024, one-sided spectrum has 513 bins.
	if len(mag) != 513 {
		t.Errorf("len(mag) = %d, want 513", len(mag))
	}
}
