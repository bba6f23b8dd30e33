// Package spectral computes magnitude spectra and frequency-shape
// statistics of rendered audio, for validating synthesized output.
package spectral

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by spectral analysis.
var (
	ErrEmptySignal       = errors.New("spectral: signal is empty")
	ErrInvalidSampleRate = errors.New("spectral: sample rate must be positive")
)

// Stats holds frequency-domain statistics computed from a magnitude
// spectrum.
type Stats struct {
	BinCount int
	Peak     float64 // frequency of the strongest bin (Hz)
	PeakMag  float64
	Centroid float64 // spectral centroid (Hz)
	Energy   float64 // sum of squared magnitudes
}

// binFreq returns the frequency in Hz of a given bin index for a one-sided
// spectrum of binCount bins (fftSize = 2 * (binCount - 1)).
func binFreq(i int, sampleRate float64, binCount int) float64 {
	return float64(i) * sampleRate / float64(2*(binCount-1))
}

// MagnitudeSpectrum returns the one-sided magnitude spectrum of the signal,
// zero-padded to the next power of two. Bin i corresponds to frequency
// i * sampleRate / fftSize.
func MagnitudeSpectrum(signal []float64, sampleRate float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}

	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	fftSize := nextPowerOf2(len(signal))

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectral: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, fftSize)
	for i, v := range signal {
		padded[i] = complex(v, 0)
	}

	freq := make([]complex128, fftSize)

	err = plan.Forward(freq, padded)
	if err != nil {
		return nil, fmt.Errorf("spectral: forward FFT failed: %w", err)
	}

	binCount := fftSize/2 + 1
	re := make([]float64, binCount)
	im := make([]float64, binCount)
	for i := 0; i < binCount; i++ {
		re[i] = real(freq[i])
		im[i] = imag(freq[i])
	}

	out := make([]float64, binCount)
	vecmath.Magnitude(out, re, im)

	return out, nil
}

// Calculate computes frequency-shape statistics from a one-sided magnitude
// spectrum (linear scale, NOT dB).
func Calculate(magnitude []float64, sampleRate float64) (Stats, error) {
	if len(magnitude) < 2 {
		return Stats{}, ErrEmptySignal
	}

	if sampleRate <= 0 {
		return Stats{}, ErrInvalidSampleRate
	}

	st := Stats{BinCount: len(magnitude)}

	var weighted, magSum float64
	for i, m := range magnitude {
		f := binFreq(i, sampleRate, len(magnitude))

		if m > st.PeakMag {
			st.PeakMag = m
			st.Peak = f
		}

		weighted += f * m
		magSum += m
		st.Energy += m * m
	}

	if magSum > 0 {
		st.Centroid = weighted / magSum
	}

	return st, nil
}

// Analyze computes the magnitude spectrum of signal and its statistics in
// one call.
func Analyze(signal []float64, sampleRate float64) (Stats, error) {
	mag, err := MagnitudeSpectrum(signal, sampleRate)
	if err != nil {
		return Stats{}, err
	}

	return Calculate(mag, sampleRate)
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}

// RMS returns the root-mean-square level of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range signal {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(signal)))
}
