package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of data using the radix-2
// Cooley-Tukey recursion. The length must be a power of two; pad shorter
// series with [NextPow2] first.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n&(n-1) != 0 {
		panic("analysis: fft length must be a power of two")
	}

	buf := make([]complex128, n)
	for i, v := range data {
		buf[i] = complex(v, 0)
	}
	return fft(buf)
}

func fft(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		return x
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		out[k] = feven[k] + w*fodd[k]
		out[k+n/2] = feven[k] - w*fodd[k]
	}
	return out
}

// PowerSpectrum returns the one-sided power spectrum |X_k|^2 for the first
// half of the transform. The input length must be a power of two.
func PowerSpectrum(data []float64) []float64 {
	coeffs := FFT(data)
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		a := cmplx.Abs(coeffs[i])
		ps[i] = a * a
	}
	return ps
}

// NextPow2 zero-pads data to the next power-of-two length. Data already at a
// power-of-two length is copied unchanged.
func NextPow2(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	out := make([]float64, n)
	copy(out, data)
	return out
}
