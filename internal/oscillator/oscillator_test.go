package oscillator

import (
	"errors"
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Oscillator)
		want error
	}{
		{"defaults are valid", func(*Oscillator) {}, nil},
		{"zero frequency", func(o *Oscillator) { o.Omega0 = 0 }, ErrParameterBounds},
		{"negative frequency", func(o *Oscillator) { o.Omega0 = -1 }, ErrParameterBounds},
		{"negative damping", func(o *Oscillator) { o.Delta = -0.1 }, ErrParameterBounds},
		{"overdamped", func(o *Oscillator) { o.Delta = 10 }, ErrOverdamped},
		{"critically damped", func(o *Oscillator) { o.Delta = o.Omega0 }, ErrOverdamped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New()
			tt.mod(&o)
			err := o.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDisplacement(t *testing.T) {
	o := New()

	if got := o.Displacement(0); got != o.A0 {
		t.Errorf("x(0) = %v, want %v", got, o.A0)
	}

	// The trace never leaves the decay envelope.
	for i := 0; i <= 50; i++ {
		tm := float64(i) * 0.1
		if x := math.Abs(o.Displacement(tm)); x > o.Envelope(tm)+1e-12 {
			t.Fatalf("|x(%v)| = %v exceeds envelope %v", tm, x, o.Envelope(tm))
		}
	}

	// After one full period the phase is back at the start.
	T := o.Period()
	if got, want := o.Displacement(T), o.Envelope(T); math.Abs(got-want) > 1e-9 {
		t.Errorf("x(T) = %v, want envelope %v", got, want)
	}

	wd := o.OmegaD()
	if got := wd*wd + o.Delta*o.Delta; math.Abs(got-o.Omega0*o.Omega0) > 1e-9 {
		t.Errorf("omega_d^2 + delta^2 = %v, want omega0^2 = %v", got, o.Omega0*o.Omega0)
	}
}

func TestResponseAmplitude(t *testing.T) {
	o := New()

	static := o.Drive / (o.Omega0 * o.Omega0)
	if got := o.ResponseAmplitude(0); math.Abs(got-static) > 1e-12*static {
		t.Errorf("A(0) = %v, want %v", got, static)
	}

	// The amplitude resonance sits at sqrt(omega0^2 - 2 delta^2).
	peak := o.ResponseAmplitude(o.ResonanceOmega())
	for i := 1; i <= 40; i++ {
		w := float64(i) * 0.1 * o.Omega0
		if a := o.ResponseAmplitude(w); a > peak+1e-12 {
			t.Fatalf("A(%v) = %v exceeds resonance amplitude %v", w, a, peak)
		}
	}

	if o.ResponseAmplitude(5*o.Omega0) >= o.ResponseAmplitude(o.Omega0) {
		t.Error("amplitude does not fall off above resonance")
	}
}

func TestResonanceOmega(t *testing.T) {
	o := New()

	wres := o.ResonanceOmega()
	if got := wres*wres + 2*o.Delta*o.Delta; math.Abs(got-o.Omega0*o.Omega0) > 1e-9 {
		t.Errorf("wres^2 + 2 delta^2 = %v, want omega0^2 = %v", got, o.Omega0*o.Omega0)
	}

	// A genuine maximum: the response dips on either side.
	peak := o.ResponseAmplitude(wres)
	if o.ResponseAmplitude(wres-0.01) >= peak || o.ResponseAmplitude(wres+0.01) >= peak {
		t.Errorf("response at %v is not a local maximum", wres)
	}

	// Strong damping flattens the curve: no peak left.
	o.Delta = 5
	if got := o.ResonanceOmega(); got != 0 {
		t.Errorf("ResonanceOmega = %v with delta = %v, want 0", got, o.Delta)
	}
}

func TestPhaseShift(t *testing.T) {
	o := New()

	if got := o.PhaseShift(0); got != 0 {
		t.Errorf("phase(0) = %v, want 0", got)
	}
	if got := o.PhaseShift(o.Omega0); math.Abs(got+math.Pi/2) > 1e-15 {
		t.Errorf("phase at resonance = %v, want -pi/2", got)
	}
	if got := o.PhaseShift(0.5 * o.Omega0); got >= 0 || got <= -math.Pi/2 {
		t.Errorf("phase below resonance = %v, want in (-pi/2, 0)", got)
	}
	if got := o.PhaseShift(2 * o.Omega0); got >= -math.Pi/2 || got <= -math.Pi {
		t.Errorf("phase above resonance = %v, want in (-pi, -pi/2)", got)
	}

	// Strictly decreasing and confined to (-pi, 0] across the sweep.
	prev := math.Inf(1)
	for i := 0; i <= 80; i++ {
		w := float64(i) * 0.05 * o.Omega0
		p := o.PhaseShift(w)
		if p > 0 || p <= -math.Pi {
			t.Fatalf("phase(%v) = %v outside (-pi, 0]", w, p)
		}
		if i > 0 && p >= prev {
			t.Fatalf("phase not decreasing at w = %v", w)
		}
		prev = p
	}
}

func TestParams(t *testing.T) {
	o := New()
	if err := o.SetParam("omega0", 3.5); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if got := o.GetParams()["omega0"]; got != 3.5 {
		t.Errorf("omega0 = %v, want 3.5", got)
	}
	if err := o.SetParam("mass", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}
