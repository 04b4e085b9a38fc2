package channel

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/dsp"
)

func tone(n int) []complex128 {
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Cos(2*math.Pi*0.01*float64(i)), 0)
	}
	return x
}

func TestAWGN_Reproducible(t *testing.T) {
	x := tone(4096)

	a := NewAWGN(10, NewRNG(42)).Apply(x)
	b := NewAWGN(10, NewRNG(42)).Apply(x)
	c := NewAWGN(10, NewRNG(43)).Apply(x)

	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs for identical seeds: %v vs %v", i, a[i], b[i])
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Errorf("different seeds produced identical noise")
	}
}

func TestAWGN_NoisePower(t *testing.T) {
	x := tone(200000)
	p := dsp.Power(x)

	for _, snr := range []float64{-10, 0, 10, 20} {
		y := NewAWGN(snr, NewRNG(1)).Apply(x)
		noise := make([]complex128, len(y))
		for i := range y {
			noise[i] = y[i] - x[i]
			if imag(noise[i]) != 0 {
				t.Fatalf("noise on the imaginary rail at %d", i)
			}
		}
		got := 10 * math.Log10(p/dsp.Power(noise))
		if math.Abs(got-snr) > 0.1 {
			t.Errorf("measured SNR %.3f dB, want %v", got, snr)
		}
	}
}

func TestAWGN_AddNoise(t *testing.T) {
	x := []float64{1, -1, 1, -1}
	y := NewAWGN(100, NewRNG(9)).AddNoise(x)
	for i := range x {
		if math.Abs(y[i]-x[i]) > 1e-3 {
			t.Errorf("100 dB SNR moved sample %d from %v to %v", i, x[i], y[i])
		}
	}
}

func TestFlatFading_Rayleigh(t *testing.T) {
	f, err := NewFlatFading(Rayleigh, nil, NewRNG(5))
	if err != nil {
		t.Fatal(err)
	}
	x := tone(64)
	var power float64
	const trials = 20000
	for i := 0; i < trials; i++ {
		y := f.Apply(x)
		h := f.Coefficient()
		if imag(h) != 0 || real(h) < 0 {
			t.Fatalf("Rayleigh coefficient %v is not a non-negative real", h)
		}
		if cmplx.Abs(y[10]-h*x[10]) > 1e-12 {
			t.Fatalf("output is not h*x")
		}
		power += real(h) * real(h)
	}
	if mean := power / trials; math.Abs(mean-1) > 0.05 {
		t.Errorf("mean |h|^2 = %v, want about 1", mean)
	}
}

func TestFlatFading_Rician(t *testing.T) {
	if _, err := NewFlatFading(Rician, nil, NewRNG(1)); !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("rician without K: err = %v, want ErrMissingParameter", err)
	}

	k := 20.0 // dB, strongly line-of-sight
	f, err := NewFlatFading(Rician, &k, NewRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	var mean complex128
	const trials = 5000
	for i := 0; i < trials; i++ {
		f.Apply([]complex128{1})
		mean += f.Coefficient()
	}
	mean /= trials
	los := math.Sqrt(100.0 / 101.0)
	if cmplx.Abs(mean-complex(los, 0)) > 0.01 {
		t.Errorf("mean coefficient %v, want about %v", mean, los)
	}
}

func TestFrequencyOffset(t *testing.T) {
	fs := 1000.0
	o := NewFrequencyOffset(50, fs)
	x := make([]complex128, 100)
	for i := range x {
		x[i] = 1
	}
	y := o.Apply(x)
	for n, v := range y {
		want := cmplx.Exp(complex(0, -2*math.Pi*50*float64(n)/fs))
		if cmplx.Abs(v-want) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", n, v, want)
		}
	}
	if len(y) != len(x) {
		t.Errorf("offset changed length")
	}
}

func TestFrequencyDrift(t *testing.T) {
	fs := 1000.0
	d := NewFrequencyDrift(20, fs)
	x := []complex128{1, 1, 1, 1}
	y := d.Apply(x)
	for n, v := range y {
		nf := float64(n)
		want := cmplx.Exp(complex(0, -math.Pi*20*nf*nf/(fs*fs)))
		if cmplx.Abs(v-want) > 1e-12 {
			t.Errorf("sample %d = %v, want %v", n, v, want)
		}
	}
	if math.Abs(cmplx.Abs(y[3])-1) > 1e-12 {
		t.Errorf("drift changed magnitude")
	}
}

func TestFractionalDelay(t *testing.T) {
	d, err := NewFractionalDelay(0)
	if err != nil {
		t.Fatal(err)
	}
	x := tone(100)
	y := d.Apply(x)
	if len(y) != len(x) {
		t.Fatalf("len = %d, want %d", len(y), len(x))
	}
	// The interpolator's group delay is compensated: zero delay is identity.
	for i := range x {
		if cmplx.Abs(y[i]-x[i]) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, y[i], x[i])
		}
	}

	one, _ := NewFractionalDelay(1)
	y = one.Apply(x)
	if y[0] != 0 {
		t.Errorf("one-sample delay: y[0] = %v, want 0", y[0])
	}
	for i := 1; i < len(x); i++ {
		if cmplx.Abs(y[i]-x[i-1]) > 1e-12 {
			t.Fatalf("one-sample delay: y[%d] = %v, want %v", i, y[i], x[i-1])
		}
	}

	if _, err := NewFractionalDelay(12); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("delay 12: err = %v, want ErrInvalidParameter", err)
	}
	if d, _ := NewFractionalDelay(0.5); d.Apply(nil) != nil {
		t.Errorf("delay of empty buffer should be empty")
	}
}

func TestBuild(t *testing.T) {
	snr, off, delay, rate := 10.0, 25.0, 0.3, 5.0
	specs := []Spec{
		{Type: "awgn", SNR: &snr},
		{Type: "fading", Model: "rayleigh"},
		{Type: "drift", Rate: &rate},
		{Type: "offset", Offset: &off},
		{Type: "delay", Delay: &delay},
	}
	chain, err := Build(specs, 8000, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(chain) != 5 {
		t.Fatalf("chain has %d impairments", len(chain))
	}
	if s := chain.String(); s != "awgn(10 dB) -> rayleigh -> drift(5 Hz/s) -> offset(25 Hz) -> delay(0.3 samples)" {
		t.Errorf("String = %q", s)
	}

	x := tone(500)
	y := chain.Apply(x)
	if len(y) != len(x) {
		t.Errorf("chain output %d samples, want %d", len(y), len(x))
	}

	again, _ := Build(specs, 8000, 1)
	z := again.Apply(x)
	for i := range y {
		if y[i] != z[i] {
			t.Fatalf("rebuilt chain differs at %d", i)
		}
	}

	if Chain(nil).String() != "ideal" {
		t.Errorf("empty chain name")
	}
}

func TestBuild_Errors(t *testing.T) {
	k := 3.0
	tests := []struct {
		spec Spec
		want error
	}{
		{Spec{Type: "awgn"}, ErrMissingParameter},
		{Spec{Type: "fading", Model: "rician"}, ErrMissingParameter},
		{Spec{Type: "fading", Model: "nakagami", KFactorDB: &k}, ErrInvalidParameter},
		{Spec{Type: "drift"}, ErrMissingParameter},
		{Spec{Type: "offset"}, ErrMissingParameter},
		{Spec{Type: "delay"}, ErrMissingParameter},
		{Spec{Type: "multipath"}, ErrUnknownImpairment},
	}
	for _, tt := range tests {
		if _, err := Build([]Spec{tt.spec}, 1000, 0); !errors.Is(err, tt.want) {
			t.Errorf("%+v: err = %v, want %v", tt.spec, err, tt.want)
		}
		if err := tt.spec.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("Validate(%+v) = %v, want %v", tt.spec, err, tt.want)
		}
	}
}
