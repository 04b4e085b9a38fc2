package dsp

import (
	"math"
	"testing"
)

func TestRootRaisedCosine_Shape(t *testing.T) {
	sps := 20
	fs := 1000.0
	ts := float64(sps) / fs
	alpha := 0.35

	h := RootRaisedCosine(6*sps, alpha, ts, fs)
	if len(h) != 6*sps+1 {
		t.Fatalf("len = %d, want %d", len(h), 6*sps+1)
	}

	centre := 1 - alpha + 4*alpha/math.Pi
	if math.Abs(h[3*sps]-centre) > 1e-12 {
		t.Errorf("centre tap = %v, want %v", h[3*sps], centre)
	}
	for i := range h {
		if math.Abs(h[i]-h[len(h)-1-i]) > 1e-12 {
			t.Fatalf("not symmetric at %d: %v vs %v", i, h[i], h[len(h)-1-i])
		}
		if math.IsNaN(h[i]) || math.IsInf(h[i], 0) {
			t.Fatalf("tap %d is %v", i, h[i])
		}
		if math.Abs(h[i]) > centre {
			t.Errorf("tap %d = %v exceeds centre", i, h[i])
		}
	}
}

func TestRootRaisedCosine_SingularPoint(t *testing.T) {
	// alpha = 0.25 puts t = Ts exactly on a sample.
	sps := 8
	fs := 800.0
	ts := float64(sps) / fs
	alpha := 0.25

	h := RootRaisedCosine(6*sps, alpha, ts, fs)
	edge := alpha / math.Sqrt2 * ((1+2/math.Pi)*math.Sin(math.Pi/(4*alpha)) +
		(1-2/math.Pi)*math.Cos(math.Pi/(4*alpha)))

	for _, i := range []int{3*sps - sps, 3*sps + sps} {
		if math.Abs(h[i]-edge) > 1e-12 {
			t.Errorf("tap %d = %v, want limit value %v", i, h[i], edge)
		}
	}
}

func TestLowPass_UnityDC(t *testing.T) {
	h := LowPass(101, 1500, 320000)
	if len(h) != 101 {
		t.Fatalf("len = %d, want 101", len(h))
	}

	var sum float64
	for _, v := range h {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("DC gain = %v, want 1", sum)
	}
	for i := range h {
		if math.Abs(h[i]-h[len(h)-1-i]) > 1e-15 {
			t.Fatalf("not linear phase at %d", i)
		}
	}
	if h[50] < h[49] || h[50] < h[51] {
		t.Errorf("peak is not at centre tap")
	}
}

func TestLowPass_Attenuation(t *testing.T) {
	fs := 8000.0
	h := LowPass(101, 500, fs)

	gain := func(f float64) float64 {
		var re, im float64
		for n, v := range h {
			re += v * math.Cos(2*math.Pi*f*float64(n)/fs)
			im -= v * math.Sin(2*math.Pi*f*float64(n)/fs)
		}
		return math.Hypot(re, im)
	}

	if g := gain(100); math.Abs(g-1) > 0.01 {
		t.Errorf("passband gain at 100 Hz = %v", g)
	}
	if g := gain(2000); g > 0.01 {
		t.Errorf("stopband gain at 2000 Hz = %v", g)
	}
}

func TestHamming(t *testing.T) {
	w := Hamming(5)
	want := []float64{0.08, 0.54, 1, 0.54, 0.08}
	for i := range want {
		if math.Abs(w[i]-want[i]) > 1e-12 {
			t.Errorf("w[%d] = %v, want %v", i, w[i], want[i])
		}
	}
	if w := Hamming(1); w[0] != 1 {
		t.Errorf("Hamming(1) = %v", w)
	}
}

func TestFractionalDelay(t *testing.T) {
	h := FractionalDelay(21, 0)
	for i, v := range h {
		want := 0.0
		if i == 10 {
			want = 1
		}
		if math.Abs(v-want) > 1e-12 {
			t.Errorf("zero delay tap %d = %v, want %v", i, v, want)
		}
	}

	h = FractionalDelay(21, 0.5)
	var sum float64
	for _, v := range h {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("tap sum = %v, want 1", sum)
	}
	// A half-sample delay puts the peak between taps 10 and 11.
	for i, v := range h {
		if i != 10 && i != 11 && (v >= h[10] || v >= h[11]) {
			t.Errorf("tap %d = %v not below the centre pair (%v, %v)", i, v, h[10], h[11])
		}
	}
}

func TestPowerAndEnergy(t *testing.T) {
	x := []complex128{complex(3, 4), 0}
	if p := Power(x); math.Abs(p-12.5) > 1e-12 {
		t.Errorf("Power = %v, want 12.5", p)
	}
	if p := Power(nil); p != 0 {
		t.Errorf("Power(nil) = %v", p)
	}
	if e := Energy([]float64{1, 2, 2}); e != 9 {
		t.Errorf("Energy = %v, want 9", e)
	}
}
