package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/modem"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

func TestCellDone(t *testing.T) {
	m := New()
	m.CellDone(sim.Point{Scheme: modem.QPSK, SNR: -10, BER: 0.25, BitErrors: 24, Bits: 96}, 3*time.Millisecond)
	m.CellDone(sim.Point{Scheme: modem.QPSK, SNR: 0, BER: 0, BitErrors: 0, Bits: 96}, 2*time.Millisecond)

	if got := testutil.ToFloat64(m.cellsTotal.WithLabelValues("QPSK")); got != 2 {
		t.Errorf("cells = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.bitsTotal.WithLabelValues("QPSK")); got != 192 {
		t.Errorf("bits = %v, want 192", got)
	}
	if got := testutil.ToFloat64(m.bitErrorsTotal.WithLabelValues("QPSK")); got != 24 {
		t.Errorf("bit errors = %v, want 24", got)
	}
	if got := testutil.ToFloat64(m.ber.WithLabelValues("QPSK", "-10")); got != 0.25 {
		t.Errorf("ber = %v, want 0.25", got)
	}
}

func TestSweepLifecycle(t *testing.T) {
	m := New()
	m.SweepStarted()
	m.SweepStarted()
	if got := testutil.ToFloat64(m.sweepsRunning); got != 2 {
		t.Errorf("running = %v, want 2", got)
	}
	m.SweepFinished(nil)
	m.SweepFinished(errors.New("boom"))
	if got := testutil.ToFloat64(m.sweepsRunning); got != 0 {
		t.Errorf("running = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.sweepsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveSimulation("BPSK", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `modemsim_simulations_total{outcome="decoded",scheme="BPSK"} 1`) {
		t.Errorf("metrics output missing simulation counter:\n%s", body)
	}
}
