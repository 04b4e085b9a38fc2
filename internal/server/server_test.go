package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/constellation"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/metrics"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/store"
)

type recordingPublisher struct {
	runs []string
}

func (p *recordingPublisher) PublishResult(runID string, res *sim.Result) int {
	p.runs = append(p.runs, runID)
	return 0
}

func newTestServer(t *testing.T, opts Options) (*Handlers, *httptest.Server) {
	t.Helper()
	if opts.Tables == nil {
		opts.Tables = constellation.NewBuiltin()
	}
	h := NewHandlers(opts)
	ts := httptest.NewServer(NewServer("", h, "/metrics").Handler())
	t.Cleanup(func() {
		ts.Close()
		h.Close()
	})
	return h, ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleSchemes(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/api/schemes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var schemes []schemeInfo
	if err := json.NewDecoder(resp.Body).Decode(&schemes); err != nil {
		t.Fatal(err)
	}
	if len(schemes) != 7 {
		t.Fatalf("got %d schemes, want 7", len(schemes))
	}
	if schemes[0].Name != "BPSK" || schemes[0].Order != 1 || schemes[0].UsesTable {
		t.Errorf("first scheme = %+v", schemes[0])
	}
	if schemes[6].Name != "QAM4096" || schemes[6].Order != 12 {
		t.Errorf("last scheme = %+v", schemes[6])
	}
}

func TestHandleSimulate(t *testing.T) {
	_, ts := newTestServer(t, Options{Metrics: metrics.New()})
	resp := post(t, ts.URL+"/api/simulate",
		`{"message":"Hello World!","scheme":"QAM16","bit_rate":1600,"carrier_frequency":16000,"diagnostics":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got simulateResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "Hello World!" || !got.Decoded || got.BitErrors != 0 {
		t.Errorf("response = %+v", got)
	}
	if got.Bits != 96 || got.Chain != "ideal" {
		t.Errorf("bits = %d, chain = %q", got.Bits, got.Chain)
	}
	// 12 bytes in 4-bit symbols plus one flush symbol.
	if len(got.Constellation) != 25 {
		t.Errorf("constellation has %d points, want 25", len(got.Constellation))
	}
	if len(got.Eye) == 0 {
		t.Error("eye diagram is empty")
	}

	metricsResp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", metricsResp.StatusCode)
	}
}

func TestHandleSimulate_BadRequests(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	cases := map[string]string{
		"unknown scheme": `{"message":"x","scheme":"QAM8","bit_rate":1600,"carrier_frequency":16000}`,
		"empty message":  `{"message":"","scheme":"BPSK","bit_rate":1600,"carrier_frequency":16000}`,
		"bad impairment": `{"message":"x","scheme":"BPSK","bit_rate":1600,"carrier_frequency":16000,"channel":[{"type":"awgn"}]}`,
		"unknown field":  `{"message":"x","modulation":"BPSK"}`,
		"tiny bit rate":  `{"message":"x","scheme":"BPSK","bit_rate":0.01,"carrier_frequency":16000}`,
		"folded band":    `{"message":"x","scheme":"BPSK","bit_rate":3000,"carrier_frequency":1000}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if resp := post(t, ts.URL+"/api/simulate", body); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestHandleSweep(t *testing.T) {
	db, err := store.NewDB(store.Config{Path: filepath.Join(t.TempDir(), "runs.db")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	pub := &recordingPublisher{}
	h, ts := newTestServer(t, Options{Runs: db.Runs(), Publisher: pub, Metrics: metrics.New(), Workers: 2})

	resp := post(t, ts.URL+"/api/sweep",
		`{"message":"Hi","schemes":["BPSK","QPSK"],"bit_rate":1600,"carrier_frequency":16000,"snr_low_db":-1,"snr_high_db":0}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var started map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatal(err)
	}
	id := started["id"]

	h.Wait()

	runResp, err := http.Get(ts.URL + "/api/runs/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer runResp.Body.Close()
	var run store.SweepRun
	if err := json.NewDecoder(runResp.Body).Decode(&run); err != nil {
		t.Fatal(err)
	}
	if run.ID != id || len(run.Points) != 4 || run.Schemes != "BPSK,QPSK" {
		t.Errorf("stored run = %+v", run)
	}
	if len(pub.runs) != 1 || pub.runs[0] != id {
		t.Errorf("published runs = %v", pub.runs)
	}

	missing, err := http.Get(ts.URL + "/api/runs/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing run status = %d", missing.StatusCode)
	}
}

func TestHandleSweep_WithoutStore(t *testing.T) {
	h, ts := newTestServer(t, Options{})

	resp := post(t, ts.URL+"/api/sweep",
		`{"message":"Hi","schemes":["BPSK"],"bit_rate":1600,"carrier_frequency":16000,"snr_low_db":0,"snr_high_db":0}`)
	var started map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatal(err)
	}
	h.Wait()

	job, ok := h.snapshot(started["id"])
	if !ok || job.Status != "completed" || job.Done != 1 || job.Result == nil {
		t.Fatalf("job = %+v", job)
	}
	if job.Result.Points[0].BitErrors != 0 {
		t.Errorf("BER at 0 dB = %v", job.Result.Points[0].BER)
	}

	if resp := post(t, ts.URL+"/api/sweep", `{"message":"Hi","schemes":[],"bit_rate":1600,"carrier_frequency":16000}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("sweep without schemes: status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleSweep_BoundsInput(t *testing.T) {
	_, ts := newTestServer(t, Options{Workers: 1})
	cases := map[string]string{
		"huge snr range":  `{"message":"Hi","schemes":["BPSK"],"bit_rate":1600,"carrier_frequency":16000,"snr_low_db":-2000000000,"snr_high_db":2000000000}`,
		"tiny bit rate":   `{"message":"Hi","schemes":["BPSK"],"bit_rate":0.01,"carrier_frequency":16000}`,
		"repeated scheme": `{"message":"Hi","schemes":["BPSK","BPSK"],"bit_rate":1600,"carrier_frequency":16000}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if resp := post(t, ts.URL+"/api/sweep", body); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}
