package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/channel"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/constellation"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/metrics"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/modem"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/store"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

// ResultPublisher forwards finished sweeps, e.g. to MQTT.
type ResultPublisher interface {
	PublishResult(runID string, res *sim.Result) int
}

// Options configures the API handlers. Only Tables is required.
type Options struct {
	Tables    constellation.Provider
	Runs      *store.RunRepository
	Metrics   *metrics.Metrics
	Publisher ResultPublisher
	Workers   int // default worker count for sweeps
}

// sweepJob tracks a sweep started through the API.
type sweepJob struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"` // running, completed or failed
	Done      int         `json:"done"`
	Total     int         `json:"total"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	Result    *sim.Result `json:"result,omitempty"`
}

// Handlers holds the HTTP API handlers.
type Handlers struct {
	tables    constellation.Provider
	runs      *store.RunRepository
	metrics   *metrics.Metrics
	publisher ResultPublisher
	workers   int
	wsHub     *WSHub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	jobs map[string]*sweepJob
}

// NewHandlers creates new API handlers.
func NewHandlers(opts Options) *Handlers {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handlers{
		tables:    opts.Tables,
		runs:      opts.Runs,
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		workers:   workers,
		wsHub:     NewWSHub(),
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]*sweepJob),
	}
	if h.metrics != nil {
		h.wsHub.OnCount = h.metrics.SetWebSocketClients
	}
	return h
}

// Wait blocks until every background sweep has finished.
func (h *Handlers) Wait() {
	h.wg.Wait()
}

// Close cancels running sweeps and waits for them to stop.
func (h *Handlers) Close() {
	h.cancel()
	h.wg.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	return nil
}

// HandleWebSocket handles WebSocket upgrade requests.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	h.wsHub.AddClient(conn)

	// Drain client messages until the connection closes.
	go func() {
		defer h.wsHub.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

type schemeInfo struct {
	Name      string `json:"name"`
	Order     int    `json:"order"`
	UsesTable bool   `json:"uses_table"`
}

// HandleSchemes lists the supported modulation schemes.
func (h *Handlers) HandleSchemes(w http.ResponseWriter, r *http.Request) {
	schemes := modem.Schemes()
	out := make([]schemeInfo, len(schemes))
	for i, s := range schemes {
		out[i] = schemeInfo{Name: s.String(), Order: s.Order(), UsesTable: s.UsesTable()}
	}
	writeJSON(w, http.StatusOK, out)
}

type simulateRequest struct {
	Message          string         `json:"message"`
	Scheme           modem.Scheme   `json:"scheme"`
	BitRate          float64        `json:"bit_rate"`
	CarrierFrequency float64        `json:"carrier_frequency"`
	Channel          []channel.Spec `json:"channel,omitempty"`
	Seed             *uint64        `json:"seed,omitempty"`
	Diagnostics      bool           `json:"diagnostics"`
}

type simulateResponse struct {
	Link             string       `json:"link"`
	Chain            string       `json:"chain"`
	Text             string       `json:"text"`
	Decoded          bool         `json:"decoded"`
	BitErrors        int          `json:"bit_errors"`
	Bits             int          `json:"bits"`
	BER              float64      `json:"ber"`
	TotalDelay       int          `json:"total_delay"`
	SamplesPerSymbol int          `json:"samples_per_symbol"`
	Constellation    [][2]float64 `json:"constellation,omitempty"`
	Eye              [][]float64  `json:"eye,omitempty"`
}

// HandleSimulate runs one message through the link and returns what the
// receiver recovered.
func (h *Handlers) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	link, err := modem.NewLink(req.Scheme, req.BitRate, req.CarrierFrequency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	seed := uint64(sim.DefaultSeed)
	if req.Seed != nil {
		seed = *req.Seed
	}
	chain, err := channel.Build(req.Channel, link.SamplingRate(), seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := sim.Simulate(link, h.tables, []byte(req.Message), chain, modem.Options{})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sim.ErrEmptyMessage) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveSimulation(req.Scheme.String(), out.Recovered.Decoded)
	}

	resp := simulateResponse{
		Link:             link.String(),
		Chain:            out.Chain,
		Text:             out.Recovered.Text,
		Decoded:          out.Recovered.Decoded,
		BitErrors:        out.BitErrors,
		Bits:             out.Bits,
		BER:              out.BER,
		TotalDelay:       out.Baseband.Delay,
		SamplesPerSymbol: out.Baseband.SamplesPerSymbol,
	}
	if req.Diagnostics {
		resp.Constellation = modem.ConstellationPoints(out.Baseband)
		resp.Eye = modem.EyeDiagram(out.Baseband, 2)
	}
	writeJSON(w, http.StatusOK, resp)
}

type sweepRequest struct {
	Message          string         `json:"message"`
	Schemes          []modem.Scheme `json:"schemes"`
	BitRate          float64        `json:"bit_rate"`
	CarrierFrequency float64        `json:"carrier_frequency"`
	SNRLow           int            `json:"snr_low_db"`
	SNRHigh          int            `json:"snr_high_db"`
	Seed             *uint64        `json:"seed,omitempty"`
	Impairments      []channel.Spec `json:"impairments,omitempty"`
	Workers          int            `json:"workers,omitempty"`
}

func (req sweepRequest) config(defaultWorkers int) sim.Config {
	cfg := sim.Config{
		Schemes:          req.Schemes,
		BitRate:          req.BitRate,
		CarrierFrequency: req.CarrierFrequency,
		SNRLow:           req.SNRLow,
		SNRHigh:          req.SNRHigh,
		Seed:             sim.DefaultSeed,
		Impairments:      req.Impairments,
		Workers:          req.Workers,
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return cfg
}

// HandleSweep validates a sweep, starts it in the background and returns
// its run ID. Progress is broadcast on the websocket.
func (h *Handlers) HandleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, sim.ErrEmptyMessage)
		return
	}

	eval, err := sim.NewEvaluator(req.config(h.workers), h.tables)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	job := &sweepJob{
		ID:        uuid.New().String(),
		Status:    "running",
		Total:     len(eval.Config().Schemes) * len(eval.Config().SNRs()),
		CreatedAt: time.Now().UTC(),
	}
	h.mu.Lock()
	h.jobs[job.ID] = job
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runSweep(job, eval, []byte(req.Message))
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"id": job.ID, "status": job.Status})
}

func (h *Handlers) runSweep(job *sweepJob, eval *sim.Evaluator, message []byte) {
	if h.metrics != nil {
		eval.Observer = h.metrics
		h.metrics.SweepStarted()
	}
	eval.OnProgress = func(p sim.Progress) {
		h.mu.Lock()
		job.Done = p.Done
		h.mu.Unlock()
		h.wsHub.BroadcastProgress(job.ID, p)
	}
	h.wsHub.BroadcastStatus(job.ID, "running", "")

	res, err := eval.Run(h.ctx, message)
	if h.metrics != nil {
		h.metrics.SweepFinished(err)
	}
	if err != nil {
		log.Printf("[server] sweep %s failed: %v", job.ID, err)
		h.finish(job, nil, err)
		return
	}

	if h.runs != nil {
		if _, err := h.runs.SaveAs(job.ID, res); err != nil {
			log.Printf("[server] sweep %s: %v", job.ID, err)
			h.finish(job, nil, err)
			return
		}
	}
	if h.publisher != nil {
		if n := h.publisher.PublishResult(job.ID, res); n > 0 {
			log.Printf("[server] sweep %s: %d points not published", job.ID, n)
		}
	}
	h.finish(job, res, nil)
}

func (h *Handlers) finish(job *sweepJob, res *sim.Result, err error) {
	h.mu.Lock()
	if err != nil {
		job.Status = "failed"
		job.Error = err.Error()
	} else {
		job.Status = "completed"
		// Persisted results are served from the store.
		if h.runs == nil {
			job.Result = res
		}
	}
	status, msg := job.Status, job.Error
	h.mu.Unlock()
	h.wsHub.BroadcastStatus(job.ID, status, msg)
}

// snapshot copies a job under the lock.
func (h *Handlers) snapshot(id string) (sweepJob, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	job, ok := h.jobs[id]
	if !ok {
		return sweepJob{}, false
	}
	return *job, true
}

// HandleRuns lists API-started sweeps and, with a store, persisted runs.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	jobs := make([]sweepJob, 0, len(h.jobs))
	for _, job := range h.jobs {
		j := *job
		j.Result = nil
		jobs = append(jobs, j)
	}
	h.mu.Unlock()

	resp := map[string]interface{}{"jobs": jobs}
	if h.runs != nil {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := h.runs.List(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp["runs"] = runs
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleRun returns one sweep: a stored run when available, otherwise the
// in-memory job.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := h.snapshot(id)
	if ok && job.Status != "completed" {
		writeJSON(w, http.StatusOK, job)
		return
	}
	if h.runs != nil {
		run, err := h.runs.Get(id)
		if err == nil {
			writeJSON(w, http.StatusOK, run)
			return
		}
		if !errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	if ok {
		writeJSON(w, http.StatusOK, job)
		return
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", store.ErrRunNotFound, id))
}
