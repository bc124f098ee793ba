// Package scan drives the three-step forensic scan sequence: one request to
// the analysis service, staged reveal of the three layer results, then the
// handoff to the report view. The sequence is strictly ordered and
// non-cancelable once started.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/media-verifier/backend/internal/analysis"
	"github.com/media-verifier/backend/internal/console"
	"github.com/media-verifier/backend/internal/models"
	"github.com/media-verifier/backend/internal/session"
	"github.com/media-verifier/backend/internal/storage"
)

// Presentation pacing. The analysis response already holds all three layer
// results; steps 2 and 3 are revealed after a fixed pause, and navigation
// waits a beat after the verdict.
const (
	stepRevealDelay = 500 * time.Millisecond
	navigateDelay   = 1000 * time.Millisecond
)

// ReportPath is the fixed path of the report view.
const ReportPath = "/report"

var (
	// ErrNoSelection is returned when the scan trigger fires without a
	// selected file.
	ErrNoSelection = errors.New("no file selected")
	// ErrScanActive is returned when a scan has already been started.
	// The trigger stays disabled through completion or failure; Reset is
	// the only way back to idle.
	ErrScanActive = errors.New("a scan is already in progress")
)

// EventType enumerates the events streamed to the page.
type EventType string

const (
	EventLog      EventType = "log"
	EventStep     EventType = "step"
	EventState    EventType = "state"
	EventNavigate EventType = "navigate"
)

// Event is one scan lifecycle notification.
type Event struct {
	Type       EventType        `json:"type"`
	ScanID     string           `json:"scanId"`
	Line       *console.Line    `json:"line,omitempty"`
	Step       *models.StepInfo `json:"step,omitempty"`
	State      models.ScanState `json:"state,omitempty"`
	ReportPath string           `json:"reportPath,omitempty"`
}

// scanRun is the internal state of one scan.
type scanRun struct {
	id           string
	file         *models.FileInfo
	state        models.ScanState
	steps        [models.StepCount]models.StepInfo
	finalVerdict string
	confidence   float64
	errMsg       string
	console      *console.Console
}

// Manager is the upload-and-scan controller. It owns the current file
// selection and at most one scan sequence, and fans scan events out to
// subscribed pages. All dependencies are injected so tests can substitute
// fakes, including the sleep function behind the presentational delays.
type Manager struct {
	mu       sync.RWMutex
	store    storage.Store
	analyzer analysis.Analyzer
	sessions *session.Store
	defs     []StepDef
	sleep    func(time.Duration)

	selected *models.FileInfo
	current  *scanRun
	byID     map[string]*scanRun

	subs    map[int]chan Event
	nextSub int
}

// NewManager creates a scan manager. A nil sleep func means real time.
func NewManager(store storage.Store, analyzer analysis.Analyzer, sessions *session.Store, defs []StepDef, sleep func(time.Duration)) *Manager {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Manager{
		store:    store,
		analyzer: analyzer,
		sessions: sessions,
		defs:     defs,
		sleep:    sleep,
		byID:     make(map[string]*scanRun),
		subs:     make(map[int]chan Event),
	}
}

// Select records info as the one tracked file, replacing any previous
// selection and deleting its stored blob. It is refused while a scan is
// running; the sequence is non-cancelable and must keep its blob.
func (m *Manager) Select(info *models.FileInfo) error {
	m.mu.Lock()
	if m.current != nil {
		switch m.current.state {
		case models.ScanStateDone, models.ScanStateFailed:
		default:
			m.mu.Unlock()
			return ErrScanActive
		}
	}
	// Keep a private copy so later status updates never touch a FileInfo
	// the caller still holds.
	tracked := *info
	prev := m.selected
	m.selected = &tracked
	m.mu.Unlock()

	if prev != nil && prev.ID != info.ID {
		if err := m.store.Delete(prev.ID); err != nil {
			fmt.Printf("[Scan] Warning: failed to delete replaced selection %s: %v\n", prev.ID, err)
		}
	}
	return nil
}

// Selected returns a copy of the current selection, or nil.
func (m *Manager) Selected() *models.FileInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selected == nil {
		return nil
	}
	sel := *m.selected
	return &sel
}

// StartScan begins the scan sequence for the current selection. It fails if
// nothing is selected or a scan was already started.
func (m *Manager) StartScan() (*models.ScanSnapshot, error) {
	m.mu.Lock()

	if m.selected == nil {
		m.mu.Unlock()
		return nil, ErrNoSelection
	}
	if m.current != nil {
		m.mu.Unlock()
		return nil, ErrScanActive
	}

	run := &scanRun{
		id:      uuid.New().String(),
		file:    m.selected,
		state:   models.ScanStateStep1,
		console: console.New(),
	}
	for i := range run.steps {
		run.steps[i] = models.StepInfo{
			Index:  i + 1,
			Title:  m.defs[i].Title,
			Status: models.StepWaiting,
		}
	}
	run.file.Status = "scanning"
	m.current = run
	m.byID[run.id] = run
	m.mu.Unlock()

	fmt.Printf("[Scan %s] Starting: %s (%d bytes)\n", run.id[:8], run.file.Name, run.file.Size)
	m.emit(Event{Type: EventState, ScanID: run.id, State: models.ScanStateStep1})

	go m.run(run)

	return m.snapshotOf(run), nil
}

// Reset returns the controller to idle after a finished or failed scan so a
// new selection can be scanned without reloading the page.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	switch m.current.state {
	case models.ScanStateDone, models.ScanStateFailed:
		// The run and its console are dropped; the report data lives in
		// the session store until its TTL expires.
		delete(m.byID, m.current.id)
		m.current = nil
		m.selected = nil
		return nil
	default:
		return ErrScanActive
	}
}

// Current returns a snapshot of the active scan, or nil.
func (m *Manager) Current() *models.ScanSnapshot {
	m.mu.RLock()
	run := m.current
	m.mu.RUnlock()
	if run == nil {
		return nil
	}
	return m.snapshotOf(run)
}

// Get returns a snapshot of a scan by ID.
func (m *Manager) Get(id string) (*models.ScanSnapshot, bool) {
	m.mu.RLock()
	run, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return m.snapshotOf(run), true
}

// Console returns the log console of a scan by ID.
func (m *Manager) Console(id string) (*console.Console, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return run.console, true
}

// Subscribe returns a channel of scan events and an unsubscribe func.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Event, 256)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if ch, ok := m.subs[id]; ok {
			close(ch)
			delete(m.subs, id)
		}
	}
	return ch, cancel
}

// run executes the full sequence on its own goroutine. The only suspension
// points are the analysis request and the fixed presentational pauses.
func (m *Manager) run(run *scanRun) {
	m.log(run, "Starting 3-layer forensic analysis...")

	m.setStep(run, 0, models.StepProcessing, models.VariantNone, "")
	m.log(run, m.defs[0].Start)

	result, err := m.analyze(run)
	if err != nil {
		m.log(run, fmt.Sprintf("Network error: %v", err))
		m.fail(run, err.Error())
		return
	}

	if !result.Success {
		errText := result.Error
		if errText == "" {
			errText = "analysis failed"
		}
		m.log(run, fmt.Sprintf("Analysis failed: %s", errText))
		m.fail(run, errText)
		return
	}

	in := analysis.Interpret(result)

	// Layer 1 resolves immediately; the response is already complete.
	for _, line := range in.Provenance.Lines() {
		m.log(run, line)
	}
	m.setStep(run, 0, models.StepCompleted, in.Provenance.Variant(), "")

	m.sleep(stepRevealDelay)
	m.setState(run, models.ScanStateStep2)
	m.setStep(run, 1, models.StepProcessing, models.VariantNone, "")
	m.log(run, m.defs[1].Start)
	for _, line := range in.Watermark.Lines() {
		m.log(run, line)
	}
	m.setStep(run, 1, models.StepCompleted, in.Watermark.Variant(), "")

	m.sleep(stepRevealDelay)
	m.setState(run, models.ScanStateStep3)
	m.setStep(run, 2, models.StepProcessing, models.VariantNone, "")
	m.log(run, m.defs[2].Start)
	for _, line := range in.Classifier.Lines() {
		m.log(run, line)
	}
	m.setStep(run, 2, models.StepCompleted, in.Classifier.Variant(), "")

	for _, line := range in.VerdictLines() {
		m.log(run, line)
	}

	m.mu.Lock()
	run.finalVerdict = in.FinalVerdict
	run.confidence = in.Confidence
	run.file.Status = "scanned"
	m.mu.Unlock()

	if err := m.persist(run, result); err != nil {
		m.log(run, fmt.Sprintf("Network error: failed to store result: %v", err))
		m.fail(run, err.Error())
		return
	}

	m.setState(run, models.ScanStateDone)
	fmt.Printf("[Scan %s] Complete: %s (%.1f%%)\n", run.id[:8], in.FinalVerdict, in.Confidence)

	m.sleep(navigateDelay)
	m.emit(Event{
		Type:       EventNavigate,
		ScanID:     run.id,
		ReportPath: fmt.Sprintf("%s?scan=%s", ReportPath, run.id),
	})
}

// analyze opens the selected blob and performs the single analysis request.
func (m *Manager) analyze(run *scanRun) (*models.AnalysisResult, error) {
	rc, err := m.store.Open(run.file.ID)
	if err != nil {
		return nil, fmt.Errorf("opening selected file: %w", err)
	}
	defer rc.Close()

	return m.analyzer.Analyze(context.Background(), run.file.Name, rc)
}

// persist serializes the full result as text under the fixed session key
// for the report view to pick up.
func (m *Manager) persist(run *scanRun, result *models.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("serializing result: %w", err)
	}
	m.sessions.Put(run.id, session.ResultKey, string(data))
	return nil
}

func (m *Manager) fail(run *scanRun, msg string) {
	m.mu.Lock()
	run.errMsg = msg
	run.state = models.ScanStateFailed
	m.mu.Unlock()

	fmt.Printf("[Scan %s] Failed: %s\n", run.id[:8], msg)
	m.emit(Event{Type: EventState, ScanID: run.id, State: models.ScanStateFailed})
}

func (m *Manager) log(run *scanRun, text string) {
	line := run.console.Append(text)
	m.emit(Event{Type: EventLog, ScanID: run.id, Line: &line})
}

func (m *Manager) setState(run *scanRun, state models.ScanState) {
	m.mu.Lock()
	run.state = state
	m.mu.Unlock()
	m.emit(Event{Type: EventState, ScanID: run.id, State: state})
}

func (m *Manager) setStep(run *scanRun, idx int, status models.StepStatus, variant models.StepVariant, detail string) {
	m.mu.Lock()
	run.steps[idx].Status = status
	run.steps[idx].Variant = variant
	run.steps[idx].Detail = detail
	step := run.steps[idx]
	m.mu.Unlock()
	m.emit(Event{Type: EventStep, ScanID: run.id, Step: &step})
}

// emit delivers an event to every subscriber, dropping any that has
// stopped draining.
func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			close(ch)
			delete(m.subs, id)
		}
	}
}

func (m *Manager) snapshotOf(run *scanRun) *models.ScanSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &models.ScanSnapshot{
		ID:           run.id,
		FileID:       run.file.ID,
		FileName:     run.file.Name,
		State:        run.state,
		Steps:        run.steps,
		FinalVerdict: run.finalVerdict,
		Confidence:   run.confidence,
		Error:        run.errMsg,
	}
	if run.state == models.ScanStateDone {
		snap.ReportPath = fmt.Sprintf("%s?scan=%s", ReportPath, run.id)
	}
	return snap
}
