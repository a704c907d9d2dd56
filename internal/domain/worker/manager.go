package worker

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/monitoring"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/types"
)

const observerName = "worker_manager"

// progressStep is the per-message progress nudge, capped at 1.0.
const progressStep = 0.1

// TypeConfig is the static per-worker-type admission policy.
type TypeConfig struct {
	MaxConcurrent int
	Priority      int
	Timeout       time.Duration
}

// defaultTypeConfigs is fixed at construction. Unknown types fall back
// to max_concurrent 1.
func defaultTypeConfigs() map[string]TypeConfig {
	return map[string]TypeConfig{
		"analysis":         {MaxConcurrent: 1, Priority: 1, Timeout: 180 * time.Second},
		"organize":         {MaxConcurrent: 1, Priority: 2, Timeout: 300 * time.Second},
		"duplicate_scan":   {MaxConcurrent: 1, Priority: 3, Timeout: 600 * time.Second},
		"hash_calculation": {MaxConcurrent: 2, Priority: 4, Timeout: 120 * time.Second},
	}
}

// Registry is the worker bookkeeping surface the collaborating managers
// expose. Both the application state and the memory manager satisfy it.
type Registry interface {
	RegisterWorker(workerID string, handle types.TaskHandle)
	UnregisterWorker(workerID string)
}

// Bus is the slice of the state manager's event bus the worker manager
// observes to stay loosely synchronized with externally registered workers.
type Bus interface {
	AddObserver(name string, fn types.Observer)
	RemoveObserver(name string)
}

// Listener receives lifecycle notifications for UI consumption. All
// methods are invoked without any manager lock held.
type Listener interface {
	WorkerStarted(workerID, workerType string)
	WorkerProgress(workerID string, progress float64, message string)
	WorkerError(workerID, message string)
	WorkerCompleted(workerID string, success bool)
}

// Config tunes the admission ceilings and history retention.
type Config struct {
	MaxConcurrent int // global active-worker ceiling
	MaxHistory    int // retained terminal records
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{MaxConcurrent: 2, MaxHistory: 100}
}

// capabilities is the optional hook set a handle exposes, resolved once
// at admission.
type capabilities struct {
	stop      types.Stopper
	terminate types.Terminator
	progress  types.ProgressNotifier
	err       types.ErrorNotifier
	complete  types.CompletionNotifier
}

func resolveCapabilities(handle types.TaskHandle) capabilities {
	var caps capabilities
	if s, ok := handle.(types.Stopper); ok {
		caps.stop = s
	}
	if t, ok := handle.(types.Terminator); ok {
		caps.terminate = t
	}
	if p, ok := handle.(types.ProgressNotifier); ok {
		caps.progress = p
	}
	if e, ok := handle.(types.ErrorNotifier); ok {
		caps.err = e
	}
	if c, ok := handle.(types.CompletionNotifier); ok {
		caps.complete = c
	}
	return caps
}

// terminateVia invokes the resolved termination capability, preferring
// Terminate. Panics are converted to errors.
func (c capabilities) terminateVia() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("termination panic: %v", r)
		}
	}()

	switch {
	case c.terminate != nil:
		return c.terminate.Terminate()
	case c.stop != nil:
		return c.stop.Stop()
	default:
		return nil
	}
}

type record struct {
	info types.WorkerInfo
	caps capabilities
}

// Options configures a worker manager.
type Options struct {
	Config   Config
	State    Registry // optional; global worker bookkeeping
	Memory   Registry // optional; memory accounting
	Bus      Bus      // optional; state event bus
	Listener Listener // optional; UI notifications
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
}

// Manager is the admission-control core. State machine per worker:
// PENDING -> RUNNING -> {COMPLETED | CANCELLED | ERROR}. Terminal records
// move into a bounded FIFO history.
type Manager struct {
	log      *logging.Logger
	metrics  *monitoring.Metrics
	state    Registry
	memory   Registry
	bus      Bus
	listener Listener
	cfg      Config
	types    map[string]TypeConfig

	mu      sync.Mutex
	active  map[string]*record
	history []types.WorkerInfo
}

// NewManager constructs the manager and subscribes it to the state bus
// when one is provided.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Config.MaxConcurrent <= 0 {
		opts.Config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if opts.Config.MaxHistory <= 0 {
		opts.Config.MaxHistory = DefaultConfig().MaxHistory
	}

	m := &Manager{
		log:      opts.Logger,
		metrics:  opts.Metrics,
		state:    opts.State,
		memory:   opts.Memory,
		bus:      opts.Bus,
		listener: opts.Listener,
		cfg:      opts.Config,
		types:    defaultTypeConfigs(),
		active:   make(map[string]*record),
	}

	if m.bus != nil {
		m.bus.AddObserver(observerName, m.onStateEvent)
	}

	return m
}

// TypeLimit returns the configured concurrency ceiling for a worker type.
func (m *Manager) TypeLimit(workerType string) int {
	if cfg, ok := m.types[workerType]; ok {
		return cfg.MaxConcurrent
	}
	return 1
}

// StartWorker admits and starts a background task. Returns false on
// duplicate ID, admission rejection, or synchronous start failure.
// Admission is atomic: the first violated check rejects, nothing is
// partially registered.
func (m *Manager) StartWorker(workerID string, handle types.TaskHandle, workerType string) bool {
	if handle == nil {
		m.log.Error("start rejected, nil handle", zap.String("worker_id", workerID))
		return false
	}

	m.mu.Lock()
	if _, exists := m.active[workerID]; exists {
		m.mu.Unlock()
		m.log.Warn("start rejected, duplicate worker id",
			zap.String("worker_id", workerID),
			zap.String("worker_type", workerType),
		)
		m.recordRejection(workerType, "duplicate_id")
		return false
	}
	if len(m.active) >= m.cfg.MaxConcurrent {
		count := len(m.active)
		m.mu.Unlock()
		m.log.Warn("start rejected, global ceiling reached",
			zap.String("worker_id", workerID),
			zap.Int("active", count),
			zap.Int("max", m.cfg.MaxConcurrent),
		)
		m.recordRejection(workerType, "global_ceiling")
		return false
	}
	limit := m.TypeLimit(workerType)
	if running := m.runningOfTypeLocked(workerType); running >= limit {
		m.mu.Unlock()
		m.log.Warn("start rejected, type ceiling reached",
			zap.String("worker_id", workerID),
			zap.String("worker_type", workerType),
			zap.Int("running", running),
			zap.Int("max", limit),
		)
		m.recordRejection(workerType, "type_ceiling")
		return false
	}

	rec := &record{
		info: types.WorkerInfo{
			ID:        workerID,
			Type:      workerType,
			Handle:    handle,
			Status:    types.WorkerPending,
			StartedAt: time.Now(),
		},
		caps: resolveCapabilities(handle),
	}
	m.active[workerID] = rec
	m.updateActiveGaugeLocked()
	m.mu.Unlock()

	m.wireCallbacks(workerID, handle, rec.caps)

	// Mark running and register with the collaborators before Start: the
	// finished hook fires from the task's own goroutine, so a trivially
	// short task would otherwise unregister before this registration and
	// strand the handle in both registries.
	m.mu.Lock()
	rec.info.Status = types.WorkerRunning
	m.mu.Unlock()

	if m.state != nil {
		m.state.RegisterWorker(workerID, handle)
	}
	if m.memory != nil {
		m.memory.RegisterWorker(workerID, handle)
	}
	if m.listener != nil {
		m.listener.WorkerStarted(workerID, workerType)
	}

	if err := handle.Start(); err != nil {
		// Start failures are discarded, not moved to history. The
		// registration above is rolled back.
		m.mu.Lock()
		delete(m.active, workerID)
		m.updateActiveGaugeLocked()
		m.mu.Unlock()
		m.unregisterCollaborators(workerID)

		m.log.Error("worker failed to start",
			zap.String("worker_id", workerID),
			zap.String("worker_type", workerType),
			zap.Error(err),
		)
		if m.listener != nil {
			m.listener.WorkerError(workerID, err.Error())
		}
		return false
	}

	if m.metrics != nil {
		m.metrics.RecordWorkerStarted(workerType)
	}

	m.log.Info("worker started",
		zap.String("worker_id", workerID),
		zap.String("worker_type", workerType),
	)
	return true
}

// wireCallbacks attaches the generic finished hook plus whichever
// optional hooks the handle exposes.
func (m *Manager) wireCallbacks(workerID string, handle types.TaskHandle, caps capabilities) {
	handle.OnFinished(func() { m.onFinished(workerID) })

	if caps.progress != nil {
		caps.progress.OnProgress(func(message string) { m.onProgress(workerID, message) })
	}
	if caps.err != nil {
		caps.err.OnError(func(message string) { m.onError(workerID, message) })
	}
	if caps.complete != nil {
		caps.complete.OnComplete(func(success bool) { m.onComplete(workerID, success) })
	}
}

// onFinished is the generic terminal handler. Fires from the task's own
// execution context.
func (m *Manager) onFinished(workerID string) {
	now := time.Now()

	m.mu.Lock()
	rec, ok := m.active[workerID]
	if !ok {
		m.mu.Unlock()
		return
	}
	if !rec.info.Status.Terminal() {
		rec.info.Status = types.WorkerCompleted
	}
	if rec.info.CompletedAt == nil {
		rec.info.CompletedAt = &now
	}
	info := rec.info
	m.removeToHistoryLocked(workerID, info)
	m.mu.Unlock()

	m.unregisterCollaborators(workerID)
	m.recordTerminal(info)

	success := info.Status == types.WorkerCompleted
	if m.listener != nil {
		m.listener.WorkerCompleted(workerID, success)
	}
	m.log.Info("worker finished",
		zap.String("worker_id", workerID),
		zap.String("status", string(info.Status)),
	)
}

// onProgress nudges the stored progress monotonically toward 1.0.
func (m *Manager) onProgress(workerID, message string) {
	m.mu.Lock()
	rec, ok := m.active[workerID]
	if !ok {
		m.mu.Unlock()
		return
	}
	rec.info.Progress = math.Min(rec.info.Progress+progressStep, 1.0)
	progress := rec.info.Progress
	m.mu.Unlock()

	if m.listener != nil {
		m.listener.WorkerProgress(workerID, progress, message)
	}
}

// onError records a runtime error without removing the worker; removal
// arrives via the finished hook or explicit cancellation.
func (m *Manager) onError(workerID, message string) {
	m.mu.Lock()
	rec, ok := m.active[workerID]
	if ok && !rec.info.Status.Terminal() {
		rec.info.Status = types.WorkerError
		rec.info.ErrorMessage = &message
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	if m.listener != nil {
		m.listener.WorkerError(workerID, message)
	}
	m.log.Warn("worker error",
		zap.String("worker_id", workerID),
		zap.String("message", message),
	)
}

// onComplete applies a task's definitive success or failure signal.
func (m *Manager) onComplete(workerID string, success bool) {
	now := time.Now()

	m.mu.Lock()
	rec, ok := m.active[workerID]
	if ok && !rec.info.Status.Terminal() {
		if success {
			rec.info.Status = types.WorkerCompleted
		} else {
			rec.info.Status = types.WorkerError
		}
		rec.info.CompletedAt = &now
	}
	m.mu.Unlock()
}

// CancelWorker cancels an active worker. The termination capability is
// invoked first; removal from the active table is unconditional once
// termination has been attempted, even when the capability failed.
// Returns false for unknown IDs or termination failures.
func (m *Manager) CancelWorker(workerID string) bool {
	m.mu.Lock()
	rec, ok := m.active[workerID]
	if !ok {
		m.mu.Unlock()
		m.log.Warn("cancel rejected, worker not active", zap.String("worker_id", workerID))
		return false
	}
	caps := rec.caps
	m.mu.Unlock()

	termErr := caps.terminateVia()

	now := time.Now()
	m.mu.Lock()
	rec, ok = m.active[workerID]
	if ok {
		rec.info.Status = types.WorkerCancelled
		rec.info.CompletedAt = &now
		info := rec.info
		m.removeToHistoryLocked(workerID, info)
		m.mu.Unlock()

		m.unregisterCollaborators(workerID)
		m.recordTerminal(info)
		if m.listener != nil {
			m.listener.WorkerCompleted(workerID, false)
		}
	} else {
		// Finished concurrently with the cancellation attempt.
		m.mu.Unlock()
	}

	if termErr != nil {
		m.log.Error("worker termination failed",
			zap.String("worker_id", workerID),
			zap.Error(termErr),
		)
		return false
	}

	m.log.Info("worker cancelled", zap.String("worker_id", workerID))
	return true
}

// CancelAll cancels every active worker independently; one failure does
// not block the rest. Returns the number cancelled successfully.
func (m *Manager) CancelAll() int {
	m.mu.Lock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var cancelled int
	for _, id := range ids {
		if m.CancelWorker(id) {
			cancelled++
		}
	}
	return cancelled
}

// Status returns a copy of the active record for a worker ID.
func (m *Manager) Status(workerID string) (types.WorkerInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.active[workerID]
	if !ok {
		return types.WorkerInfo{}, false
	}
	return rec.info, true
}

// ActiveWorkers returns copies of every active record.
func (m *Manager) ActiveWorkers() []types.WorkerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.WorkerInfo, 0, len(m.active))
	for _, rec := range m.active {
		out = append(out, rec.info)
	}
	return out
}

// History returns a copy of the terminal-record history, oldest first.
func (m *Manager) History() []types.WorkerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.WorkerInfo, len(m.history))
	copy(out, m.history)
	return out
}

// Stats aggregates active counts by type and status plus history depth.
func (m *Manager) Stats() types.WorkerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	byType := make(map[string]int)
	byStatus := make(map[string]int)
	for _, rec := range m.active {
		byType[rec.info.Type]++
		byStatus[string(rec.info.Status)]++
	}

	return types.WorkerStats{
		ActiveWorkers:   len(m.active),
		TotalHistory:    len(m.history),
		WorkersByType:   byType,
		WorkersByStatus: byStatus,
	}
}

// CleanupOldHistory trims the history to max entries, oldest first.
func (m *Manager) CleanupOldHistory(max int) {
	if max < 0 {
		max = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) > max {
		m.history = append([]types.WorkerInfo(nil), m.history[len(m.history)-max:]...)
	}
}

// Cleanup cancels everything, clears history, and detaches from the
// state bus. Called once at process teardown.
func (m *Manager) Cleanup() {
	m.CancelAll()

	m.mu.Lock()
	m.history = nil
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.RemoveObserver(observerName)
	}
}

// onStateEvent observes the state bus for workers registered outside
// this manager. Bookkeeping here is diagnostic only.
func (m *Manager) onStateEvent(event types.Event) {
	if event.Source == observerName {
		return
	}

	switch event.Type {
	case types.EventWorkerStarted, types.EventWorkerFinished:
		workerID, _ := event.Data["worker_id"].(string)
		if workerID == "" {
			return
		}
		m.mu.Lock()
		_, tracked := m.active[workerID]
		m.mu.Unlock()
		if !tracked {
			m.log.Debug("external worker event",
				zap.String("worker_id", workerID),
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}

// removeToHistoryLocked moves a terminal record into history and trims.
// Caller holds m.mu.
func (m *Manager) removeToHistoryLocked(workerID string, info types.WorkerInfo) {
	delete(m.active, workerID)
	m.history = append(m.history, info)
	if len(m.history) > m.cfg.MaxHistory {
		m.history = m.history[len(m.history)-m.cfg.MaxHistory:]
	}
	m.updateActiveGaugeLocked()
}

func (m *Manager) runningOfTypeLocked(workerType string) int {
	var count int
	for _, rec := range m.active {
		if rec.info.Type == workerType && rec.info.Status == types.WorkerRunning {
			count++
		}
	}
	return count
}

func (m *Manager) unregisterCollaborators(workerID string) {
	if m.state != nil {
		m.state.UnregisterWorker(workerID)
	}
	if m.memory != nil {
		m.memory.UnregisterWorker(workerID)
	}
}

func (m *Manager) recordRejection(workerType, reason string) {
	if m.metrics != nil {
		m.metrics.RecordWorkerRejected(workerType, reason)
	}
}

func (m *Manager) recordTerminal(info types.WorkerInfo) {
	if m.metrics == nil {
		return
	}
	duration := time.Since(info.StartedAt)
	if info.CompletedAt != nil {
		duration = info.CompletedAt.Sub(info.StartedAt)
	}
	m.metrics.RecordWorkerTerminal(info.Type, string(info.Status), duration)
}

func (m *Manager) updateActiveGaugeLocked() {
	if m.metrics != nil {
		m.metrics.WorkersActive.Set(float64(len(m.active)))
	}
}
