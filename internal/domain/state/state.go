package state

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/monitoring"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/id"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/types"
)

const source = "ApplicationState"

// ConfigStore persists user preferences. Failures are logged, never fatal.
type ConfigStore interface {
	Theme() string
	SetTheme(theme string) error
	FontSize() int
	SetFontSize(size int) error
}

// CategoryService is the lazily-constructed category collaborator.
type CategoryService interface {
	Names() []string
}

// DiskService is the lazily-constructed storage-volume collaborator.
type DiskService interface {
	Paths() ([]string, error)
}

// Options configures a state manager. All fields are optional.
type Options struct {
	Config        ConfigStore
	NewCategories func() (CategoryService, error)
	NewDisks      func() (DiskService, error)
	Logger        *logging.Logger
	Metrics       *monitoring.Metrics
}

type observerEntry struct {
	name string
	fn   types.Observer
}

type categoryBox struct{ svc CategoryService }
type diskBox struct{ svc DiskService }

// Manager is the centralized application state: current theme, font size,
// selected volume, running flags, the worker-handle registry, a flat named
// cache table, and the event bus that decouples mutations from the UI.
//
// Workers, caches, and observers are guarded by separate locks so unrelated
// operations never contend, and no lock is ever held while dispatching
// events or calling collaborators.
type Manager struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	config  ConfigStore

	mu                  sync.RWMutex // value fields below
	theme               string
	fontSize            int
	currentDisk         *string
	analysisRunning     bool
	organizationRunning bool

	workerMu sync.Mutex
	workers  map[string]types.TaskHandle

	cacheMu sync.Mutex
	caches  map[string]interface{}

	obsMu     sync.Mutex
	observers []observerEntry

	initMu        sync.Mutex // lazy collaborator construction
	newCategories func() (CategoryService, error)
	newDisks      func() (DiskService, error)
	categories    atomic.Pointer[categoryBox]
	disks         atomic.Pointer[diskBox]
}

// New creates a state manager. Tests construct fresh managers instead of
// sharing the process-wide Default.
func New(opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	m := &Manager{
		log:           log,
		metrics:       opts.Metrics,
		config:        opts.Config,
		theme:         "elegant_light",
		fontSize:      12,
		workers:       make(map[string]types.TaskHandle),
		caches:        make(map[string]interface{}),
		newCategories: opts.NewCategories,
		newDisks:      opts.NewDisks,
	}

	// Preferences from the settings store win over built-in defaults.
	if m.config != nil {
		if theme := m.config.Theme(); theme != "" {
			m.theme = theme
		}
		if size := m.config.FontSize(); size > 0 {
			m.fontSize = size
		}
	}

	m.Emit(types.EventStateChanged, map[string]interface{}{
		"component": "ApplicationState",
		"action":    "initialized",
		"theme":     m.theme,
		"font_size": m.fontSize,
	}, source)

	return m
}

var (
	defaultManager atomic.Pointer[Manager]
	defaultMu      sync.Mutex
)

// Default returns the process-wide state manager, constructing it exactly
// once on first call.
func Default() *Manager {
	if m := defaultManager.Load(); m != nil {
		return m
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if m := defaultManager.Load(); m != nil {
		return m
	}
	m := New(Options{Logger: logging.NewDefault()})
	defaultManager.Store(m)
	return m
}

// Categories returns the category collaborator, constructing it lazily.
// Construction failure yields nil plus a diagnostic event; the next call
// retries.
func (m *Manager) Categories() CategoryService {
	if box := m.categories.Load(); box != nil {
		return box.svc
	}

	m.initMu.Lock()
	if box := m.categories.Load(); box != nil {
		m.initMu.Unlock()
		return box.svc
	}
	if m.newCategories == nil {
		m.initMu.Unlock()
		return nil
	}
	svc, err := m.newCategories()
	if err == nil && svc != nil {
		m.categories.Store(&categoryBox{svc: svc})
	}
	m.initMu.Unlock()

	if err != nil {
		m.log.Warn("category manager initialization failed", zap.Error(err))
		m.Emit(types.EventStateChanged, map[string]interface{}{
			"component": "category_manager",
			"action":    "initialization_error",
			"error":     err.Error(),
		}, source)
		return nil
	}

	m.Emit(types.EventStateChanged, map[string]interface{}{
		"component": "category_manager",
		"action":    "initialized",
	}, source)
	return svc
}

// Disks returns the storage-volume collaborator, constructing it lazily
// with the same contract as Categories.
func (m *Manager) Disks() DiskService {
	if box := m.disks.Load(); box != nil {
		return box.svc
	}

	m.initMu.Lock()
	if box := m.disks.Load(); box != nil {
		m.initMu.Unlock()
		return box.svc
	}
	if m.newDisks == nil {
		m.initMu.Unlock()
		return nil
	}
	svc, err := m.newDisks()
	if err == nil && svc != nil {
		m.disks.Store(&diskBox{svc: svc})
	}
	m.initMu.Unlock()

	if err != nil {
		m.log.Warn("disk manager initialization failed", zap.Error(err))
		m.Emit(types.EventStateChanged, map[string]interface{}{
			"component": "disk_manager",
			"action":    "initialization_error",
			"error":     err.Error(),
		}, source)
		return nil
	}

	m.Emit(types.EventStateChanged, map[string]interface{}{
		"component": "disk_manager",
		"action":    "initialized",
	}, source)
	return svc
}

// Theme returns the current theme.
func (m *Manager) Theme() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// SetTheme changes the application theme. No-op when unchanged; otherwise
// persists best-effort and emits exactly one theme_changed event.
func (m *Manager) SetTheme(theme string) {
	m.mu.Lock()
	if theme == m.theme {
		m.mu.Unlock()
		return
	}
	old := m.theme
	m.theme = theme
	m.mu.Unlock()

	if m.config != nil {
		if err := m.config.SetTheme(theme); err != nil {
			m.log.Warn("failed to persist theme", zap.String("theme", theme), zap.Error(err))
		}
	}

	m.Emit(types.EventThemeChanged, map[string]interface{}{
		"old_theme": old,
		"new_theme": theme,
	}, source)
}

// FontSize returns the current font size.
func (m *Manager) FontSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fontSize
}

// SetFontSize changes the application font size.
func (m *Manager) SetFontSize(size int) {
	m.mu.Lock()
	if size == m.fontSize {
		m.mu.Unlock()
		return
	}
	old := m.fontSize
	m.fontSize = size
	m.mu.Unlock()

	if m.config != nil {
		if err := m.config.SetFontSize(size); err != nil {
			m.log.Warn("failed to persist font size", zap.Int("size", size), zap.Error(err))
		}
	}

	m.Emit(types.EventStateChanged, map[string]interface{}{
		"component": "font_size",
		"old_size":  old,
		"new_size":  size,
	}, source)
}

// CurrentDisk returns the selected volume path, nil when none is selected.
func (m *Manager) CurrentDisk() *string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.currentDisk == nil {
		return nil
	}
	disk := *m.currentDisk
	return &disk
}

// SetCurrentDisk selects a storage volume.
func (m *Manager) SetCurrentDisk(path string) {
	m.mu.Lock()
	if m.currentDisk != nil && *m.currentDisk == path {
		m.mu.Unlock()
		return
	}
	var old interface{}
	if m.currentDisk != nil {
		old = *m.currentDisk
	}
	m.currentDisk = &path
	m.mu.Unlock()

	m.Emit(types.EventDiskSelected, map[string]interface{}{
		"old_disk": old,
		"new_disk": path,
	}, source)
}

// SetAnalysisRunning flips the analysis flag and announces the transition.
func (m *Manager) SetAnalysisRunning(running bool) {
	m.mu.Lock()
	if m.analysisRunning == running {
		m.mu.Unlock()
		return
	}
	m.analysisRunning = running
	m.mu.Unlock()

	eventType := types.EventAnalysisCompleted
	if running {
		eventType = types.EventAnalysisStarted
	}
	m.Emit(eventType, map[string]interface{}{"running": running}, source)
}

// SetOrganizationRunning flips the organization flag.
func (m *Manager) SetOrganizationRunning(running bool) {
	m.mu.Lock()
	if m.organizationRunning == running {
		m.mu.Unlock()
		return
	}
	m.organizationRunning = running
	m.mu.Unlock()

	m.Emit(types.EventStateChanged, map[string]interface{}{
		"component": "organization",
		"running":   running,
	}, source)
}

// RegisterWorker records an active worker handle for global bookkeeping.
func (m *Manager) RegisterWorker(workerID string, handle types.TaskHandle) {
	m.workerMu.Lock()
	m.workers[workerID] = handle
	m.workerMu.Unlock()

	m.Emit(types.EventWorkerStarted, map[string]interface{}{
		"worker_id":   workerID,
		"worker_type": fmt.Sprintf("%T", handle),
	}, source)
}

// UnregisterWorker removes a completed worker handle.
func (m *Manager) UnregisterWorker(workerID string) {
	m.workerMu.Lock()
	_, present := m.workers[workerID]
	if present {
		delete(m.workers, workerID)
	}
	m.workerMu.Unlock()

	if present {
		m.Emit(types.EventWorkerFinished, map[string]interface{}{
			"worker_id": workerID,
		}, source)
	}
}

// ActiveWorkers returns a snapshot of the handle registry.
func (m *Manager) ActiveWorkers() map[string]types.TaskHandle {
	m.workerMu.Lock()
	defer m.workerMu.Unlock()

	snapshot := make(map[string]types.TaskHandle, len(m.workers))
	for workerID, handle := range m.workers {
		snapshot[workerID] = handle
	}
	return snapshot
}

// TerminateAllWorkers requests termination on every registered handle and
// clears the registry. Individual failures are recorded as events and do
// not block the remaining handles.
func (m *Manager) TerminateAllWorkers() {
	m.workerMu.Lock()
	snapshot := make(map[string]types.TaskHandle, len(m.workers))
	for workerID, handle := range m.workers {
		snapshot[workerID] = handle
	}
	m.workers = make(map[string]types.TaskHandle)
	m.workerMu.Unlock()

	for workerID, handle := range snapshot {
		if err := types.TerminateHandle(handle); err != nil {
			m.Emit(types.EventStateChanged, map[string]interface{}{
				"component": "worker_termination",
				"worker_id": workerID,
				"error":     err.Error(),
			}, source)
		}
	}
}

// SetCache stores an arbitrary payload under a cache name.
func (m *Manager) SetCache(name string, data interface{}) {
	m.cacheMu.Lock()
	m.caches[name] = data
	m.cacheMu.Unlock()
}

// GetCache returns a cached payload, nil when absent.
func (m *Manager) GetCache(name string) interface{} {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	return m.caches[name]
}

// ClearCache removes one named cache, or every cache when name is empty.
func (m *Manager) ClearCache(name string) {
	m.cacheMu.Lock()
	if name != "" {
		delete(m.caches, name)
	} else {
		m.caches = make(map[string]interface{})
	}
	m.cacheMu.Unlock()

	cleared := name
	if cleared == "" {
		cleared = "all"
	}
	m.Emit(types.EventMemoryCleanup, map[string]interface{}{
		"cache_name": cleared,
		"action":     "cleared",
	}, source)
}

// AddObserver registers a named observer. Duplicate names are a no-op.
func (m *Manager) AddObserver(name string, fn types.Observer) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	for _, entry := range m.observers {
		if entry.name == name {
			return
		}
	}
	m.observers = append(m.observers, observerEntry{name: name, fn: fn})
}

// RemoveObserver unregisters an observer by name.
func (m *Manager) RemoveObserver(name string) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	for i, entry := range m.observers {
		if entry.name == name {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

// Emit dispatches an event to every registered observer in registration
// order, synchronously, before returning to the mutating caller. The
// observer set is snapshotted under lock but observers run outside it, so
// re-entrant observers make progress. A panicking observer is isolated.
func (m *Manager) Emit(eventType types.EventType, data map[string]interface{}, src string) {
	event := types.Event{
		ID:        id.NewEventID().String(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    src,
	}

	if m.metrics != nil {
		m.metrics.RecordEvent(string(eventType))
	}

	m.obsMu.Lock()
	snapshot := make([]observerEntry, len(m.observers))
	copy(snapshot, m.observers)
	m.obsMu.Unlock()

	for _, entry := range snapshot {
		m.notify(entry, event)
	}
}

func (m *Manager) notify(entry observerEntry, event types.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("observer failed",
				zap.String("observer", entry.name),
				zap.String("event_type", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	entry.fn(event)
}

// Summary returns a point-in-time snapshot of the state.
func (m *Manager) Summary() types.StateSummary {
	m.mu.RLock()
	summary := types.StateSummary{
		Theme:                 m.theme,
		FontSize:              m.fontSize,
		IsAnalysisRunning:     m.analysisRunning,
		IsOrganizationRunning: m.organizationRunning,
	}
	if m.currentDisk != nil {
		disk := *m.currentDisk
		summary.CurrentDisk = &disk
	}
	m.mu.RUnlock()

	m.workerMu.Lock()
	summary.ActiveWorkers = len(m.workers)
	m.workerMu.Unlock()

	m.cacheMu.Lock()
	summary.CacheCount = len(m.caches)
	m.cacheMu.Unlock()

	m.obsMu.Lock()
	summary.ObserverCount = len(m.observers)
	m.obsMu.Unlock()

	return summary
}

// Cleanup terminates workers, clears caches, and drops observers. The
// final cleanup event is emitted before observers are dropped so they see
// the shutdown. Called once at process teardown.
func (m *Manager) Cleanup() {
	m.TerminateAllWorkers()
	m.ClearCache("")

	m.Emit(types.EventStateChanged, map[string]interface{}{
		"component": "ApplicationState",
		"action":    "cleanup_completed",
	}, source)

	m.obsMu.Lock()
	m.observers = nil
	m.obsMu.Unlock()
}
