package memory

import (
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
	"weak"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/monitoring"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/types"
)

const source = "MemoryManager"

// maxStatsHistory bounds the snapshot ring.
const maxStatsHistory = 50

// largeCacheBytes is the size threshold above which Optimize clears a
// cache regardless of idle time.
const largeCacheBytes = 10 * 1024 * 1024

// EventSink receives memory notifications; implemented by the state
// manager's event bus. A nil sink is tolerated.
type EventSink interface {
	Emit(eventType types.EventType, data map[string]interface{}, source string)
}

// Config tunes the reclamation behavior.
type Config struct {
	SweepInterval    time.Duration // periodic cycle interval
	CacheIdleTimeout time.Duration // idle threshold before eviction
	MaxCacheMB       int           // advisory cache ceiling
	WarnWorkers      int           // worker count that triggers a warning
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SweepInterval:    30 * time.Second,
		CacheIdleTimeout: 300 * time.Second,
		MaxCacheMB:       100,
		WarnWorkers:      3,
	}
}

type cacheEntry struct {
	data         map[string]interface{}
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  int64
	sizeBytes    int64
}

// CacheInfo is the externally-visible view of one tracked cache.
type CacheInfo struct {
	Name         string    `json:"name"`
	Keys         int       `json:"keys"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	AccessCount  int64     `json:"access_count"`
	SizeBytes    int64     `json:"size_bytes"`
}

type workerEntry struct {
	handle     types.TaskHandle
	startedAt  time.Time
	workerType string
}

// Manager owns the tracked cache registry, the temp-file list, weak
// liveness probes, and the periodic reclamation cycle. Its worker registry
// exists for memory accounting and shutdown cleanup only; admission
// control lives in the worker manager.
type Manager struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	sink    EventSink
	cfg     Config

	mu        sync.Mutex
	caches    map[string]*cacheEntry
	workers   map[string]workerEntry
	tempFiles []string
	probes    []func() bool
	history   []types.MemoryStats

	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

// NewManager creates a memory manager and registers the seed caches used
// by the rest of the application.
func NewManager(cfg Config, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.CacheIdleTimeout <= 0 {
		cfg.CacheIdleTimeout = DefaultConfig().CacheIdleTimeout
	}

	m := &Manager{
		log:     logger,
		cfg:     cfg,
		caches:  make(map[string]*cacheEntry),
		workers: make(map[string]workerEntry),
	}

	for _, name := range []string{"application_state", "theme_cache", "disk_info_cache"} {
		m.RegisterCache(name, nil)
	}

	return m
}

// WithSink attaches the event sink used for cleanup notifications.
func (m *Manager) WithSink(sink EventSink) *Manager {
	m.sink = sink
	return m
}

// WithMetrics attaches metrics tracking.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Start launches the periodic reclamation loop. Safe to call once.
func (m *Manager) Start() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.loop(m.stop, m.done)
}

// Stop halts the periodic loop and waits for the in-flight cycle.
func (m *Manager) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop = nil
	m.done = nil
}

func (m *Manager) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.PerformCleanup()
		case <-stop:
			return
		}
	}
}

// RegisterCache registers a named cache for monitoring. Registering an
// existing name is a no-op.
func (m *Manager) RegisterCache(name string, initial map[string]interface{}) {
	now := time.Now()

	m.mu.Lock()
	if _, exists := m.caches[name]; exists {
		m.mu.Unlock()
		return
	}
	data := initial
	if data == nil {
		data = make(map[string]interface{})
	}
	entry := &cacheEntry{
		data:         data,
		createdAt:    now,
		lastAccessed: now,
		sizeBytes:    estimateMapSize(data),
	}
	m.caches[name] = entry
	m.mu.Unlock()

	m.emit(map[string]interface{}{
		"cache_name": name,
		"action":     "registered",
	})
}

// GetCache reads one key from a named cache, updating access statistics.
// Returns nil when the cache or key is absent.
func (m *Manager) GetCache(name, key string) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.caches[name]
	if !ok {
		return nil
	}
	entry.lastAccessed = time.Now()
	entry.accessCount++
	return entry.data[key]
}

// GetCacheAll returns a copy of the full cache payload, nil when the
// cache is not registered.
func (m *Manager) GetCacheAll(name string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.caches[name]
	if !ok {
		return nil
	}
	entry.lastAccessed = time.Now()
	entry.accessCount++

	out := make(map[string]interface{}, len(entry.data))
	for k, v := range entry.data {
		out[k] = v
	}
	return out
}

// SetCache writes one key into a named cache, auto-registering unknown
// names and refreshing access statistics and the size estimate.
func (m *Manager) SetCache(name, key string, value interface{}) {
	m.mu.Lock()
	entry, ok := m.caches[name]
	if !ok {
		now := time.Now()
		entry = &cacheEntry{
			data:         make(map[string]interface{}),
			createdAt:    now,
			lastAccessed: now,
		}
		m.caches[name] = entry
	}
	entry.data[key] = value
	entry.lastAccessed = time.Now()
	entry.sizeBytes = estimateMapSize(entry.data)
	m.mu.Unlock()

	m.updateCacheGauge()
}

// ClearCache empties one named cache, or every cache when name is empty.
// Entries stay registered with empty payloads.
func (m *Manager) ClearCache(name string) {
	m.mu.Lock()
	if name != "" {
		if entry, ok := m.caches[name]; ok {
			entry.data = make(map[string]interface{})
			entry.sizeBytes = 0
		}
	} else {
		for _, entry := range m.caches {
			entry.data = make(map[string]interface{})
			entry.sizeBytes = 0
		}
	}
	m.mu.Unlock()

	cleared := name
	if cleared == "" {
		cleared = "all"
	}
	if m.metrics != nil {
		m.metrics.CacheEvictions.Inc()
	}
	m.updateCacheGauge()
	m.emit(map[string]interface{}{
		"cache_name": cleared,
		"action":     "cleared",
	})
}

// Caches returns the tracked cache descriptors.
func (m *Manager) Caches() []CacheInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CacheInfo, 0, len(m.caches))
	for name, entry := range m.caches {
		out = append(out, CacheInfo{
			Name:         name,
			Keys:         len(entry.data),
			CreatedAt:    entry.createdAt,
			LastAccessed: entry.lastAccessed,
			AccessCount:  entry.accessCount,
			SizeBytes:    entry.sizeBytes,
		})
	}
	return out
}

// RegisterWorker tracks a worker handle for memory accounting. Exceeding
// the configured count only warns; admission is not gated here.
func (m *Manager) RegisterWorker(workerID string, handle types.TaskHandle) {
	m.mu.Lock()
	m.workers[workerID] = workerEntry{
		handle:     handle,
		startedAt:  time.Now(),
		workerType: fmt.Sprintf("%T", handle),
	}
	count := len(m.workers)
	m.mu.Unlock()

	if m.cfg.WarnWorkers > 0 && count > m.cfg.WarnWorkers {
		m.log.Warn("worker count above threshold",
			zap.Int("current", count),
			zap.Int("max", m.cfg.WarnWorkers),
		)
		m.emit(map[string]interface{}{
			"warning_type":  "too_many_workers",
			"current_count": count,
			"max_allowed":   m.cfg.WarnWorkers,
		})
	}
}

// UnregisterWorker drops a completed worker from accounting.
func (m *Manager) UnregisterWorker(workerID string) {
	m.mu.Lock()
	entry, ok := m.workers[workerID]
	if ok {
		delete(m.workers, workerID)
	}
	m.mu.Unlock()

	if ok {
		m.emit(map[string]interface{}{
			"worker_id": workerID,
			"action":    "worker_terminated",
			"duration":  time.Since(entry.startedAt).Seconds(),
			"type":      entry.workerType,
		})
	}
}

// RegisterTempFile tracks a temporary file for deletion during cleanup.
func (m *Manager) RegisterTempFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.tempFiles {
		if existing == path {
			return
		}
	}
	m.tempFiles = append(m.tempFiles, path)
}

// CleanupTempFiles deletes tracked temp files best-effort. Each path is
// dropped from the list whether deletion succeeded or not.
func (m *Manager) CleanupTempFiles() int {
	m.mu.Lock()
	paths := m.tempFiles
	m.tempFiles = nil
	m.mu.Unlock()

	var removed int
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			m.log.Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		if m.metrics != nil {
			m.metrics.TempFilesFreed.Add(float64(removed))
		}
		m.emit(map[string]interface{}{
			"action":      "temp_files_cleaned",
			"files_count": removed,
		})
	}
	return removed
}

// TrackWeak registers obj for liveness tracking. The manager holds no
// strong reference; probes whose referent has been collected are pruned
// each reclamation cycle.
func TrackWeak[T any](m *Manager, obj *T) {
	p := weak.Make(obj)
	m.addProbe(func() bool { return p.Value() != nil })
}

func (m *Manager) addProbe(probe func() bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes = append(m.probes, probe)
}

// TrackedWeak reports the number of live weak probes.
func (m *Manager) TrackedWeak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.probes)
}

// PerformCleanup runs one full reclamation cycle: evict idle caches,
// delete temp files, prune dead weak probes, collect, snapshot.
func (m *Manager) PerformCleanup() types.MemoryStats {
	m.emit(map[string]interface{}{"action": "cleanup_started"})

	evicted := m.evictIdleCaches()
	m.CleanupTempFiles()
	m.pruneDeadProbes()

	runtime.GC()

	stats := m.Stats()

	m.mu.Lock()
	m.history = append(m.history, stats)
	if len(m.history) > maxStatsHistory {
		m.history = m.history[len(m.history)-maxStatsHistory:]
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.CleanupCycles.Inc()
	}

	m.emit(map[string]interface{}{
		"action":         "cleanup_completed",
		"caches_evicted": evicted,
		"cache_size_mb":  stats.CacheSizeMB,
		"active_workers": stats.ActiveWorkers,
		"memory_mb":      stats.MemoryUsageMB,
	})

	return stats
}

// evictIdleCaches clears caches idle past the timeout; registration
// survives eviction.
func (m *Manager) evictIdleCaches() int {
	cutoff := time.Now().Add(-m.cfg.CacheIdleTimeout)

	m.mu.Lock()
	var idle []string
	for name, entry := range m.caches {
		if entry.lastAccessed.Before(cutoff) && len(entry.data) > 0 {
			idle = append(idle, name)
		}
	}
	m.mu.Unlock()

	for _, name := range idle {
		m.ClearCache(name)
	}
	return len(idle)
}

func (m *Manager) pruneDeadProbes() {
	m.mu.Lock()
	defer m.mu.Unlock()

	alive := m.probes[:0]
	for _, probe := range m.probes {
		if probe() {
			alive = append(alive, probe)
		}
	}
	m.probes = alive
}

// Stats captures a point-in-time memory snapshot.
func (m *Manager) Stats() types.MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.mu.Lock()
	var cacheBytes int64
	for _, entry := range m.caches {
		cacheBytes += entry.sizeBytes
	}
	workers := len(m.workers)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.CacheBytes.Set(float64(cacheBytes))
	}

	return types.MemoryStats{
		TotalObjects:  ms.HeapObjects,
		CacheSizeMB:   float64(cacheBytes) / (1024 * 1024),
		ActiveWorkers: workers,
		MemoryUsageMB: float64(ms.HeapAlloc) / (1024 * 1024),
		Timestamp:     time.Now(),
	}
}

// Optimize runs an aggressive manual reclamation: the full cycle, large
// caches cleared regardless of idle time, multiple collection passes.
func (m *Manager) Optimize() types.MemoryStats {
	m.emit(map[string]interface{}{"action": "manual_optimization"})

	m.PerformCleanup()

	m.mu.Lock()
	var large []string
	for name, entry := range m.caches {
		if entry.sizeBytes > largeCacheBytes {
			large = append(large, name)
		}
	}
	m.mu.Unlock()

	for _, name := range large {
		m.ClearCache(name)
	}

	for i := 0; i < 3; i++ {
		runtime.GC()
	}
	debug.FreeOSMemory()

	stats := m.Stats()
	m.emit(map[string]interface{}{
		"action":    "memory_optimized",
		"objects":   stats.TotalObjects,
		"cache_mb":  stats.CacheSizeMB,
		"memory_mb": stats.MemoryUsageMB,
	})
	return stats
}

// History returns a copy of the snapshot ring.
func (m *Manager) History() []types.MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.MemoryStats, len(m.history))
	copy(out, m.history)
	return out
}

// HistorySummary aggregates the snapshot ring for diagnostics.
func (m *Manager) HistorySummary() types.MemorySummary {
	history := m.History()
	if len(history) == 0 {
		return types.MemorySummary{}
	}

	usage := make([]float64, len(history))
	maxUsage := math.Inf(-1)
	for i, s := range history {
		usage[i] = s.MemoryUsageMB
		if s.MemoryUsageMB > maxUsage {
			maxUsage = s.MemoryUsageMB
		}
	}

	return types.MemorySummary{
		Samples:     len(history),
		MeanUsageMB: stat.Mean(usage, nil),
		MaxUsageMB:  maxUsage,
		StdDevMB:    stat.StdDev(usage, nil),
	}
}

// ExportHistory writes the snapshot history as gzip-compressed JSON.
func (m *Manager) ExportHistory(w io.Writer) error {
	data, err := sonic.Marshal(m.History())
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	gz := gzip.NewWriter(w)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	return gz.Close()
}

// Cleanup shuts the manager down: stop the loop, terminate tracked
// workers, clear caches, delete temp files, drop weak probes, one final
// collection pass. Called once at process teardown.
func (m *Manager) Cleanup() {
	m.Stop()

	m.mu.Lock()
	workers := m.workers
	m.workers = make(map[string]workerEntry)
	m.mu.Unlock()

	for workerID, entry := range workers {
		if err := types.TerminateHandle(entry.handle); err != nil {
			m.log.Warn("failed to terminate worker",
				zap.String("worker_id", workerID),
				zap.Error(err),
			)
		}
	}

	m.ClearCache("")
	m.CleanupTempFiles()

	m.mu.Lock()
	m.probes = nil
	m.mu.Unlock()

	runtime.GC()

	m.emit(map[string]interface{}{"action": "final_cleanup"})
}

func (m *Manager) emit(data map[string]interface{}) {
	if m.sink == nil {
		return
	}
	m.sink.Emit(types.EventMemoryCleanup, data, source)
}

func (m *Manager) updateCacheGauge() {
	if m.metrics == nil {
		return
	}

	m.mu.Lock()
	var total int64
	for _, entry := range m.caches {
		total += entry.sizeBytes
	}
	m.mu.Unlock()

	m.metrics.CacheBytes.Set(float64(total))
}

// estimateMapSize is a shallow byte estimate of a cache payload. Exact
// accounting is not worth the traversal cost; the estimate only feeds
// eviction thresholds and diagnostics.
func estimateMapSize(data map[string]interface{}) int64 {
	var total int64
	for key, value := range data {
		total += int64(len(key)) + estimateValueSize(value)
	}
	return total
}

func estimateValueSize(value interface{}) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		return int64(len(v)) + 16
	case []byte:
		return int64(len(v)) + 24
	case bool:
		return 1
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return 8
	case map[string]interface{}:
		return estimateMapSize(v) + 48
	case []interface{}:
		var total int64 = 24
		for _, item := range v {
			total += estimateValueSize(item)
		}
		return total
	default:
		return 64
	}
}
