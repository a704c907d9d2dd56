package types

import "time"

// MemoryStats is a point-in-time memory snapshot captured on every
// reclamation cycle and appended to a bounded history ring.
type MemoryStats struct {
	TotalObjects  uint64    `json:"total_objects"`
	CacheSizeMB   float64   `json:"cache_size_mb"`
	ActiveWorkers int       `json:"active_workers"`
	MemoryUsageMB float64   `json:"memory_usage_mb"`
	Timestamp     time.Time `json:"timestamp"`
}

// MemorySummary aggregates the snapshot history for diagnostics.
type MemorySummary struct {
	Samples     int     `json:"samples"`
	MeanUsageMB float64 `json:"mean_usage_mb"`
	MaxUsageMB  float64 `json:"max_usage_mb"`
	StdDevMB    float64 `json:"stddev_mb"`
}

// StateSummary is the application-state snapshot exposed to the UI.
type StateSummary struct {
	Theme                 string  `json:"theme"`
	FontSize              int     `json:"font_size"`
	CurrentDisk           *string `json:"current_disk,omitempty"`
	ActiveWorkers         int     `json:"active_workers"`
	CacheCount            int     `json:"cache_count"`
	ObserverCount         int     `json:"observers_count"`
	IsAnalysisRunning     bool    `json:"is_analysis_running"`
	IsOrganizationRunning bool    `json:"is_organization_running"`
}
