package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/memory"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/state"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/worker"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	state   *state.Manager
	memory  *memory.Manager
	workers *worker.Manager
}

// NewHandlers creates a new handler set
func NewHandlers(st *state.Manager, mem *memory.Manager, wrk *worker.Manager) *Handlers {
	return &Handlers{
		state:   st,
		memory:  mem,
		workers: wrk,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Ordenasion Coordinator (Go)",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"state":   h.state.Summary(),
		"workers": h.workers.Stats(),
		"memory":  h.memory.Stats(),
	})
}

// GetState returns the application state summary.
func (h *Handlers) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Summary())
}

// SetTheme changes the current theme.
func (h *Handlers) SetTheme(c *gin.Context) {
	var req struct {
		Theme string `json:"theme" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.state.SetTheme(req.Theme)
	c.JSON(http.StatusOK, gin.H{"theme": h.state.Theme()})
}

// SetFontSize changes the current font size.
func (h *Handlers) SetFontSize(c *gin.Context) {
	var req struct {
		FontSize int `json:"font_size" binding:"required,min=6,max=32"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.state.SetFontSize(req.FontSize)
	c.JSON(http.StatusOK, gin.H{"font_size": h.state.FontSize()})
}

// SetDisk selects the working volume.
func (h *Handlers) SetDisk(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.state.SetCurrentDisk(req.Path)
	c.JSON(http.StatusOK, gin.H{"current_disk": h.state.CurrentDisk()})
}

// ListDisks enumerates the mounted volumes via the lazy disk collaborator.
func (h *Handlers) ListDisks(c *gin.Context) {
	svc := h.state.Disks()
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "disk service unavailable"})
		return
	}

	paths, err := svc.Paths()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"disks": paths})
}

// ListCategories returns the category names via the lazy collaborator.
func (h *Handlers) ListCategories(c *gin.Context) {
	svc := h.state.Categories()
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "category service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": svc.Names()})
}

// ListWorkers returns the active workers and aggregate stats.
func (h *Handlers) ListWorkers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"workers": h.workers.ActiveWorkers(),
		"stats":   h.workers.Stats(),
	})
}

// WorkerHistory returns the terminal-record history.
func (h *Handlers) WorkerHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": h.workers.History()})
}

// CancelWorker cancels one active worker.
func (h *Handlers) CancelWorker(c *gin.Context) {
	workerID := c.Param("id")
	if !h.workers.CancelWorker(workerID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "worker not active or termination failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": workerID})
}

// CancelAllWorkers cancels every active worker.
func (h *Handlers) CancelAllWorkers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancelled": h.workers.CancelAll()})
}

// MemoryStats returns a point-in-time memory snapshot.
func (h *Handlers) MemoryStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.memory.Stats())
}

// MemoryHistory returns the snapshot ring and its summary.
func (h *Handlers) MemoryHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"history": h.memory.History(),
		"summary": h.memory.HistorySummary(),
	})
}

// MemoryHistoryExport streams the snapshot history as gzip JSON.
func (h *Handlers) MemoryHistoryExport(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Header("Content-Encoding", "gzip")
	c.Header("Content-Disposition", `attachment; filename="memory-history.json.gz"`)
	if err := h.memory.ExportHistory(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// OptimizeMemory triggers an aggressive manual reclamation.
func (h *Handlers) OptimizeMemory(c *gin.Context) {
	c.JSON(http.StatusOK, h.memory.Optimize())
}
