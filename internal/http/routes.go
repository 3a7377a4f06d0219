// internal/http/routes.go
package httpx

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/kaizM/Loss-prevention/config"
	"github.com/kaizM/Loss-prevention/internal"
	"github.com/kaizM/Loss-prevention/internal/video"
)

const relatedWindow = 30 * time.Minute

// Deps carries everything the handlers need. Wired once in main.
type Deps struct {
	Store     *internal.Store
	Processor *internal.UploadProcessor
	Watcher   *internal.FileWatcher
	Endpoints video.Endpoints
	Cfg       *config.Config
}

func Routes(r *gin.Engine, d Deps) {
	r.POST("/upload", d.handleUpload)
	r.GET("/transactions", d.handleListTransactions)
	r.GET("/transactions/:id", d.handleGetTransaction)
	r.POST("/transactions/:id/review", d.handleReview)
	r.GET("/transactions/:id/history", d.handleReviewHistory)
	r.GET("/reports/:id", d.handleGetReport)
	r.GET("/export.csv", d.handleExportCSV)
	r.GET("/clips/:id", d.handleServeClip)
	r.GET("/stats", d.handleStats)
	r.GET("/video/status", d.handleVideoStatus)
	r.GET("/health", d.handleHealth)
	r.GET("/system-metrics", d.handleSystemMetrics)
}

// handleUpload accepts a register export, stores it under a unique name, and
// runs the ingestion pipeline synchronously so the response can carry the
// classification summary.
func (d Deps) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !extAllowed(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type %q", ext)})
		return
	}

	storedName := uuid.NewString() + ext
	storedPath := filepath.Join(d.Cfg.UploadDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	reportID, txns, err := d.Processor.ProcessUpload(file.Filename, storedPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    err.Error(),
			"reportId": reportID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reportId":        reportID,
		"filename":        file.Filename,
		"suspiciousCount": len(txns),
		"transactions":    txns,
	})
}

func extAllowed(ext string) bool {
	for _, allowed := range config.GetAllowedUploadExtensions() {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (d Deps) handleListTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "50"))
	reportID, _ := strconv.ParseInt(c.Query("reportId"), 10, 64)

	filter := internal.TransactionFilter{
		Type:         c.Query("type"),
		CashierID:    c.Query("cashier"),
		ReviewStatus: c.Query("reviewStatus"),
		ReportID:     reportID,
		Page:         page,
		PerPage:      perPage,
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.Since = t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.Until = t.Add(24*time.Hour - time.Second)
		}
	}

	resp, err := d.Store.ListTransactions(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (d Deps) handleGetTransaction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	t, err := d.Store.GetTransaction(id)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	related, err := d.Store.RelatedTransactions(t, relatedWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction": t,
		"related":     related,
	})
}

type reviewRequest struct {
	Status     string `json:"status" binding:"required"`
	Notes      string `json:"notes"`
	ReviewedBy string `json:"reviewedBy"`
}

func (d Deps) handleReview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !internal.ValidReviewStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid review status %q", req.Status)})
		return
	}

	if err := d.Store.UpdateReview(id, req.Status, req.Notes, req.ReviewedBy); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": req.Status})
}

func (d Deps) handleReviewHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	logs, err := d.Store.ReviewHistory(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}

func (d Deps) handleGetReport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	report, err := d.Store.GetReport(id)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleExportCSV streams every stored transaction as a CSV attachment.
func (d Deps) handleExportCSV(c *gin.Context) {
	items, err := d.Store.AllForExport()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="suspicious_transactions_%s.csv"`, time.Now().Format("2006-01-02")))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "timestamp", "transaction_id", "type", "cashier", "register",
		"amount", "pump", "review_status", "clip_path"})
	for _, t := range items {
		clip := ""
		if t.VideoClipPath != nil {
			clip = *t.VideoClipPath
		}
		_ = w.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Timestamp.Format("2006-01-02 15:04:05"),
			t.TransactionID,
			t.TransactionType,
			t.CashierID,
			t.RegisterID,
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			t.PumpNumber,
			t.ReviewStatus,
			clip,
		})
	}
	w.Flush()
}

// handleServeClip streams a transaction's evidence clip with range support so
// browsers can seek.
func (d Deps) handleServeClip(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	t, err := d.Store.GetTransaction(id)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if t.VideoClipPath == nil || *t.VideoClipPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no clip available for this transaction"})
		return
	}

	c.Header("Content-Type", "video/mp4")
	ServeFileRange(c.Writer, c.Request, *t.VideoClipPath)
}

func (d Deps) handleStats(c *gin.Context) {
	stats, err := d.Store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (d Deps) handleVideoStatus(c *gin.Context) {
	status := d.Endpoints.TestConnections(config.ProbeTimeout)
	c.JSON(http.StatusOK, status)
}

func (d Deps) handleHealth(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
	if d.Watcher != nil {
		resp["watcher"] = d.Watcher.GetHealthStats()
	}
	c.JSON(http.StatusOK, resp)
}

// handleSystemMetrics reports host CPU, memory, and disk pressure. Useful
// when clip extraction competes with the DVR software for the same box.
func (d Deps) handleSystemMetrics(c *gin.Context) {
	metrics := gin.H{}

	if percent, err := cpu.Percent(time.Second, false); err == nil && len(percent) > 0 {
		metrics["cpu_percent"] = percent[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		metrics["memory"] = gin.H{
			"total_mb":     vm.Total / 1024 / 1024,
			"used_mb":      vm.Used / 1024 / 1024,
			"used_percent": vm.UsedPercent,
		}
	}
	if wd, err := os.Getwd(); err == nil {
		if usage, err := disk.Usage(wd); err == nil {
			metrics["disk"] = gin.H{
				"total_gb":     usage.Total / 1024 / 1024 / 1024,
				"free_gb":      usage.Free / 1024 / 1024 / 1024,
				"used_percent": usage.UsedPercent,
			}
		}
	}

	c.JSON(http.StatusOK, metrics)
}
