package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-storesync/core"
	"github.com/goliatone/go-storesync/inbound"
	"github.com/goliatone/go-storesync/query"
	"go.uber.org/zap"
)

const maxWebhookBody = 10 << 20

type WebhookHandler interface {
	Handle(ctx context.Context, req inbound.Request) inbound.Response
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// LevelCounter is implemented by log stores that can count a run's entries
// per level. The run detail route reports error_count when Logs supports it.
type LevelCounter interface {
	CountByLevel(ctx context.Context, runID core.RunID, level core.Level) (int, error)
}

// RunsReader backs the admin routes.
type RunsReader interface {
	query.RunReader
	query.RecentRunsReader
}

type Config struct {
	WebhookPath string
	AdminSecret string
	CORSOrigins []string
	Debug       bool
	PingTimeout time.Duration
}

type Dependencies struct {
	Webhook WebhookHandler
	Health  HealthChecker
	Runs    RunsReader
	Logs    query.RunLogReader
	Logger  *zap.Logger
	Now     core.Clock
}

// NewRouter builds the gin engine. Admin routes are mounted only when an
// admin secret is configured.
func NewRouter(cfg Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Webhook == nil {
		return nil, fmt.Errorf("httpapi: webhook handler is required")
	}
	path := strings.TrimSpace(cfg.WebhookPath)
	if path == "" {
		path = "/webhook"
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("httpapi: webhook path must start with /")
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 5 * time.Second
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger))

	h := &handlers{deps: deps, pingTimeout: cfg.PingTimeout}
	router.POST(path, h.webhook)
	router.GET("/healthz", h.health)

	if strings.TrimSpace(cfg.AdminSecret) != "" && deps.Runs != nil && deps.Logs != nil {
		admin := router.Group("/runs", cors.New(corsConfig(cfg.CORSOrigins)), AdminAuth(cfg.AdminSecret))
		admin.GET("", h.listRuns)
		admin.GET("/:run_id", h.getRun)
		admin.GET("/:run_id/logs", h.listRunLogs)
	}
	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

type handlers struct {
	deps        Dependencies
	pingTimeout time.Duration
}

func (h *handlers) webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		abortWithError(c, core.BadInput("request body could not be read", map[string]any{"reason": err.Error()}))
		return
	}
	resp := h.deps.Webhook.Handle(c.Request.Context(), inbound.Request{
		Body:       body,
		Headers:    c.Request.Header.Clone(),
		ReceivedAt: h.deps.Now.Now(),
	})
	if resp.RunID.Valid() {
		c.Header("X-Storesync-Run-ID", resp.RunID.String())
	}
	c.Data(resp.StatusCode, resp.ContentType, resp.Body)
}

func (h *handlers) health(c *gin.Context) {
	if h.deps.Health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()
	if err := h.deps.Health.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listRuns(c *gin.Context) {
	msg := query.ListRecentRunsMessage{Limit: intParam(c, "limit")}
	if err := msg.Validate(); err != nil {
		abortWithError(c, err)
		return
	}
	out, err := query.NewListRecentRunsQuery(h.deps.Runs).Query(c.Request.Context(), msg)
	if err != nil {
		abortWithError(c, err)
		return
	}
	items := make([]runResponse, 0, len(out))
	for _, run := range out {
		items = append(items, toRunResponse(run))
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *handlers) getRun(c *gin.Context) {
	runID, err := core.ParseRunID(c.Param("run_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	msg := query.GetRunMessage{RunID: runID}
	if err := msg.Validate(); err != nil {
		abortWithError(c, err)
		return
	}
	run, err := query.NewGetRunQuery(h.deps.Runs).Query(c.Request.Context(), msg)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := toRunResponse(run)
	if counter, ok := h.deps.Logs.(LevelCounter); ok {
		errorCount, err := counter.CountByLevel(c.Request.Context(), run.RunID, core.LevelError)
		if err != nil {
			abortWithError(c, err)
			return
		}
		out.ErrorCount = &errorCount
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) listRunLogs(c *gin.Context) {
	runID, err := core.ParseRunID(c.Param("run_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	msg := query.ListRunLogsMessage{
		RunID:   runID,
		Page:    intParam(c, "page"),
		PerPage: intParam(c, "per_page"),
	}
	if err := msg.Validate(); err != nil {
		abortWithError(c, err)
		return
	}
	page, err := query.NewListRunLogsQuery(h.deps.Logs).Query(c.Request.Context(), msg)
	if err != nil {
		abortWithError(c, err)
		return
	}
	items := make([]logResponse, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, toLogResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{
		"data": items,
		"pagination": gin.H{
			"total":         page.Total,
			"current_page":  page.Page,
			"size":          page.PerPage,
			"has_next_page": page.HasNext,
		},
	})
}

// intParam reads a query integer; malformed values become -1 so message
// validation rejects them.
func intParam(c *gin.Context, key string) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}

type runResponse struct {
	RunID      int64      `json:"run_id"`
	Customer   string     `json:"customer"`
	Source     string     `json:"source"`
	ScriptName string     `json:"script_name"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
	Elapsed    string     `json:"elapsed,omitempty"`
	ErrorCount *int       `json:"error_count,omitempty"`
}

func toRunResponse(run core.ScriptRun) runResponse {
	out := runResponse{
		RunID:      int64(run.RunID),
		Customer:   run.Customer,
		Source:     run.Source,
		ScriptName: run.ScriptName,
		StartedAt:  run.StartedAt,
		EndedAt:    run.EndedAt,
	}
	if run.EndedAt != nil {
		out.Elapsed = core.FormatElapsed(run.EndedAt.Sub(run.StartedAt))
	}
	return out
}

type logResponse struct {
	ID        string    `json:"id"`
	RunID     int64     `json:"run_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	TableName string    `json:"table_name,omitempty"`
}

func toLogResponse(entry core.LogEntry) logResponse {
	return logResponse{
		ID:        entry.ID,
		RunID:     int64(entry.RunID),
		Level:     string(entry.Level),
		Message:   entry.Message,
		Timestamp: entry.Timestamp,
		TableName: entry.TableName,
	}
}
