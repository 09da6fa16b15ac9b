package inbound

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-storesync/core"
	"github.com/goliatone/go-storesync/webhooks"
)

const (
	StatusSuccess   = "success"
	StatusNoPayload = "no payload"
	StatusError     = "error"

	InvalidSignatureBody = "Invalid signature"
)

type Allocator interface {
	Allocate(ctx context.Context, source string, scriptName string, customer string) (core.ScriptRun, error)
}

type AuditLog interface {
	core.Auditor
	EndRun(ctx context.Context, runID core.RunID, startedAt time.Time)
}

type Verifier interface {
	Verify(rawBody []byte, signatureHeader string, secret string) bool
}

type Request struct {
	Body       []byte
	Headers    http.Header
	ReceivedAt time.Time
}

func (r Request) ContentType() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Status      string
	RunID       core.RunID
	Err         error
}

type Config struct {
	Secret   string
	Identity core.RunIdentity
	// LogPayload disables payload masking in debug output.
	LogPayload bool
}

type Dispatcher struct {
	allocator    Allocator
	audit        AuditLog
	verifier     Verifier
	synchronizer core.Synchronizer
	logger       core.Logger
	config       Config
	now          core.Clock
}

type Option func(*Dispatcher)

func WithVerifier(verifier Verifier) Option {
	return func(d *Dispatcher) {
		if verifier != nil {
			d.verifier = verifier
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithClock(clock core.Clock) Option {
	return func(d *Dispatcher) {
		d.now = clock
	}
}

func NewDispatcher(
	cfg Config,
	allocator Allocator,
	audit AuditLog,
	synchronizer core.Synchronizer,
	opts ...Option,
) (*Dispatcher, error) {
	if allocator == nil {
		return nil, fmt.Errorf("inbound: allocator is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("inbound: audit log is required")
	}
	if synchronizer == nil {
		return nil, fmt.Errorf("inbound: synchronizer is required")
	}
	cfg.Identity = cfg.Identity.Normalize()
	dispatcher := &Dispatcher{
		allocator:    allocator,
		audit:        audit,
		synchronizer: synchronizer,
		config:       cfg,
	}
	_, dispatcher.logger = glog.Resolve("storesync.inbound", nil, nil)
	for _, opt := range opts {
		if opt != nil {
			opt(dispatcher)
		}
	}
	if dispatcher.verifier == nil {
		dispatcher.verifier = webhooks.SignatureVerifier{
			Logger:     dispatcher.logger,
			LogPayload: cfg.LogPayload,
		}
	}
	return dispatcher, nil
}

// Handle allocates a run, parses and verifies the body, invokes the
// Synchronizer and closes the run. It never returns an error; the outcome is
// carried in the Response.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	if req.Headers == nil {
		req.Headers = http.Header{}
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = d.now.Now()
	}
	identity := d.config.Identity

	run, err := d.allocator.Allocate(ctx, identity.Source, identity.ScriptName, identity.Customer)
	if err != nil {
		core.LogWithLevel(ctx, d.logger, "error", "webhook rejected: run allocation failed", map[string]any{
			"source":      identity.Source,
			"script_name": identity.ScriptName,
			"error":       err.Error(),
		})
		return jsonResponse(http.StatusInternalServerError, StatusError, 0, err)
	}

	meta := webhooks.MetaFromHeaders(req.Headers, req.ReceivedAt)
	core.LogWithLevel(ctx, d.logger, "info", "run started", map[string]any{
		"run_id":      int64(run.RunID),
		"source":      run.Source,
		"script_name": run.ScriptName,
		"customer":    run.Customer,
		"topic":       meta.Topic,
		"delivery_id": meta.DeliveryID,
		"origin":      meta.Source,
		"headers":     redactedHeaders(req.Headers),
	})

	payload, err := webhooks.ParseBody(req.ContentType(), req.Body)
	if err != nil {
		d.audit.Record(ctx, run.RunID, core.LevelInfo, "No payload received; nothing to process", "")
		d.audit.EndRun(ctx, run.RunID, run.StartedAt)
		return jsonResponse(http.StatusOK, StatusNoPayload, run.RunID, nil)
	}

	signature := req.Headers.Get(webhooks.HeaderSignature)
	if !d.verifier.Verify(req.Body, signature, d.config.Secret) {
		d.audit.Record(ctx, run.RunID, core.LevelError, "Invalid signature", "")
		return Response{
			StatusCode:  http.StatusUnauthorized,
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(InvalidSignatureBody),
			Status:      InvalidSignatureBody,
			RunID:       run.RunID,
			Err:         core.SignatureInvalid("inbound: webhook signature mismatch", map[string]any{"run_id": int64(run.RunID)}),
		}
	}

	// Past this point the run is not cancelled by the caller going away.
	workCtx := context.WithoutCancel(ctx)
	event := webhooks.BuildEvent(payload, meta)
	if err := d.synchronize(workCtx, event, run.RunID); err != nil {
		return jsonResponse(http.StatusInternalServerError, StatusError, run.RunID, err)
	}

	d.audit.EndRun(workCtx, run.RunID, run.StartedAt)
	return jsonResponse(http.StatusOK, StatusSuccess, run.RunID, nil)
}

func (d *Dispatcher) synchronize(ctx context.Context, event core.Event, runID core.RunID) (err error) {
	var stack []byte
	defer func() {
		if recovered := recover(); recovered != nil {
			stack = debug.Stack()
			err = panicError(recovered)
		}
		if err == nil {
			return
		}
		d.audit.Record(ctx, runID, core.LevelError, failureDetail(err, stack), "")
		core.LogWithLevel(ctx, d.logger, "error", "synchronizer failed", map[string]any{
			"run_id":     int64(runID),
			"event_kind": string(event.Kind()),
			"entity_id":  event.EntityID(),
			"kind":       core.KindOf(err),
			"error":      err.Error(),
		})
		if !core.IsKind(err, core.ErrorSynchronizerFailed) {
			err = core.SynchronizerFailed(err, "inbound: synchronizer failed", map[string]any{
				"run_id":     int64(runID),
				"event_kind": string(event.Kind()),
				"entity_id":  event.EntityID(),
			})
		}
	}()
	return d.synchronizer.Synchronize(ctx, event, runID)
}

func jsonResponse(statusCode int, status string, runID core.RunID, err error) Response {
	return Response{
		StatusCode:  statusCode,
		ContentType: "application/json; charset=utf-8",
		Body:        []byte(`{"status":"` + status + `"}`),
		Status:      status,
		RunID:       runID,
		Err:         err,
	}
}

func redactedHeaders(headers http.Header) map[string]any {
	flat := make(map[string]any, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ", ")
	}
	return core.RedactSensitiveMap(flat)
}
