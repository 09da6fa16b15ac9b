package gologger

import (
	"strings"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapBridgeWritesStructuredEntries(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewZapProvider(zap.New(core)).GetLogger("audit")

	logger.Info("run completed", "run_id", 7, "elapsed", "0:00:02")
	fieldsLogger, ok := logger.(glog.FieldsLogger)
	if !ok {
		t.Fatalf("expected zap bridge to accept structured fields")
	}
	fieldsLogger.WithFields(map[string]any{"run_id": 8}).Error("synchronizer failed")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0].LoggerName != "audit" || entries[0].Message != "run completed" {
		t.Fatalf("unexpected first entry %#v", entries[0])
	}
	if entries[0].ContextMap()["run_id"] != int64(7) {
		t.Fatalf("expected run_id field, got %#v", entries[0].ContextMap())
	}
	if entries[1].Level != zap.ErrorLevel || entries[1].ContextMap()["run_id"] != int64(8) {
		t.Fatalf("unexpected second entry %#v", entries[1])
	}
}

func TestCallerPointsAtLoggingSite(t *testing.T) {
	process, err := NewProcessLogger("development", false)
	if err != nil {
		t.Fatalf("new process logger: %v", err)
	}
	core, logs := observer.New(zap.InfoLevel)
	process = process.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))

	process.Info("direct")
	NewZapLogger(process).Info("bridged")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if !entry.Caller.Defined || !strings.HasSuffix(entry.Caller.File, "adapter_test.go") {
			t.Fatalf("expected %q to report the test file as caller, got %s", entry.Message, entry.Caller.String())
		}
	}
}

func TestNewZapLoggerNilFallsBackToNop(t *testing.T) {
	if NewZapLogger(nil) == nil {
		t.Fatalf("expected nop logger")
	}
	NewZapLogger(nil).Info("ignored")
}

var _ glog.FieldsLogger = (*zapLogger)(nil)
