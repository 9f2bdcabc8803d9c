package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rankcore/pkg/rankings"
)

// noopLogger backs every service built without WithLogger; it must absorb
// any call shape.
func TestNoopLogger(t *testing.T) {
	logger := noopLogger{}
	logger.Debug("test message", "arg1", "arg2")
	logger.Info("test message", "arg1", "arg2")
	logger.Warn("test message")
	logger.Error("test message", "odd-arg")
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.lines = append(l.lines, "debug: "+msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.lines = append(l.lines, "info: "+msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.lines = append(l.lines, "warn: "+msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.lines = append(l.lines, "error: "+msg) }

func (l *recordingLogger) has(line string) bool {
	for _, got := range l.lines {
		if got == line {
			return true
		}
	}
	return false
}

func TestServiceLogsReloads(t *testing.T) {
	log := &recordingLogger{}
	stub := &stubTableSource{}
	stub.set(fixtureTables(), nil)
	svc := NewService(stub, WithLogger(log))

	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !log.has("info: tables reloaded") {
		t.Fatalf("expected reload log, got %v", log.lines)
	}

	stub.fail(errors.New("datastore offline"), nil)
	if err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected reload failure")
	}
	if !log.has("error: table reload failed") {
		t.Fatalf("expected failure log, got %v", log.lines)
	}
}

func TestServiceLogsDroppedRankRows(t *testing.T) {
	log := &recordingLogger{}
	stub := &stubTableSource{}
	stub.set(fixtureTables(), nil)
	svc := NewService(stub, WithLogger(log))
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	sel := rankings.Selection{Periods: svc.Periods(context.Background()), Comparator: comparatorName}
	svc.BuildSourceRankRanges(context.Background(), rankings.SourceTimes, sel)
	for _, line := range log.lines {
		if strings.HasPrefix(line, "debug: rank rows dropped") {
			return
		}
	}
	t.Fatalf("expected dropped rank rows debug log, got %v", log.lines)
}
