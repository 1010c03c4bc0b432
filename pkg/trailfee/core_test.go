package trailfee

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type stubExporter struct {
	calls int
	err   error
}

func (s *stubExporter) Export(r *Report) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte(r.Sheet), nil
}

func testCore(exp Exporter) *Core {
	return New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Exporter: exp})
}

func TestCore_CalculateAttachesExport(t *testing.T) {
	exp := &stubExporter{}
	out, err := testCore(exp).CalculateAndExport(flatInput(
		holdingsTable([]string{"A", "EUR", "1", "2024-01-31"}),
		valuationsTable([]string{"A", "1", "2024-01-31"}),
	))
	assertNoError(t, err, "calculate")
	if string(out.Export) != SheetName || exp.calls != 1 {
		t.Fatalf("expected export to run once, got %q after %d calls", out.Export, exp.calls)
	}
	if out.RunID == "" {
		t.Fatal("expected run id")
	}
	if len(out.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out.Records))
	}
}

func TestCore_ExportFailureIsProcessingError(t *testing.T) {
	boom := errors.New("disk full")
	_, err := testCore(&stubExporter{err: boom}).CalculateAndExport(flatInput(holdingsTable(), valuationsTable()))
	if !IsErrorCode(err, ErrCodeProcessing) {
		t.Fatalf("expected processing error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestCore_ValidationSkipsExport(t *testing.T) {
	exp := &stubExporter{}
	_, err := testCore(exp).CalculateAndExport(Input{Strategy: StrategyFlat, FlatBps: DefaultFlatBps})
	if !IsErrorCode(err, ErrCodeSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if exp.calls != 0 {
		t.Fatalf("export ran %d times after a failed validation", exp.calls)
	}
}

func TestCore_CalculateDoesNotExport(t *testing.T) {
	exp := &stubExporter{err: errors.New("must not run")}
	out, err := testCore(exp).Calculate(flatInput(
		holdingsTable([]string{"A", "EUR", "1", "2024-01-31"}),
		valuationsTable([]string{"A", "1", "2024-01-31"}),
	))
	assertNoError(t, err, "calculate")
	if out.Export != nil || exp.calls != 0 {
		t.Fatalf("expected no export, got %d bytes after %d calls", len(out.Export), exp.calls)
	}
}

func TestCore_NilExporter(t *testing.T) {
	out, err := New(Options{}).Calculate(flatInput(holdingsTable(), valuationsTable()))
	assertNoError(t, err, "calculate")
	if out.Export != nil {
		t.Fatalf("expected no export, got %d bytes", len(out.Export))
	}

	_, err = New(Options{}).CalculateAndExport(flatInput(holdingsTable(), valuationsTable()))
	if !IsErrorCode(err, ErrCodeInternal) {
		t.Fatalf("expected internal error without exporter, got %v", err)
	}
}
