package scheduler

import (
	"errors"
	"testing"
)

func TestShouldTrigger_FirstObservationOnBoundary(t *testing.T) {
	bc := NewBlockCallback(100, func() error { return nil })

	if bc.ShouldTrigger(150) {
		t.Fatal("must not trigger off-boundary before first run")
	}
	if !bc.ShouldTrigger(200) {
		t.Fatal("must trigger on boundary")
	}
}

func TestShouldTrigger_AfterFirstRun(t *testing.T) {
	bc := NewBlockCallback(100, func() error { return nil })
	bc.LastTriggerAtBlock = 200

	if bc.ShouldTrigger(250) {
		t.Fatal("must not trigger before interval elapsed")
	}
	if !bc.ShouldTrigger(300) {
		t.Fatal("must trigger once interval elapsed")
	}
	if !bc.ShouldTrigger(431) {
		t.Fatal("must trigger after a gap larger than the interval")
	}
}

func TestExecute_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	bc := NewBlockCallback(10, func() error { return boom })
	if err := bc.Execute(); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func tickOver() error { return nil }

func TestGetName_InfersFromFunc(t *testing.T) {
	bc := NewBlockCallback(10, tickOver)
	if got := bc.GetName(); got != "tickOver" {
		t.Fatalf("expected callback named after its function, got %q", got)
	}
}

func TestInferNameFromFunc_NonFunc(t *testing.T) {
	if got := InferNameFromFunc(42); got != "unknown" {
		t.Fatalf("expected unknown for a non-function, got %q", got)
	}
}
