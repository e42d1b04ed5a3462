package trainer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FLock-io/FLock-subnet/internal/config"
)

func newTestTrainer(t *testing.T, handler http.HandlerFunc) *Trainer {
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	tr, err := NewTrainer(&config.TrainerEnvConfig{
		TrainerURL:     ts.URL,
		TrainerTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	return tr
}

func TestEvaluate_ReturnsLoss(t *testing.T) {
	tr := newTestTrainer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/evaluate" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("X-Hotkey") != "hk" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"loss":0.4375}`))
	})

	loss, err := tr.Evaluate(context.Background(), AuthHeaders{Hotkey: "hk"}, EvaluateRequest{DataPath: "d", EvalDataPath: "e"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if loss != 0.4375 {
		t.Fatalf("unexpected loss: %v", loss)
	}
}

func TestEvaluate_ServerError(t *testing.T) {
	tr := newTestTrainer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := tr.Evaluate(context.Background(), AuthHeaders{}, EvaluateRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEvaluate_NegativeLossRejected(t *testing.T) {
	tr := newTestTrainer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"loss":-1.5}`))
	})
	if _, err := tr.Evaluate(context.Background(), AuthHeaders{}, EvaluateRequest{}); err == nil {
		t.Fatalf("expected error for negative loss")
	}
}

func TestEvaluate_ContextCancellation(t *testing.T) {
	tr := newTestTrainer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"loss":0.1}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := tr.Evaluate(ctx, AuthHeaders{}, EvaluateRequest{}); err == nil {
		t.Fatalf("expected context deadline error")
	}
}
