// Package trainer provides the client for the external trainer service. The
// service fine-tunes an adapter on a miner dataset against the pinned
// evaluation set and returns the eval loss; from this side it is an opaque,
// slow scoring function that must run under a timeout.
package trainer

import (
	"context"
	"fmt"
	"math"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/FLock-io/FLock-subnet/internal/config"
)

// AuthHeaders carry the hotkey-signed identity of the calling validator.
type AuthHeaders struct {
	Hotkey    string
	Signature string
	Message   string
}

// EvaluateRequest names the dataset to score and the pinned evaluation set.
type EvaluateRequest struct {
	DataPath     string `json:"dataPath"`
	EvalDataPath string `json:"evalDataPath"`
}

// EvaluateResponse is the trainer's scoring result.
type EvaluateResponse struct {
	Loss float64 `json:"loss"`
}

// Interface is the scoring surface consumed by the validator pipeline.
type Interface interface {
	Evaluate(ctx context.Context, headers AuthHeaders, req EvaluateRequest) (float64, error)
}

// Trainer is a REST client wrapper for the trainer service.
type Trainer struct {
	cfg    *config.TrainerEnvConfig
	client *resty.Client
}

var _ Interface = (*Trainer)(nil)

// NewTrainer constructs a new trainer client.
func NewTrainer(cfg *config.TrainerEnvConfig) (*Trainer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("trainer env configuration cannot be nil")
	}

	client := resty.New().
		SetBaseURL(cfg.TrainerURL).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(cfg.TrainerTimeout)

	return &Trainer{cfg: cfg, client: client}, nil
}

// Evaluate scores one dataset. It is called at most once per candidate per
// cycle and is never retried; failures are the caller's terminal state.
func (t *Trainer) Evaluate(ctx context.Context, headers AuthHeaders, req EvaluateRequest) (float64, error) {
	var out EvaluateResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("X-Hotkey", headers.Hotkey).
		SetHeader("X-Signature", headers.Signature).
		SetHeader("X-Message", headers.Message).
		SetBody(req).
		SetResult(&out).
		Post("/evaluate")
	if err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", req.DataPath, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("evaluate %s returned status %d: %s", req.DataPath, resp.StatusCode(), resp.String())
	}
	if math.IsNaN(out.Loss) || math.IsInf(out.Loss, 0) || out.Loss < 0 {
		return 0, fmt.Errorf("evaluate %s: trainer returned invalid loss %v", req.DataPath, out.Loss)
	}
	return out.Loss, nil
}
