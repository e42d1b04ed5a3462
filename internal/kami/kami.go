// Package kami provides a Bittensor subtensor client which relies on Kami as
// the RPC endpoint. All chain reads and writes of the subnet go through here.
package kami

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/config"
	"github.com/FLock-io/FLock-subnet/internal/core"
)

// Kami is a client wrapper for the Kami HTTP API.
type Kami struct {
	client  *resty.Client
	Host    string
	Port    string
	BaseURL string
}

// NewKami creates a new Kami client using the provided environment configuration.
func NewKami(cfg *config.KamiEnvConfig) (*Kami, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	baseURL := fmt.Sprintf("http://%s:%s", cfg.KamiHost, cfg.KamiPort)

	client := resty.New().
		SetBaseURL(baseURL).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(15 * time.Second)

	return &Kami{
		client:  client,
		Host:    cfg.KamiHost,
		Port:    cfg.KamiPort,
		BaseURL: baseURL,
	}, nil
}

// Substrate error names that indicate the write hit a per-identity rate limit
// rather than a genuine failure.
var cooldownErrorNames = []string{
	"CommitmentSetRateLimitExceeded",
	"SettingWeightsTooFast",
	"TooManySetWeightsRequests",
}

func classifyChainError(errField map[string]any, path string) error {
	rendered := fmt.Sprintf("%v", errField)
	for _, name := range cooldownErrorNames {
		if strings.Contains(rendered, name) {
			return fmt.Errorf("%s: %s: %w", path, rendered, core.ErrCooldownActive)
		}
	}
	return fmt.Errorf("%s: response error: %s", path, rendered)
}

func postJSON[T any](client *resty.Client, path string, body any) (KamiResponse[T], error) {
	var result KamiResponse[T]
	resp, err := client.R().
		SetBody(body).
		SetResult(&result).
		Post(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("post request failed")
		return KamiResponse[T]{}, fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Str("path", path).Msg("post non-2xx")
		return KamiResponse[T]{}, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		err := classifyChainError(result.Error, path)
		log.Error().Err(err).Str("path", path).Msg("response contains error")
		return KamiResponse[T]{}, err
	}
	return result, nil
}

func getJSON[T any](client *resty.Client, path string) (KamiResponse[T], error) {
	var result KamiResponse[T]
	resp, err := client.R().
		SetResult(&result).
		Get(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("get request failed")
		return KamiResponse[T]{}, fmt.Errorf("get %s: %w", path, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Str("path", path).Msg("get non-2xx")
		return KamiResponse[T]{}, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		err := classifyChainError(result.Error, path)
		log.Error().Err(err).Str("path", path).Msg("response contains error")
		return KamiResponse[T]{}, err
	}
	return result, nil
}

// GetMetagraph fetches the subnet metagraph for the given netuid.
func (k *Kami) GetMetagraph(netuid int) (SubnetMetagraphResponse, error) {
	path := fmt.Sprintf("/chain/subnet-metagraph/%d", netuid)
	return getJSON[SubnetMetagraph](k.client, path)
}

// GetLatestBlock retrieves the latest block details from the chain.
func (k *Kami) GetLatestBlock() (LatestBlockResponse, error) {
	return getJSON[LatestBlock](k.client, "/chain/latest-block")
}

// GetCommitment reads the raw commitment for a hotkey on the given subnet.
// An empty Data field means the hotkey never committed.
func (k *Kami) GetCommitment(netuid int, hotkey string) (CommitmentResponse, error) {
	path := fmt.Sprintf("/chain/commitment/%d/%s", netuid, url.PathEscape(hotkey))
	return getJSON[Commitment](k.client, path)
}

// SetCommitment registers an artifact reference on chain for the node's hotkey.
// Subject to the chain's commitment rate limit; a rejected write surfaces as
// core.ErrCooldownActive.
func (k *Kami) SetCommitment(params SetCommitmentParams) (ExtrinsicHashResponse, error) {
	return postJSON[string](k.client, "/chain/set-commitment", params)
}

// SetWeights sets the subnet weights and returns the extrinsic hash response.
func (k *Kami) SetWeights(params SetWeightsParams) (ExtrinsicHashResponse, error) {
	return postJSON[string](k.client, "/chain/set-weights", params)
}

// SignMessage signs an arbitrary message with the node's keypair.
func (k *Kami) SignMessage(params SignMessageParams) (SignMessageResponse, error) {
	return postJSON[SignMessage](k.client, "/substrate/sign-message/sign", params)
}

// GetKeyringPair returns information about the node's keyring pair.
func (k *Kami) GetKeyringPair() (KeyringPairInfoResponse, error) {
	return getJSON[KeyringPairInfo](k.client, "/substrate/keyring-pair-info")
}
