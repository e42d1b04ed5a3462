package kami

// KamiResponse is the envelope every Kami endpoint wraps its payload in.
type KamiResponse[T any] struct {
	StatusCode int            `json:"statusCode"`
	Success    bool           `json:"success"`
	Data       T              `json:"data"`
	Error      map[string]any `json:"error"`
}

type (
	SubnetMetagraphResponse = KamiResponse[SubnetMetagraph]
	LatestBlockResponse     = KamiResponse[LatestBlock]
	KeyringPairInfoResponse = KamiResponse[KeyringPairInfo]
	CommitmentResponse      = KamiResponse[Commitment]
	SignMessageResponse     = KamiResponse[SignMessage]
	ExtrinsicHashResponse   = KamiResponse[string]
)

// Interface is the chain surface consumed by the validator and miner runtimes.
type Interface interface {
	GetMetagraph(netuid int) (SubnetMetagraphResponse, error)
	GetLatestBlock() (LatestBlockResponse, error)
	GetCommitment(netuid int, hotkey string) (CommitmentResponse, error)
	SetCommitment(params SetCommitmentParams) (ExtrinsicHashResponse, error)
	SetWeights(params SetWeightsParams) (ExtrinsicHashResponse, error)
	SignMessage(params SignMessageParams) (SignMessageResponse, error)
	GetKeyringPair() (KeyringPairInfoResponse, error)
}

// SubnetMetagraph is the subset of metagraph state the subnet needs.
type SubnetMetagraph struct {
	Netuid              int       `json:"netuid"`
	Name                string    `json:"name"`
	Block               int       `json:"block"`
	Tempo               int       `json:"tempo"`
	WeightsVersion      int       `json:"weightsVersion"`
	WeightsRateLimit    int       `json:"weightsRateLimit"`
	NumUids             int       `json:"numUids"`
	MaxUids             int       `json:"maxUids"`
	ImmunityPeriod      int       `json:"immunityPeriod"`
	Hotkeys             []string  `json:"hotkeys"`
	Coldkeys            []string  `json:"coldkeys"`
	Active              []bool    `json:"active"`
	LastUpdate          []int     `json:"lastUpdate"`
	BlockAtRegistration []int64   `json:"blockAtRegistration"`
	AlphaStake          []float64 `json:"alphaStake"`
	TaoStake            []float64 `json:"taoStake"`
	TotalStake          []float64 `json:"totalStake"`
}

type LatestBlock struct {
	ParentHash     string `json:"parentHash"`
	BlockNumber    int    `json:"blockNumber"`
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
}

type KeyringPair struct {
	Address   string         `json:"address"`
	IsLocked  bool           `json:"isLocked"`
	Meta      map[string]any `json:"meta"`
	PublicKey map[string]any `json:"publicKey"`
	Type      string         `json:"type"`
}

type KeyringPairInfo struct {
	KeyringPair   KeyringPair `json:"keyringPair"`
	WalletColdkey string      `json:"walletColdkey"`
}

// Commitment is the raw on-chain commitment for one hotkey. Data is empty when
// the hotkey has never committed.
type Commitment struct {
	Hotkey string `json:"hotkey"`
	Block  int64  `json:"block"`
	Data   string `json:"data"`
}

type SetCommitmentParams struct {
	Netuid int    `json:"netuid"`
	Data   string `json:"data"`
}

type SetWeightsParams struct {
	Netuid     int   `json:"netuid"`
	Dests      []int `json:"dests"`
	Weights    []int `json:"weights"`
	VersionKey int   `json:"versionKey"`
}

type SignMessageParams struct {
	Message string `json:"message"`
}

type SignMessage struct {
	Signature string `json:"signature"`
}
