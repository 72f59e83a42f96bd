package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/calehh/hac-gov/gov"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
)

var (
	ErrAppNotFound   = errors.New("app not found in registry")
	ErrAssetNotFound = errors.New("asset not found in registry")
	ErrRegistryQuery = errors.New("registry query failed")
	// ErrRegistryUnavailable wraps transport failures, where the registry
	// gave no answer at all.
	ErrRegistryUnavailable = errors.New("registry unavailable")
)

const (
	PathRegistry        = "/registry/"
	PathRegistryApp     = "/registry/app"
	PathRegistryAsset   = "/registry/asset"
	PathRegistrySupply  = "/registry/supply"
	PathRegistryBalance = "/registry/balance"
)

// AppData is the governance part of an app registered with the registry.
type AppData struct {
	ID               uint64 `json:"id"`
	MinGovDeposit    uint64 `json:"min_gov_deposit"`
	GovTimeInSeconds uint64 `json:"gov_time_in_seconds"`
	GovTokenID       uint64 `json:"gov_token_id"`
}

// Registry is everything the governance handlers read from the app
// registry: action eligibility, app and asset metadata and voting weight.
type Registry interface {
	gov.Validator
	App(ctx context.Context, appID uint64) (*AppData, error)
	AssetDenom(ctx context.Context, assetID uint64) (string, error)
	TotalSupply(ctx context.Context, appID, assetID uint64) (uint64, error)
	BalanceAt(ctx context.Context, address, denom string, height uint64, target string) (uint64, error)
}

type abciQuerier interface {
	ABCIQuery(ctx context.Context, path string, data cmtbytes.HexBytes) (*ctypes.ResultABCIQuery, error)
}

var _ Registry = &RPCRegistry{}
var _ Registry = &MockRegistry{}

// RPCRegistry queries a registry chain through its cometbft RPC endpoint.
type RPCRegistry struct {
	logger  cmtlog.Logger
	cli     abciQuerier
	timeout time.Duration
}

func NewRPCRegistry(url string, timeout time.Duration, logger cmtlog.Logger) (*RPCRegistry, error) {
	cli, err := comethttp.New(url, "/websocket")
	if err != nil {
		return nil, err
	}
	return newRPCRegistry(cli, timeout, logger), nil
}

func newRPCRegistry(cli abciQuerier, timeout time.Duration, logger cmtlog.Logger) *RPCRegistry {
	return &RPCRegistry{
		logger:  logger.With("module", "registry"),
		cli:     cli,
		timeout: timeout,
	}
}

func (r *RPCRegistry) query(ctx context.Context, path string, req any, res any) (err error) {
	dat, err := json.Marshal(req)
	if err != nil {
		return
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	qres, err := r.cli.ABCIQuery(ctx, path, dat)
	if err != nil {
		r.logger.Error("ABCIQuery fail", "path", path, "err", err)
		return fmt.Errorf("%w: %s: %w", ErrRegistryUnavailable, path, err)
	}
	if qres.Response.Code != 0 {
		return fmt.Errorf("%w: %s code %d: %s", ErrRegistryQuery, path, qres.Response.Code, qres.Response.Log)
	}
	err = json.Unmarshal(qres.Response.Value, res)
	return
}

func (r *RPCRegistry) Validate(ctx context.Context, req *gov.ValidateRequest) (res *gov.ValidateResponse, err error) {
	res = new(gov.ValidateResponse)
	err = r.query(ctx, PathRegistry+req.Tag, req.Action, res)
	if err != nil {
		return nil, err
	}
	return
}

func (r *RPCRegistry) App(ctx context.Context, appID uint64) (app *AppData, err error) {
	var res struct {
		Found bool     `json:"found"`
		App   *AppData `json:"app"`
	}
	err = r.query(ctx, PathRegistryApp, map[string]uint64{"app_id": appID}, &res)
	if err != nil {
		return
	}
	if !res.Found || res.App == nil {
		return nil, fmt.Errorf("%w: %d", ErrAppNotFound, appID)
	}
	app = res.App
	return
}

func (r *RPCRegistry) AssetDenom(ctx context.Context, assetID uint64) (denom string, err error) {
	var res struct {
		Found bool   `json:"found"`
		Denom string `json:"denom"`
	}
	err = r.query(ctx, PathRegistryAsset, map[string]uint64{"asset_id": assetID}, &res)
	if err != nil {
		return
	}
	if !res.Found {
		return "", fmt.Errorf("%w: %d", ErrAssetNotFound, assetID)
	}
	denom = res.Denom
	return
}

func (r *RPCRegistry) TotalSupply(ctx context.Context, appID, assetID uint64) (supply uint64, err error) {
	var res struct {
		CurrentSupply uint64 `json:"current_supply"`
	}
	err = r.query(ctx, PathRegistrySupply, map[string]uint64{"app_id": appID, "asset_id": assetID}, &res)
	if err != nil {
		return
	}
	supply = res.CurrentSupply
	return
}

func (r *RPCRegistry) BalanceAt(ctx context.Context, address, denom string, height uint64, target string) (amount uint64, err error) {
	req := struct {
		Address string `json:"address"`
		Denom   string `json:"denom"`
		Height  uint64 `json:"height"`
		Target  string `json:"target"`
	}{address, denom, height, target}
	var res struct {
		Amount uint64 `json:"amount"`
	}
	err = r.query(ctx, PathRegistryBalance, req, &res)
	if err != nil {
		return
	}
	amount = res.Amount
	return
}

// MockRegistry serves fixed data. Every action is eligible unless Reject
// was called for its tag.
type MockRegistry struct {
	mtx sync.Mutex

	apps     map[uint64]*AppData
	assets   map[uint64]string
	supply   map[uint64]uint64
	balances map[string]uint64
	rejected map[string]string

	Err   error
	calls int
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		apps:     make(map[uint64]*AppData),
		assets:   make(map[uint64]string),
		supply:   make(map[uint64]uint64),
		balances: make(map[string]uint64),
		rejected: make(map[string]string),
	}
}

func (m *MockRegistry) SetApp(app *AppData) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.apps[app.ID] = app
}

func (m *MockRegistry) SetAsset(assetID uint64, denom string, supply uint64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.assets[assetID] = denom
	m.supply[assetID] = supply
}

func (m *MockRegistry) SetBalance(address, denom string, amount uint64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.balances[address+"/"+denom] = amount
}

func (m *MockRegistry) Reject(tag, reason string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.rejected[tag] = reason
}

// Calls counts Validate invocations.
func (m *MockRegistry) Calls() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.calls
}

func (m *MockRegistry) Validate(ctx context.Context, req *gov.ValidateRequest) (*gov.ValidateResponse, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if reason, ok := m.rejected[req.Tag]; ok {
		return &gov.ValidateResponse{Found: false, Err: reason}, nil
	}
	return &gov.ValidateResponse{Found: true}, nil
}

func (m *MockRegistry) App(ctx context.Context, appID uint64) (*AppData, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	app, ok := m.apps[appID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAppNotFound, appID)
	}
	n := *app
	return &n, nil
}

func (m *MockRegistry) AssetDenom(ctx context.Context, assetID uint64) (string, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	denom, ok := m.assets[assetID]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrAssetNotFound, assetID)
	}
	return denom, nil
}

func (m *MockRegistry) TotalSupply(ctx context.Context, appID, assetID uint64) (uint64, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.supply[assetID], nil
}

func (m *MockRegistry) BalanceAt(ctx context.Context, address, denom string, height uint64, target string) (uint64, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.balances[address+"/"+denom], nil
}
