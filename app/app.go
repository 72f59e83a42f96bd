package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/calehh/hac-gov/agent"
	"github.com/calehh/hac-gov/config"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/tx/handler"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

var ErrBlockStoreBehind = errors.New("block store is behind the governance state")

var _ abcitypes.Application = &GovApp{}

type GovApp struct {
	logger cmtlog.Logger

	db       *state.StateDB
	txHdlrs  map[tx.GovTxType]handler.TxHandler
	queriers map[string]Querier
	registry agent.Registry

	// block being finalized, written by Commit
	st *state.State
}

func NewGovApp(cfg *config.Config, registry agent.Registry, logger cmtlog.Logger) (app *GovApp, err error) {
	db, err := state.NewStateDB(filepath.Join(cfg.RootDir, "data"), logger)
	if err != nil {
		return nil, err
	}
	return newGovApp(db, registry, logger), nil
}

func newGovApp(db *state.StateDB, registry agent.Registry, logger cmtlog.Logger) (app *GovApp) {
	app = &GovApp{
		logger:   logger.With("module", "app"),
		db:       db,
		queriers: make(map[string]Querier),
		registry: registry,
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

// Start checks that the block store has every block the state was built
// from.
func (app *GovApp) Start(bs *store.BlockStore) error {
	height := app.db.Header().Height
	if height > 0 && bs.Height() < int64(height) {
		app.logger.Error("block store behind state", "store", bs.Height(), "state", height)
		return ErrBlockStoreBehind
	}
	return nil
}

func (app *GovApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("gov app stopped")
}

func (app *GovApp) registerTxHandler() {
	app.txHdlrs = handler.Handlers(app.registry, app.logger)
}

func (app *GovApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger)
	app.queriers["/ballots/"] = NewBallotQuerier(app.db, app.logger)
	app.queriers["/app_proposals/"] = NewAppProposalsQuerier(app.db, app.logger)
	app.queriers["/config/"] = NewConfigQuerier(app.db, app.logger)
	app.queriers["/vote_weight/"] = NewVoteWeightQuerier(app.db, app.logger)
	app.queriers["/deposits/"] = NewDepositQuerier(app.db, app.logger)
}

func (app *GovApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	genesis, err := types.ParseGovGenesis(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse app state fail", "err", err)
		return nil, err
	}
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	var height uint64
	if chain.InitialHeight > 1 {
		height = uint64(chain.InitialHeight - 1)
	}
	st.SetBlock(height, chain.Time)
	err = st.SaveConfig(genesis.Config)
	if err != nil {
		app.logger.Error("InitChain save config fail", "err", err)
		return nil, err
	}
	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.logger.Info("InitChain", "chain", chain.ChainId, "threshold", genesis.Config.Threshold)
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *GovApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Version:          Version,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *GovApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *GovApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *GovApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ABORT}, nil
}

func (app *GovApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *GovApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *GovApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_REJECT}, nil
}
