package app

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/hac-gov/agent"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/tx/handler"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnsupportedTx  = errors.New("unsupported tx")
	ErrNothingToApply = errors.New("commit without finalized block")
)

// newBlockState starts the working state of the block at height and resets
// the per-block handler bookkeeping.
func (app *GovApp) newBlockState(ctx context.Context, height int64, blkTime time.Time) (st *state.State) {
	st = app.db.NewState()
	st.SetBlock(uint64(height), blkTime)
	for _, h := range app.txHdlrs {
		h.NewContext(ctx)
	}
	return
}

// parseTx decodes txDat and checks nonce and signature against st.
func (app *GovApp) parseTx(txDat []byte, st *state.State, allowNonceGap bool) (btx *tx.GovTx, h handler.TxHandler, err error) {
	btx, err = tx.UnmarshalGovTx(txDat)
	if err != nil {
		return
	}
	_, err = st.Verify(btx, allowNonceGap)
	if err != nil {
		return
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return nil, nil, ErrUnsupportedTx
	}
	return
}

func (app *GovApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	st := app.db.State()
	btx, h, err := app.parseTx(check.Tx, st, true)
	if err != nil {
		app.logger.Info("parse tx fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Debug("check tx", "type", btx.Type, "sender", btx.Sender())
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}
		err = nil
	}
	return
}

func (app *GovApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.newBlockState(ctx, proposal.Height, proposal.Time)
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		btx, h, err := app.parseTx(stx, st, false)
		if err != nil {
			app.logger.Info("drop tx, parse fail", "err", err)
			continue
		}
		stTmp := st.Clone()
		_, err = h.Prepare(ctx, stTmp, btx)
		if err != nil {
			app.logger.Info("drop tx, prepare fail", "type", btx.Type, "err", err)
			continue
		}
		st = stTmp
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *GovApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st := app.newBlockState(ctx, proposal.Height, proposal.Time)
	for _, stx := range proposal.Txs {
		btx, h, err := app.parseTx(stx, st, false)
		if err != nil {
			app.logger.Error("reject proposal, parse fail", "err", err)
			return res, nil
		}
		stTmp := st.Clone()
		_, err = h.Process(ctx, stTmp, btx)
		if errors.Is(err, agent.ErrRegistryUnavailable) {
			// no answer is not a verdict on the block
			app.logger.Error("registry unavailable, tx not checked", "type", btx.Type, "err", err)
			continue
		}
		if err != nil {
			app.logger.Error("reject proposal, process fail", "type", btx.Type, "err", err)
			return res, nil
		}
		st = stTmp
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *GovApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	st := app.newBlockState(ctx, req.Height, req.Time)
	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		var typ tx.GovTxType
		result, err := func() (*abcitypes.ExecTxResult, error) {
			btx, h, err := app.parseTx(stx, st, false)
			if btx != nil {
				typ = btx.Type
			}
			if err != nil {
				return nil, err
			}
			stTmp := st.Clone()
			result, err := h.Process(ctx, stTmp, btx)
			if err != nil {
				return nil, err
			}
			st = stTmp
			return result, nil
		}()
		if err != nil {
			app.logger.Info("tx fail", "index", i, "type", typ, "err", err)
			result = &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
		}
		observeTx(typ, result)
		results[i] = result
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.st = st
	blockHeight.Set(float64(req.Height))
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *GovApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrNothingToApply
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit")
	return &abcitypes.ResponseCommit{}, nil
}
