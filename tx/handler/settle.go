package handler

import (
	"context"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// SettleTxHandler stores the status a proposal has reached. Anyone may
// send it.
type SettleTxHandler struct {
	logger cmtlog.Logger
}

func NewSettleTxHandler(logger cmtlog.Logger) (h *SettleTxHandler) {
	logger = logger.With("module", "settleTx")
	h = &SettleTxHandler{
		logger: logger,
	}
	return
}

func (h *SettleTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	return checkOn(ctx, h.logger, st, btx, h.handle)
}

func (h *SettleTxHandler) NewContext(ctx context.Context) {}

func (h *SettleTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	stx := btx.Tx.(*tx.SettleTx)
	p, err := st.LoadProposal(stx.Proposal)
	if err != nil {
		return
	}
	if p.Status.IsTerminal() {
		return nil, gov.ErrNotOpen
	}
	p.UpdateStatus(st.Block())
	if p.Status == gov.StatusOpen {
		return nil, gov.ErrNotTerminal
	}
	err = st.SaveProposal(p)
	if err != nil {
		return
	}
	err = st.IncNonce(btx.Sender())
	if err != nil {
		return
	}

	h.logger.Info("proposal settled", "proposal", p.ID, "status", p.Status)
	res = &abcitypes.ExecTxResult{}
	res.Events = []abcitypes.Event{statusEvent(p)}
	return
}

func (h *SettleTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *SettleTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
