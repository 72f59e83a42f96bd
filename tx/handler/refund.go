package handler

import (
	"context"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type RefundTxHandler struct {
	logger cmtlog.Logger
}

func NewRefundTxHandler(logger cmtlog.Logger) (h *RefundTxHandler) {
	logger = logger.With("module", "refundTx")
	h = &RefundTxHandler{
		logger: logger,
	}
	return
}

func (h *RefundTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	return checkOn(ctx, h.logger, st, btx, h.handle)
}

func (h *RefundTxHandler) NewContext(ctx context.Context) {}

func (h *RefundTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	rtx := btx.Tx.(*tx.RefundTx)
	sender := btx.Sender()
	p, err := st.LoadProposal(rtx.Proposal)
	if err != nil {
		return
	}
	if p.Proposer != sender {
		return nil, ErrOnlyProposer
	}
	prev := p.Status
	p.UpdateStatus(st.Block())
	err = p.RefundDeposit()
	if err != nil {
		return
	}
	err = st.SaveProposal(p)
	if err != nil {
		return
	}
	err = st.IncNonce(sender)
	if err != nil {
		return
	}

	h.logger.Info("deposit refunded", "proposal", p.ID, "proposer", sender, "amount", p.Deposit)
	res = &abcitypes.ExecTxResult{}
	if prev == gov.StatusOpen {
		res.Events = append(res.Events, statusEvent(p))
	}
	res.Events = append(res.Events, types.EncodeEventRefund(&types.EventRefund{
		Proposal:        p.ID,
		ProposerAddress: sender,
		Amount:          p.Deposit,
	}))
	return
}

func (h *RefundTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *RefundTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
