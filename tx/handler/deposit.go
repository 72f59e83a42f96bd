package handler

import (
	"context"

	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type DepositTxHandler struct {
	logger cmtlog.Logger
}

func NewDepositTxHandler(logger cmtlog.Logger) (h *DepositTxHandler) {
	logger = logger.With("module", "depositTx")
	h = &DepositTxHandler{
		logger: logger,
	}
	return
}

func (h *DepositTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	return checkOn(ctx, h.logger, st, btx, h.handle)
}

func (h *DepositTxHandler) NewContext(ctx context.Context) {}

func (h *DepositTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	dtx := btx.Tx.(*tx.DepositTx)
	depositor := btx.Sender()
	amount, err := dtx.Amount.Add(nil)
	if err != nil {
		return
	}
	if amount.IsZero() {
		return nil, ErrEmptyDeposit
	}
	p, err := loadOpen(st, dtx.Proposal)
	if err != nil {
		return
	}
	prev, err := st.LoadVoterDeposit(p.ID, depositor)
	if err != nil {
		return
	}
	total, err := prev.Add(amount)
	if err != nil {
		return
	}
	if err = p.AddDeposit(amount); err != nil {
		return
	}
	err = st.SaveVoterDeposit(p.ID, depositor, total)
	if err != nil {
		return
	}
	err = st.SaveProposal(p)
	if err != nil {
		return
	}
	err = st.IncNonce(depositor)
	if err != nil {
		return
	}

	h.logger.Info("deposit added", "proposal", p.ID, "depositor", depositor, "amount", amount, "current", p.CurrentDeposit)
	res = &abcitypes.ExecTxResult{}
	res.Events = []abcitypes.Event{types.EncodeEventDeposit(&types.EventDeposit{
		Proposal:         p.ID,
		DepositorAddress: depositor,
		Amount:           amount,
		CurrentDeposit:   p.CurrentDeposit,
	})}
	return
}

func (h *DepositTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *DepositTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
