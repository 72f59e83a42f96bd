package handler

import (
	"context"
	"errors"

	"github.com/calehh/hac-gov/agent"
	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

var (
	ErrEmptyTitle          = errors.New("proposal title is empty")
	ErrNoVotingPower       = errors.New("no voting power at proposal start height")
	ErrZeroVotingPeriod    = errors.New("app has no governance voting period")
	ErrInsufficientDeposit = errors.New("proposal has not reached its min deposit")
	ErrEmptyDeposit        = errors.New("deposit amount is empty")
	ErrOnlyProposer        = errors.New("only the proposer can claim the deposit refund")
)

// TxHandler applies one governance tx type. Check must not change st; the
// per-block bookkeeping is reset by NewContext.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error)
	NewContext(ctx context.Context)
	Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
}

type applyFunc func(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)

// checkOn runs apply against a throwaway copy of st.
func checkOn(ctx context.Context, logger cmtlog.Logger, st *state.State, btx *tx.GovTx, apply applyFunc) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	_, err1 := apply(ctx, st.Clone(), btx)
	if err1 != nil {
		logger.Info("CheckTx fail", "type", btx.Type, "sender", btx.Sender(), "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func loadConfig(st *state.State) (cfg *gov.Config, err error) {
	cfg, err = st.LoadConfig()
	if err != nil {
		return
	}
	if cfg == nil {
		err = state.ErrConfigNotFound
	}
	return
}

// loadOpen loads a proposal that can still take votes or deposits at the
// current block.
func loadOpen(st *state.State, id uint64) (p *gov.Proposal, err error) {
	p, err = st.LoadProposal(id)
	if err != nil {
		return
	}
	if p.Status != gov.StatusOpen {
		return nil, gov.ErrNotOpen
	}
	if p.Expires.IsExpired(st.Block()) {
		return nil, gov.ErrExpired
	}
	return
}

func statusEvent(p *gov.Proposal) abcitypes.Event {
	return types.EncodeEventStatus(&types.EventStatus{
		Proposal: p.ID,
		Status:   p.Status,
		Yes:      p.Votes.Yes,
		No:       p.Votes.No,
		Abstain:  p.Votes.Abstain,
		Veto:     p.Votes.Veto,
	})
}

// Handlers builds the handler set for every tx type.
func Handlers(registry agent.Registry, logger cmtlog.Logger) map[tx.GovTxType]TxHandler {
	return map[tx.GovTxType]TxHandler{
		tx.GovTxTypePropose: NewProposeTxHandler(registry, logger),
		tx.GovTxTypeVote:    NewVoteTxHandler(registry, logger),
		tx.GovTxTypeDeposit: NewDepositTxHandler(logger),
		tx.GovTxTypeSettle:  NewSettleTxHandler(logger),
		tx.GovTxTypeRefund:  NewRefundTxHandler(logger),
	}
}
