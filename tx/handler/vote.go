package handler

import (
	"context"

	"github.com/calehh/hac-gov/agent"
	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type VoteTxHandler struct {
	logger   cmtlog.Logger
	registry agent.Registry
}

func NewVoteTxHandler(registry agent.Registry, logger cmtlog.Logger) (h *VoteTxHandler) {
	logger = logger.With("module", "voteTx")
	h = &VoteTxHandler{
		logger:   logger,
		registry: registry,
	}
	return
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	return checkOn(ctx, h.logger, st, btx, h.handle)
}

func (h *VoteTxHandler) NewContext(ctx context.Context) {}

func (h *VoteTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	vtx := btx.Tx.(*tx.VoteTx)
	voter := btx.Sender()
	if !vtx.Vote.Valid() {
		return nil, gov.ErrInvalidVote
	}
	p, err := loadOpen(st, vtx.Proposal)
	if err != nil {
		return
	}
	if !p.HasMinDeposit() {
		return nil, ErrInsufficientDeposit
	}
	b, err := st.LoadBallot(p.ID, voter)
	if err != nil {
		return
	}
	if b != nil {
		return nil, gov.ErrAlreadyVoted
	}
	cfg, err := loadConfig(st)
	if err != nil {
		return
	}
	// weight is taken at the start height so it matches TotalWeight
	weight, err := h.registry.BalanceAt(ctx, voter, p.TokenDenom, p.StartHeight, cfg.Target)
	if err != nil {
		return
	}
	if weight == 0 {
		return nil, ErrNoVotingPower
	}

	p, err = gov.NewBallotLedger(st).Cast(p.ID, voter, vtx.Vote, weight)
	if err != nil {
		return
	}
	p.UpdateStatus(st.Block())
	err = st.SaveProposal(p)
	if err != nil {
		return
	}
	err = st.IncNonce(voter)
	if err != nil {
		return
	}

	h.logger.Info("vote cast", "proposal", p.ID, "voter", voter, "vote", vtx.Vote, "weight", weight, "status", p.Status)
	res = &abcitypes.ExecTxResult{}
	res.Events = []abcitypes.Event{types.EncodeEventVote(&types.EventVote{
		Proposal:     p.ID,
		VoterAddress: voter,
		Vote:         vtx.Vote,
		Weight:       weight,
	})}
	if p.Status != gov.StatusOpen {
		res.Events = append(res.Events, statusEvent(p))
	}
	return
}

func (h *VoteTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *VoteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
