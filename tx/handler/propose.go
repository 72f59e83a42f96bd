package handler

import (
	"context"
	"strings"
	"time"

	"github.com/calehh/hac-gov/agent"
	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ProposeTxHandler struct {
	logger   cmtlog.Logger
	registry agent.Registry

	proposers map[string]bool
}

func NewProposeTxHandler(registry agent.Registry, logger cmtlog.Logger) (h *ProposeTxHandler) {
	logger = logger.With("module", "proposeTx")
	h = &ProposeTxHandler{
		logger:    logger,
		registry:  registry,
		proposers: make(map[string]bool),
	}
	return
}

func (h *ProposeTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	return checkOn(ctx, h.logger, st, btx, h.apply)
}

func (h *ProposeTxHandler) NewContext(ctx context.Context) {
	h.proposers = make(map[string]bool)
}

func (h *ProposeTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	sender := btx.Sender()
	if _, ok := h.proposers[sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	res, err = h.apply(ctx, st, btx)
	if err != nil {
		return
	}
	h.proposers[sender] = true
	return
}

func (h *ProposeTxHandler) apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	ptx := btx.Tx.(*tx.ProposeTx)
	sender := btx.Sender()
	if strings.TrimSpace(ptx.Title) == "" {
		return nil, ErrEmptyTitle
	}
	cfg, err := loadConfig(st)
	if err != nil {
		return
	}
	// the app id guard needs no registry round trip
	err = gov.CheckAppIDs(ptx.AppID, ptx.Msgs)
	if err != nil {
		return
	}
	err = gov.ValidateMsgs(ctx, h.registry, ptx.AppID, ptx.Msgs)
	if err != nil {
		return
	}

	app, err := h.registry.App(ctx, ptx.AppID)
	if err != nil {
		return
	}
	if app.GovTimeInSeconds == 0 {
		return nil, ErrZeroVotingPeriod
	}
	denom, err := h.registry.AssetDenom(ctx, app.GovTokenID)
	if err != nil {
		return
	}
	block := st.Block()
	weight, err := h.registry.BalanceAt(ctx, sender, denom, block.Height, cfg.Target)
	if err != nil {
		return
	}
	if weight == 0 {
		return nil, ErrNoVotingPower
	}
	total, err := h.registry.TotalSupply(ctx, ptx.AppID, app.GovTokenID)
	if err != nil {
		return
	}

	id, err := st.NextID()
	if err != nil {
		return
	}
	p := &gov.Proposal{
		ID:           id,
		Title:        ptx.Title,
		Description:  ptx.Description,
		StartHeight:  block.Height,
		Expires:      gov.ExpiresAtTime(block.Time.Add(time.Duration(app.GovTimeInSeconds) * time.Second)),
		Msgs:         ptx.Msgs,
		AppID:        ptx.AppID,
		Status:       gov.StatusOpen,
		Threshold:    cfg.Threshold,
		TotalWeight:  total,
		Votes:        gov.YesVotes(weight),
		Proposer:     sender,
		TokenDenom:   denom,
		MinDeposit:   app.MinGovDeposit,
		DepositDenom: denom,
	}
	deposit, err := ptx.Deposit.Add(nil)
	if err != nil {
		return
	}
	if !deposit.IsZero() {
		if err = p.AddDeposit(deposit); err != nil {
			return
		}
		err = st.SaveVoterDeposit(id, sender, deposit)
		if err != nil {
			return
		}
	}
	p.UpdateStatus(block)

	err = gov.NewBallotLedger(st).Seed(p, sender, weight)
	if err != nil {
		return
	}
	err = st.SaveProposal(p)
	if err != nil {
		return
	}
	err = st.AddAppProposal(p.AppID, id)
	if err != nil {
		return
	}
	err = st.IncNonce(sender)
	if err != nil {
		return
	}

	h.logger.Info("proposal created", "proposal", id, "app", p.AppID, "proposer", sender, "weight", weight, "total", total)
	res = &abcitypes.ExecTxResult{}
	res.Events = []abcitypes.Event{types.EncodeEventProposal(&types.EventProposal{
		Proposal:        id,
		AppID:           p.AppID,
		ProposerAddress: sender,
		Title:           p.Title,
		Status:          p.Status,
		Expires:         p.Expires.String(),
		TotalWeight:     total,
		Weight:          weight,
	})}
	if !deposit.IsZero() {
		res.Events = append(res.Events, types.EncodeEventDeposit(&types.EventDeposit{
			Proposal:         id,
			DepositorAddress: sender,
			Amount:           deposit,
			CurrentDeposit:   p.CurrentDeposit,
		}))
	}
	if p.Status != gov.StatusOpen {
		res.Events = append(res.Events, statusEvent(p))
	}
	return
}

func (h *ProposeTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *ProposeTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
