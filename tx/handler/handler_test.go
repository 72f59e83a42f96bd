package handler

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/calehh/hac-gov/agent"
	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t     *testing.T
	st    *state.State
	reg   *agent.MockRegistry
	hdlrs map[tx.GovTxType]TxHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := db.NewState()
	st.SetBlock(10, time.Unix(1000, 0))
	require.NoError(t, st.SaveConfig(&gov.Config{
		Threshold: gov.ThresholdQuorum{Threshold: gov.Percent(50), Quorum: gov.Percent(30)},
		Target:    "registry",
	}))

	reg := agent.NewMockRegistry()
	reg.SetApp(&agent.AppData{ID: 1, MinGovDeposit: 10, GovTimeInSeconds: 100, GovTokenID: 2})
	reg.SetAsset(2, "ugov", 100)
	return &fixture{
		t:     t,
		st:    st,
		reg:   reg,
		hdlrs: Handlers(reg, cmtlog.NewNopLogger()),
	}
}

type sender struct {
	priv ed25519.PrivKey
	addr string
}

func (f *fixture) sender(weight uint64) sender {
	priv := ed25519.GenPrivKey()
	addr := priv.PubKey().Address().String()
	f.reg.SetBalance(addr, "ugov", weight)
	return sender{priv: priv, addr: addr}
}

func (s sender) tx(typ tx.GovTxType, body any) *tx.GovTx {
	return &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    typ,
		PubKey:  s.priv.PubKey().Bytes(),
		Tx:      body,
	}
}

// process applies btx on a copy and keeps it only on success.
func (f *fixture) process(btx *tx.GovTx) (*abcitypes.ExecTxResult, error) {
	tmp := f.st.Clone()
	res, err := f.hdlrs[btx.Type].Process(context.Background(), tmp, btx)
	if err == nil {
		f.st = tmp
	}
	return res, err
}

func (f *fixture) mustProcess(btx *tx.GovTx) *abcitypes.ExecTxResult {
	f.t.Helper()
	res, err := f.process(btx)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) propose(s sender, deposit uint64) uint64 {
	f.t.Helper()
	ptx := &tx.ProposeTx{
		AppID: 1,
		Title: "whitelist asset",
		Msgs:  []gov.Msg{gov.NewMsg(gov.WhitelistAssetLocker{AppMappingID: 1, AssetID: 5})},
	}
	if deposit > 0 {
		ptx.Deposit = gov.Coins{gov.NewCoin("ugov", deposit)}
	}
	f.mustProcess(s.tx(tx.GovTxTypePropose, ptx))
	count, err := f.st.ProposalCount()
	require.NoError(f.t, err)
	return count
}

func (f *fixture) proposal(id uint64) *gov.Proposal {
	f.t.Helper()
	p, err := f.st.LoadProposal(id)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) nonce(s sender) uint64 {
	f.t.Helper()
	acnt, err := f.st.AccountByAddress(s.addr)
	require.NoError(f.t, err)
	return acnt.Nonce
}

func eventTypes(res *abcitypes.ExecTxResult) (tps []string) {
	for _, ev := range res.Events {
		tps = append(tps, ev.Type)
	}
	return
}

func TestProposeCreatesProposal(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)

	res := f.mustProcess(alice.tx(tx.GovTxTypePropose, &tx.ProposeTx{
		AppID:       1,
		Title:       "whitelist asset",
		Description: "lock asset 5",
		Msgs:        []gov.Msg{gov.NewMsg(gov.WhitelistAssetLocker{AppMappingID: 1, AssetID: 5})},
		Deposit:     gov.Coins{gov.NewCoin("ugov", 4), gov.NewCoin("uother", 3)},
	}))
	assert.Equal(t, []string{types.EventProposalType, types.EventDepositType}, eventTypes(res))
	ev := types.DecodeEventProposal(res.Events[0])
	require.NotNil(t, ev)
	assert.Equal(t, uint64(1), ev.Proposal)
	assert.Equal(t, uint64(20), ev.Weight)
	assert.Equal(t, uint64(100), ev.TotalWeight)

	p := f.proposal(1)
	assert.Equal(t, gov.StatusOpen, p.Status)
	assert.Equal(t, uint64(10), p.StartHeight)
	assert.Equal(t, gov.ExpiresAtTime(time.Unix(1100, 0)), p.Expires)
	assert.Equal(t, gov.Votes{Yes: 20}, p.Votes)
	assert.Equal(t, uint64(100), p.TotalWeight)
	assert.Equal(t, alice.addr, p.Proposer)
	assert.Equal(t, "ugov", p.TokenDenom)
	assert.Equal(t, uint64(10), p.MinDeposit)
	assert.Equal(t, uint64(4), p.CurrentDeposit)
	assert.False(t, p.HasMinDeposit())

	b, err := f.st.LoadBallot(1, alice.addr)
	require.NoError(t, err)
	assert.Equal(t, &gov.Ballot{Weight: 20, Vote: gov.VoteYes}, b)
	w, err := f.st.LoadVoteWeight(1)
	require.NoError(t, err)
	assert.Equal(t, &gov.VoteWeight{Yes: 20}, w)
	ids, err := f.st.AppProposals(1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids)
	dep, err := f.st.LoadVoterDeposit(1, alice.addr)
	require.NoError(t, err)
	assert.Equal(t, gov.Coins{gov.NewCoin("ugov", 4), gov.NewCoin("uother", 3)}, dep)
	assert.Equal(t, uint64(1), f.nonce(alice))
	assert.Equal(t, 1, f.reg.Calls())
}

func TestProposeRejections(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)
	nobody := f.sender(0)
	valid := []gov.Msg{gov.NewMsg(gov.WhitelistAssetLocker{AppMappingID: 1, AssetID: 5})}

	_, err := f.process(alice.tx(tx.GovTxTypePropose, &tx.ProposeTx{AppID: 1, Title: "  ", Msgs: valid}))
	assert.ErrorIs(t, err, ErrEmptyTitle)

	mixed := append(valid, gov.NewMsg(gov.SetAuctionMapping{AppMappingID: 2}))
	_, err = f.process(alice.tx(tx.GovTxTypePropose, &tx.ProposeTx{AppID: 1, Title: "t", Msgs: mixed}))
	assert.ErrorIs(t, err, gov.ErrDifferentAppID)
	assert.Equal(t, 0, f.reg.Calls())

	f.reg.Reject(gov.TagWhitelistedAsset, "asset already whitelisted")
	_, err = f.process(alice.tx(tx.GovTxTypePropose, &tx.ProposeTx{AppID: 1, Title: "t", Msgs: valid}))
	var perr *gov.ProposalError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "asset already whitelisted", perr.Err)

	_, err = f.process(alice.tx(tx.GovTxTypePropose, &tx.ProposeTx{AppID: 9, Title: "t"}))
	assert.ErrorIs(t, err, agent.ErrAppNotFound)

	_, err = f.process(nobody.tx(tx.GovTxTypePropose, &tx.ProposeTx{AppID: 1, Title: "t"}))
	assert.ErrorIs(t, err, ErrNoVotingPower)

	count, err := f.st.ProposalCount()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, f.nonce(alice))
}

func TestProposeOncePerBlock(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)
	f.propose(alice, 0)

	_, err := f.process(alice.tx(tx.GovTxTypePropose, &tx.ProposeTx{AppID: 1, Title: "again"}))
	assert.ErrorIs(t, err, state.ErrOneActionInOneBlock)

	f.hdlrs[tx.GovTxTypePropose].NewContext(context.Background())
	assert.Equal(t, uint64(2), f.propose(alice, 0))
}

func TestCheckLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)
	h := f.hdlrs[tx.GovTxTypePropose]

	res, err := h.Check(context.Background(), f.st, alice.tx(tx.GovTxTypePropose, &tx.ProposeTx{AppID: 1, Title: "t"}))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Code)
	count, err := f.st.ProposalCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	res, err = h.Check(context.Background(), f.st, alice.tx(tx.GovTxTypePropose, &tx.ProposeTx{AppID: 1}))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), res.Code)
	assert.Equal(t, ErrEmptyTitle.Error(), res.Log)

	// Check does not count towards the once per block rule
	f.propose(alice, 0)
}

func TestVoteFlow(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)
	bob := f.sender(40)
	carol := f.sender(0)
	id := f.propose(alice, 5)

	_, err := f.process(bob.tx(tx.GovTxTypeVote, &tx.VoteTx{Proposal: id, Vote: gov.VoteYes}))
	assert.ErrorIs(t, err, ErrInsufficientDeposit)

	res := f.mustProcess(carol.tx(tx.GovTxTypeDeposit, &tx.DepositTx{Proposal: id, Amount: gov.Coins{gov.NewCoin("ugov", 5)}}))
	ev := types.DecodeEventDeposit(res.Events[0])
	require.NotNil(t, ev)
	assert.Equal(t, uint64(10), ev.CurrentDeposit)
	assert.True(t, f.proposal(id).HasMinDeposit())

	_, err = f.process(carol.tx(tx.GovTxTypeVote, &tx.VoteTx{Proposal: id, Vote: gov.VoteNo}))
	assert.ErrorIs(t, err, ErrNoVotingPower)

	_, err = f.process(alice.tx(tx.GovTxTypeVote, &tx.VoteTx{Proposal: id, Vote: gov.VoteNo}))
	assert.ErrorIs(t, err, gov.ErrAlreadyVoted)

	res = f.mustProcess(bob.tx(tx.GovTxTypeVote, &tx.VoteTx{Proposal: id, Vote: gov.VoteYes}))
	assert.Equal(t, []string{types.EventVoteType, types.EventStatusType}, eventTypes(res))
	st := types.DecodeEventStatus(res.Events[1])
	require.NotNil(t, st)
	assert.Equal(t, gov.StatusPassed, st.Status)
	assert.Equal(t, uint64(60), st.Yes)

	p := f.proposal(id)
	assert.Equal(t, gov.StatusPassed, p.Status)
	w, err := f.st.LoadVoteWeight(id)
	require.NoError(t, err)
	assert.Equal(t, &gov.VoteWeight{Yes: 60}, w)

	dave := f.sender(10)
	_, err = f.process(dave.tx(tx.GovTxTypeVote, &tx.VoteTx{Proposal: id, Vote: gov.VoteNo}))
	assert.ErrorIs(t, err, gov.ErrNotOpen)
	_, err = f.process(dave.tx(tx.GovTxTypeDeposit, &tx.DepositTx{Proposal: id, Amount: gov.Coins{gov.NewCoin("ugov", 1)}}))
	assert.ErrorIs(t, err, gov.ErrNotOpen)
	assert.Equal(t, uint64(1), f.nonce(bob))
	assert.Equal(t, uint64(1), f.nonce(carol))
}

func TestDepositOverflowFailsTx(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)
	bob := f.sender(60)
	carol := f.sender(0)
	id := f.propose(alice, 10)
	require.True(t, f.proposal(id).HasMinDeposit())

	deposit := func(coins ...gov.Coin) error {
		_, err := f.process(carol.tx(tx.GovTxTypeDeposit, &tx.DepositTx{Proposal: id, Amount: coins}))
		return err
	}
	assert.ErrorIs(t, deposit(gov.NewCoin("ugov", math.MaxUint64-5)), gov.ErrDepositOverflow)
	assert.ErrorIs(t, deposit(gov.NewCoin("ugov", math.MaxUint64), gov.NewCoin("ugov", 1)), gov.ErrDepositOverflow)

	require.NoError(t, deposit(gov.NewCoin("uatom", math.MaxUint64)))
	assert.ErrorIs(t, deposit(gov.NewCoin("uatom", 1)), gov.ErrDepositOverflow)

	p := f.proposal(id)
	assert.Equal(t, uint64(10), p.CurrentDeposit)
	assert.Equal(t, gov.Coins{gov.NewCoin("uatom", math.MaxUint64), gov.NewCoin("ugov", 10)}, p.Deposit)
	dep, err := f.st.LoadVoterDeposit(id, carol.addr)
	require.NoError(t, err)
	assert.Equal(t, gov.Coins{gov.NewCoin("uatom", math.MaxUint64)}, dep)

	// voting stays possible
	res := f.mustProcess(bob.tx(tx.GovTxTypeVote, &tx.VoteTx{Proposal: id, Vote: gov.VoteYes}))
	st := types.DecodeEventStatus(res.Events[1])
	require.NotNil(t, st)
	assert.Equal(t, gov.StatusPassed, st.Status)
}

func TestVoteAfterExpiry(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)
	bob := f.sender(40)
	id := f.propose(alice, 10)

	f.st.SetBlock(11, time.Unix(1100, 0))
	_, err := f.process(bob.tx(tx.GovTxTypeVote, &tx.VoteTx{Proposal: id, Vote: gov.VoteYes}))
	assert.ErrorIs(t, err, gov.ErrExpired)
	_, err = f.process(bob.tx(tx.GovTxTypeDeposit, &tx.DepositTx{Proposal: id, Amount: gov.Coins{gov.NewCoin("ugov", 1)}}))
	assert.ErrorIs(t, err, gov.ErrExpired)
	_, err = f.process(bob.tx(tx.GovTxTypeDeposit, &tx.DepositTx{Proposal: id}))
	assert.ErrorIs(t, err, ErrEmptyDeposit)
}

func TestSettleAndRefund(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)
	bob := f.sender(40)
	id := f.propose(alice, 12)

	_, err := f.process(bob.tx(tx.GovTxTypeSettle, &tx.SettleTx{Proposal: id}))
	assert.ErrorIs(t, err, gov.ErrNotTerminal)
	_, err = f.process(alice.tx(tx.GovTxTypeRefund, &tx.RefundTx{Proposal: id}))
	assert.ErrorIs(t, err, gov.ErrNotTerminal)
	_, err = f.process(bob.tx(tx.GovTxTypeSettle, &tx.SettleTx{Proposal: 42}))
	assert.ErrorIs(t, err, gov.ErrProposalNotFound)

	f.st.SetBlock(20, time.Unix(1200, 0))
	res := f.mustProcess(bob.tx(tx.GovTxTypeSettle, &tx.SettleTx{Proposal: id}))
	ev := types.DecodeEventStatus(res.Events[0])
	require.NotNil(t, ev)
	// 20 of 100 misses the 30% quorum
	assert.Equal(t, gov.StatusRejected, ev.Status)
	assert.Equal(t, gov.StatusRejected, f.proposal(id).Status)

	_, err = f.process(bob.tx(tx.GovTxTypeSettle, &tx.SettleTx{Proposal: id}))
	assert.ErrorIs(t, err, gov.ErrNotOpen)

	_, err = f.process(bob.tx(tx.GovTxTypeRefund, &tx.RefundTx{Proposal: id}))
	assert.ErrorIs(t, err, ErrOnlyProposer)

	res = f.mustProcess(alice.tx(tx.GovTxTypeRefund, &tx.RefundTx{Proposal: id}))
	assert.Equal(t, []string{types.EventRefundType}, eventTypes(res))
	refund := types.DecodeEventRefund(res.Events[0])
	require.NotNil(t, refund)
	assert.Equal(t, gov.Coins{gov.NewCoin("ugov", 12)}, refund.Amount)
	assert.True(t, f.proposal(id).DepositRefunded)

	_, err = f.process(alice.tx(tx.GovTxTypeRefund, &tx.RefundTx{Proposal: id}))
	assert.ErrorIs(t, err, gov.ErrDepositRefunded)
}

func TestRefundResolvesExpiredProposal(t *testing.T) {
	f := newFixture(t)
	alice := f.sender(20)
	id := f.propose(alice, 0)

	f.st.SetBlock(20, time.Unix(1200, 0))
	res := f.mustProcess(alice.tx(tx.GovTxTypeRefund, &tx.RefundTx{Proposal: id}))
	assert.Equal(t, []string{types.EventStatusType, types.EventRefundType}, eventTypes(res))
	p := f.proposal(id)
	assert.Equal(t, gov.StatusRejected, p.Status)
	assert.True(t, p.DepositRefunded)
}
