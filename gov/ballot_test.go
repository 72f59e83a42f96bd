package gov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWithProposal(t *testing.T, p *Proposal) *MemStore {
	t.Helper()
	s := NewMemStore()
	id, err := s.NextID()
	require.NoError(t, err)
	p.ID = id
	require.NoError(t, s.SaveProposal(p))
	return s
}

func TestCastRejectsSecondBallot(t *testing.T) {
	s := storeWithProposal(t, openProposal(AbsolutePercentage{Percentage: Percent(60)}, 100, Votes{}))
	ledger := NewBallotLedger(s)

	p, err := ledger.Cast(1, "alice", VoteYes, 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), p.Votes.Yes)

	_, err = ledger.Cast(1, "alice", VoteNo, 30)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	stored, err := s.LoadProposal(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), stored.Votes.Total())
	assert.Equal(t, uint64(0), stored.Votes.No)

	b, err := s.LoadBallot(1, "alice")
	require.NoError(t, err)
	assert.Equal(t, &Ballot{Weight: 30, Vote: VoteYes}, b)
}

func TestCastKeepsVoteWeight(t *testing.T) {
	s := storeWithProposal(t, openProposal(AbsolutePercentage{Percentage: Percent(60)}, 100, Votes{}))
	ledger := NewBallotLedger(s)

	_, err := ledger.Cast(1, "alice", VoteYes, 30)
	require.NoError(t, err)
	_, err = ledger.Cast(1, "bob", VoteAbstain, 10)
	require.NoError(t, err)
	p, err := ledger.Cast(1, "carol", VoteVeto, 5)
	require.NoError(t, err)

	w, err := s.LoadVoteWeight(1)
	require.NoError(t, err)
	assert.Equal(t, &VoteWeight{Yes: 30, Abstain: 10, Veto: 5}, w)
	assert.Equal(t, Votes{Yes: 30, Abstain: 10, Veto: 5}, p.Votes)

	var voters []string
	require.NoError(t, s.IterateBallots(1, func(voter string, _ *Ballot) bool {
		voters = append(voters, voter)
		return false
	}))
	assert.Equal(t, []string{"alice", "bob", "carol"}, voters)
}

func TestCastErrors(t *testing.T) {
	s := storeWithProposal(t, openProposal(AbsoluteCount{Weight: 1}, 10, Votes{}))
	ledger := NewBallotLedger(s)

	_, err := ledger.Cast(1, "alice", Vote(9), 1)
	assert.ErrorIs(t, err, ErrInvalidVote)
	_, err = ledger.Cast(42, "alice", VoteYes, 1)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestSeedDoesNotRecount(t *testing.T) {
	p := openProposal(AbsolutePercentage{Percentage: Percent(60)}, 100, YesVotes(25))
	p.Proposer = "alice"
	s := storeWithProposal(t, p)
	ledger := NewBallotLedger(s)

	require.NoError(t, ledger.Seed(p, "alice", 25))

	stored, err := s.LoadProposal(p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), stored.Votes.Yes)

	w, err := s.LoadVoteWeight(p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), w.Yes)

	_, err = ledger.Cast(p.ID, "alice", VoteYes, 25)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.ErrorIs(t, ledger.Seed(p, "alice", 25), ErrAlreadyVoted)
}
