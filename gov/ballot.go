package gov

import (
	"errors"
	"fmt"
)

var ErrAlreadyVoted = errors.New("already voted on this proposal")

// Ballot is one voter's choice with the weight captured when it was cast.
type Ballot struct {
	Weight uint64 `json:"weight"`
	Vote   Vote   `json:"vote"`
}

// BallotLedger guarantees at most one ballot per (proposal, voter). The tally
// itself has no memory of who voted, so this check is the only protection
// against double counting.
type BallotLedger struct {
	store Store
}

func NewBallotLedger(store Store) *BallotLedger {
	return &BallotLedger{store: store}
}

// Cast records the ballot, adds it to the proposal tally and saves both. The
// status is left for the caller to update.
func (l *BallotLedger) Cast(proposalID uint64, voter string, vote Vote, weight uint64) (p *Proposal, err error) {
	if !vote.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVote, vote)
	}
	b, err := l.store.LoadBallot(proposalID, voter)
	if err != nil {
		return nil, err
	}
	if b != nil {
		return nil, ErrAlreadyVoted
	}
	p, err = l.store.LoadProposal(proposalID)
	if err != nil {
		return nil, err
	}
	if err = l.store.SaveBallot(proposalID, voter, &Ballot{Weight: weight, Vote: vote}); err != nil {
		return nil, err
	}
	p.Votes.AddVote(vote, weight)
	if err = l.addWeight(proposalID, vote, weight); err != nil {
		return nil, err
	}
	if err = l.store.SaveProposal(p); err != nil {
		return nil, err
	}
	return
}

// Seed records the proposer's ballot for a proposal whose tally already
// holds that weight (see YesVotes).
func (l *BallotLedger) Seed(p *Proposal, voter string, weight uint64) error {
	b, err := l.store.LoadBallot(p.ID, voter)
	if err != nil {
		return err
	}
	if b != nil {
		return ErrAlreadyVoted
	}
	if err = l.store.SaveBallot(p.ID, voter, &Ballot{Weight: weight, Vote: VoteYes}); err != nil {
		return err
	}
	return l.addWeight(p.ID, VoteYes, weight)
}

func (l *BallotLedger) addWeight(id uint64, vote Vote, weight uint64) error {
	w, err := l.store.LoadVoteWeight(id)
	if err != nil {
		return err
	}
	if w == nil {
		w = new(VoteWeight)
	}
	w.Add(vote, weight)
	return l.store.SaveVoteWeight(id, w)
}
