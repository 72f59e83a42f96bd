package gov

import (
	"errors"
	"sort"
)

var ErrProposalNotFound = errors.New("proposal not found")

// Store is the persistence surface the engine runs against. Lookups of
// ballots, deposits and vote weights return nil without error when absent.
type Store interface {
	// NextID returns a fresh id, strictly greater than every id handed out
	// before.
	NextID() (uint64, error)

	LoadConfig() (*Config, error)
	SaveConfig(cfg *Config) error

	LoadProposal(id uint64) (*Proposal, error)
	SaveProposal(p *Proposal) error
	// IterateProposals visits proposals with id > startAfter in id order
	// until fn returns true.
	IterateProposals(startAfter uint64, fn func(p *Proposal) (stop bool)) error

	LoadBallot(id uint64, voter string) (*Ballot, error)
	SaveBallot(id uint64, voter string, b *Ballot) error
	IterateBallots(id uint64, fn func(voter string, b *Ballot) (stop bool)) error

	// AppProposals lists proposal ids created under appID, oldest first.
	AppProposals(appID uint64) ([]uint64, error)
	AddAppProposal(appID, id uint64) error

	LoadVoterDeposit(id uint64, voter string) (Coins, error)
	SaveVoterDeposit(id uint64, voter string, coins Coins) error
	IterateVoterDeposits(id uint64, fn func(voter string, coins Coins) (stop bool)) error

	LoadVoteWeight(id uint64) (*VoteWeight, error)
	SaveVoteWeight(id uint64, w *VoteWeight) error
}

type ballotKey struct {
	id    uint64
	voter string
}

// MemStore keeps everything in maps. Values are copied in and out so callers
// cannot alias stored state.
type MemStore struct {
	config       *Config
	count        uint64
	proposals    map[uint64]Proposal
	ballots      map[ballotKey]Ballot
	appProposals map[uint64][]uint64
	deposits     map[ballotKey]Coins
	weights      map[uint64]VoteWeight
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		proposals:    make(map[uint64]Proposal),
		ballots:      make(map[ballotKey]Ballot),
		appProposals: make(map[uint64][]uint64),
		deposits:     make(map[ballotKey]Coins),
		weights:      make(map[uint64]VoteWeight),
	}
}

func (s *MemStore) NextID() (uint64, error) {
	s.count++
	return s.count, nil
}

func (s *MemStore) LoadConfig() (*Config, error) {
	if s.config == nil {
		return nil, nil
	}
	c := *s.config
	return &c, nil
}

func (s *MemStore) SaveConfig(cfg *Config) error {
	c := *cfg
	s.config = &c
	return nil
}

func (s *MemStore) LoadProposal(id uint64) (*Proposal, error) {
	p, ok := s.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	return copyProposal(&p), nil
}

func (s *MemStore) SaveProposal(p *Proposal) error {
	s.proposals[p.ID] = *copyProposal(p)
	return nil
}

func (s *MemStore) IterateProposals(startAfter uint64, fn func(p *Proposal) bool) error {
	ids := make([]uint64, 0, len(s.proposals))
	for id := range s.proposals {
		if id > startAfter {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		p := s.proposals[id]
		if fn(copyProposal(&p)) {
			break
		}
	}
	return nil
}

func (s *MemStore) LoadBallot(id uint64, voter string) (*Ballot, error) {
	b, ok := s.ballots[ballotKey{id, voter}]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *MemStore) SaveBallot(id uint64, voter string, b *Ballot) error {
	s.ballots[ballotKey{id, voter}] = *b
	return nil
}

func (s *MemStore) IterateBallots(id uint64, fn func(voter string, b *Ballot) bool) error {
	for _, k := range sortedVoters(s.ballots, id) {
		b := s.ballots[k]
		if fn(k.voter, &b) {
			break
		}
	}
	return nil
}

func (s *MemStore) AppProposals(appID uint64) ([]uint64, error) {
	ids := s.appProposals[appID]
	return append([]uint64(nil), ids...), nil
}

func (s *MemStore) AddAppProposal(appID, id uint64) error {
	s.appProposals[appID] = append(s.appProposals[appID], id)
	return nil
}

func (s *MemStore) LoadVoterDeposit(id uint64, voter string) (Coins, error) {
	coins, ok := s.deposits[ballotKey{id, voter}]
	if !ok {
		return nil, nil
	}
	return append(Coins(nil), coins...), nil
}

func (s *MemStore) SaveVoterDeposit(id uint64, voter string, coins Coins) error {
	s.deposits[ballotKey{id, voter}] = append(Coins(nil), coins...)
	return nil
}

func (s *MemStore) IterateVoterDeposits(id uint64, fn func(voter string, coins Coins) bool) error {
	for _, k := range sortedVoters(s.deposits, id) {
		if fn(k.voter, append(Coins(nil), s.deposits[k]...)) {
			break
		}
	}
	return nil
}

func (s *MemStore) LoadVoteWeight(id uint64) (*VoteWeight, error) {
	w, ok := s.weights[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *MemStore) SaveVoteWeight(id uint64, w *VoteWeight) error {
	s.weights[id] = *w
	return nil
}

func sortedVoters[V any](m map[ballotKey]V, id uint64) []ballotKey {
	keys := make([]ballotKey, 0)
	for k := range m {
		if k.id == id {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].voter < keys[j].voter })
	return keys
}

func copyProposal(p *Proposal) *Proposal {
	n := *p
	n.Msgs = append([]Msg(nil), p.Msgs...)
	n.Deposit = append(Coins(nil), p.Deposit...)
	return &n
}
