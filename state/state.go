package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/tx"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	KeyState          = "s"
	KeyConfig         = "config"
	KeyProposalCount  = "proposal_count"
	KeyProposalPrefix = "proposals/"
	KeyProposal       = KeyProposalPrefix + "%020d"
	KeyBallotPrefix   = "votes/%020d/"
	KeyBallot         = KeyBallotPrefix + "%s"
	KeyAppProposals   = "app_proposals/%020d"
	KeyDepositPrefix  = "voter_deposit/%020d/"
	KeyVoterDeposit   = KeyDepositPrefix + "%s"
	KeyVoteWeight     = "vote_weight/%020d"
	KeyNonce          = "nonce/%s"
)

var (
	ErrTxNonceInvalid      = errors.New("nonce invalid")
	ErrTxSigInvalid        = errors.New("signature invalid")
	ErrOneActionInOneBlock = errors.New("one action in one block")
	ErrConfigNotFound      = errors.New("governance config not found")
)

// State is the working set of one block. Writes stay in cache until Update
// flushes them into the tree, so a Clone can be dropped to undo a tx.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *StateHeader
	cache  map[string][]byte
}

var _ gov.Store = (*State)(nil)

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	return &State{
		logger: logger,
		db:     db,
		dbVer:  0,
		header: new(StateHeader),
		cache:  make(map[string][]byte),
	}
}

func (s *State) nextState() *State {
	return &State{
		logger: s.logger,
		db:     s.db,
		dbVer:  s.dbVer,
		header: s.header.Clone(),
		cache:  make(map[string][]byte),
	}
}

func (s *State) Clone() *State {
	n := &State{
		logger: s.logger,
		db:     s.db,
		dbVer:  s.dbVer,
		header: s.header.Clone(),
		cache:  make(map[string][]byte, len(s.cache)),
	}
	for k, v := range s.cache {
		n.cache[k] = v
	}
	return n
}

func (s *State) load() (err error) {
	val, err := s.get(KeyState)
	if err != nil {
		return
	}
	if val != nil {
		err = s.header.unmarshal(val)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = append(s.header.RootHash[:0], rootHash...)
		s.header.Hash = append(s.header.Hash[:0], h[:]...)
	}
	return
}

// Update flushes the header and every pending write into the tree in key
// order and returns the resulting app hash.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	val, err := s.header.marshal()
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	keys := make([]string, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, err = s.db.Set([]byte(k), s.cache[k])
		if err != nil {
			return
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.cache = make(map[string][]byte)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) get(key string) (val []byte, err error) {
	if v, ok := s.cache[key]; ok {
		return v, nil
	}
	val, err = s.db.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			return nil, err
		}
		return nil, nil
	}
	return
}

func (s *State) set(key string, val []byte) {
	if val == nil {
		val = []byte{}
	}
	s.cache[key] = val
}

func (s *State) getJSON(key string, v any) (found bool, err error) {
	val, err := s.get(key)
	if err != nil || val == nil {
		return
	}
	err = json.Unmarshal(val, v)
	found = err == nil
	return
}

func (s *State) setJSON(key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.set(key, val)
	return nil
}

func (s *State) getUint64(key string) (n uint64, err error) {
	val, err := s.get(key)
	if err != nil || val == nil {
		return
	}
	var v wrapperspb.UInt64Value
	err = proto.Unmarshal(val, &v)
	if err != nil {
		return
	}
	n = v.GetValue()
	return
}

func (s *State) setUint64(key string, n uint64) error {
	val, err := proto.Marshal(wrapperspb.UInt64(n))
	if err != nil {
		return err
	}
	s.set(key, val)
	return nil
}

// iterate walks [start, end) in ascending order, merging pending writes
// over the tree.
func (s *State) iterate(start, end []byte, fn func(key string, val []byte) bool) (err error) {
	pending := make([]string, 0)
	for k := range s.cache {
		if k >= string(start) && (end == nil || k < string(end)) {
			pending = append(pending, k)
		}
	}
	sort.Strings(pending)

	it, err := s.db.Iterator(start, end, true)
	if err != nil {
		return
	}
	defer it.Close()

	i := 0
	for it.Valid() || i < len(pending) {
		var key string
		var val []byte
		switch {
		case !it.Valid():
			key, val = pending[i], s.cache[pending[i]]
			i++
		case i < len(pending) && pending[i] <= string(it.Key()):
			if pending[i] == string(it.Key()) {
				it.Next()
			}
			key, val = pending[i], s.cache[pending[i]]
			i++
		default:
			key, val = string(it.Key()), append([]byte(nil), it.Value()...)
			it.Next()
		}
		if fn(key, val) {
			break
		}
	}
	return it.Error()
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// SetBlock stamps the header with the block being applied.
func (s *State) SetBlock(height uint64, t time.Time) {
	s.header.Height = height
	s.header.Time = t.UnixNano()
}

func (s *State) Block() gov.BlockInfo {
	return s.header.Block()
}

func (s *State) AccountByAddress(addr string) (acnt *Account, err error) {
	nonce, err := s.getUint64(fmt.Sprintf(KeyNonce, addr))
	if err != nil {
		return
	}
	acnt = &Account{Nonce: nonce, addr: addr}
	return
}

func (s *State) Account(pubkey []byte) (acnt *Account, err error) {
	pk := ed25519.PubKey(pubkey)
	acnt, err = s.AccountByAddress(pk.Address().String())
	if err != nil {
		return
	}
	acnt.SetPubKey(pk)
	return
}

func (s *State) IncNonce(addr string) error {
	acnt, err := s.AccountByAddress(addr)
	if err != nil {
		return err
	}
	return s.setUint64(fmt.Sprintf(KeyNonce, addr), acnt.Nonce+1)
}

func (s *State) Verify(btx *tx.GovTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.Account(btx.PubKey)
	if err != nil {
		return succ, err
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

func (s *State) NextID() (id uint64, err error) {
	id, err = s.getUint64(KeyProposalCount)
	if err != nil {
		return
	}
	id++
	err = s.setUint64(KeyProposalCount, id)
	return
}

func (s *State) ProposalCount() (uint64, error) {
	return s.getUint64(KeyProposalCount)
}

func (s *State) LoadConfig() (cfg *gov.Config, err error) {
	cfg = new(gov.Config)
	found, err := s.getJSON(KeyConfig, cfg)
	if err != nil || !found {
		return nil, err
	}
	return
}

func (s *State) SaveConfig(cfg *gov.Config) error {
	return s.setJSON(KeyConfig, cfg)
}

func (s *State) LoadProposal(id uint64) (p *gov.Proposal, err error) {
	p = new(gov.Proposal)
	found, err := s.getJSON(fmt.Sprintf(KeyProposal, id), p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, gov.ErrProposalNotFound
	}
	return
}

func (s *State) SaveProposal(p *gov.Proposal) error {
	return s.setJSON(fmt.Sprintf(KeyProposal, p.ID), p)
}

func (s *State) IterateProposals(startAfter uint64, fn func(p *gov.Proposal) bool) error {
	if startAfter == ^uint64(0) {
		return nil
	}
	start := []byte(fmt.Sprintf(KeyProposal, startAfter+1))
	end := PrefixEndBytes([]byte(KeyProposalPrefix))
	var err error
	iterErr := s.iterate(start, end, func(_ string, val []byte) bool {
		p := new(gov.Proposal)
		if err = json.Unmarshal(val, p); err != nil {
			return true
		}
		return fn(p)
	})
	if err != nil {
		return err
	}
	return iterErr
}

func (s *State) LoadBallot(id uint64, voter string) (b *gov.Ballot, err error) {
	b = new(gov.Ballot)
	found, err := s.getJSON(fmt.Sprintf(KeyBallot, id, voter), b)
	if err != nil || !found {
		return nil, err
	}
	return
}

func (s *State) SaveBallot(id uint64, voter string, b *gov.Ballot) error {
	return s.setJSON(fmt.Sprintf(KeyBallot, id, voter), b)
}

func (s *State) IterateBallots(id uint64, fn func(voter string, b *gov.Ballot) bool) error {
	prefix := fmt.Sprintf(KeyBallotPrefix, id)
	var err error
	iterErr := s.iterate([]byte(prefix), PrefixEndBytes([]byte(prefix)), func(key string, val []byte) bool {
		b := new(gov.Ballot)
		if err = json.Unmarshal(val, b); err != nil {
			return true
		}
		return fn(strings.TrimPrefix(key, prefix), b)
	})
	if err != nil {
		return err
	}
	return iterErr
}

func (s *State) AppProposals(appID uint64) (ids []uint64, err error) {
	val, err := s.get(fmt.Sprintf(KeyAppProposals, appID))
	if err != nil || len(val) == 0 {
		return
	}
	err = rlp.DecodeBytes(val, &ids)
	return
}

func (s *State) AddAppProposal(appID, id uint64) error {
	ids, err := s.AppProposals(appID)
	if err != nil {
		return err
	}
	val, err := rlp.EncodeToBytes(append(ids, id))
	if err != nil {
		return err
	}
	s.set(fmt.Sprintf(KeyAppProposals, appID), val)
	return nil
}

func (s *State) LoadVoterDeposit(id uint64, voter string) (coins gov.Coins, err error) {
	_, err = s.getJSON(fmt.Sprintf(KeyVoterDeposit, id, voter), &coins)
	return
}

func (s *State) SaveVoterDeposit(id uint64, voter string, coins gov.Coins) error {
	return s.setJSON(fmt.Sprintf(KeyVoterDeposit, id, voter), coins)
}

func (s *State) IterateVoterDeposits(id uint64, fn func(voter string, coins gov.Coins) bool) error {
	prefix := fmt.Sprintf(KeyDepositPrefix, id)
	var err error
	iterErr := s.iterate([]byte(prefix), PrefixEndBytes([]byte(prefix)), func(key string, val []byte) bool {
		var coins gov.Coins
		if err = json.Unmarshal(val, &coins); err != nil {
			return true
		}
		return fn(strings.TrimPrefix(key, prefix), coins)
	})
	if err != nil {
		return err
	}
	return iterErr
}

func (s *State) LoadVoteWeight(id uint64) (w *gov.VoteWeight, err error) {
	w = new(gov.VoteWeight)
	found, err := s.getJSON(fmt.Sprintf(KeyVoteWeight, id), w)
	if err != nil || !found {
		return nil, err
	}
	return
}

func (s *State) SaveVoteWeight(id uint64, w *gov.VoteWeight) error {
	return s.setJSON(fmt.Sprintf(KeyVoteWeight, id), w)
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
