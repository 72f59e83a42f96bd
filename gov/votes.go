package gov

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/holiman/uint256"
)

type Vote uint8

const (
	VoteYes Vote = iota
	VoteNo
	VoteAbstain
	VoteVeto
)

var ErrInvalidVote = errors.New("invalid vote option")

var voteNames = map[Vote]string{
	VoteYes:     "yes",
	VoteNo:      "no",
	VoteAbstain: "abstain",
	VoteVeto:    "veto",
}

func ParseVote(s string) (Vote, error) {
	for v, name := range voteNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidVote, s)
}

func (v Vote) Valid() bool {
	_, ok := voteNames[v]
	return ok
}

func (v Vote) String() string {
	if name, ok := voteNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Vote(%d)", uint8(v))
}

func (v Vote) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVote, v)
	}
	return json.Marshal(v.String())
}

func (v *Vote) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	parsed, err := ParseVote(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Votes holds the weight cast for each option of one proposal.
type Votes struct {
	Yes     uint64 `json:"yes"`
	No      uint64 `json:"no"`
	Abstain uint64 `json:"abstain"`
	Veto    uint64 `json:"veto"`
}

// YesVotes starts a tally with the proposer's own yes weight.
func YesVotes(initWeight uint64) Votes {
	return Votes{Yes: initWeight}
}

// Total saturates at math.MaxUint64. Status resolution uses the exact sum.
func (v *Votes) Total() uint64 {
	sum := v.total()
	if !sum.IsUint64() {
		return math.MaxUint64
	}
	return sum.Uint64()
}

func (v *Votes) total() *uint256.Int {
	sum := uint256.NewInt(v.Yes)
	sum.AddUint64(sum, v.No)
	sum.AddUint64(sum, v.Abstain)
	sum.AddUint64(sum, v.Veto)
	return sum
}

// opinions is the exact weight cast for anything but abstain.
func (v *Votes) opinions() *uint256.Int {
	sum := v.total()
	return sum.SubUint64(sum, v.Abstain)
}

// AddVote does not deduplicate voters; BallotLedger does. A bucket
// saturates at math.MaxUint64 instead of wrapping.
func (v *Votes) AddVote(vote Vote, weight uint64) {
	switch vote {
	case VoteYes:
		v.Yes = addSat(v.Yes, weight)
	case VoteNo:
		v.No = addSat(v.No, weight)
	case VoteAbstain:
		v.Abstain = addSat(v.Abstain, weight)
	case VoteVeto:
		v.Veto = addSat(v.Veto, weight)
	}
}

func addSat(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// VoteWeight is the per-proposal aggregate kept next to the proposal for
// cheap queries.
type VoteWeight struct {
	Yes     uint64 `json:"yes"`
	No      uint64 `json:"no"`
	Abstain uint64 `json:"abstain"`
	Veto    uint64 `json:"veto"`
}

func (w *VoteWeight) Add(vote Vote, weight uint64) {
	switch vote {
	case VoteYes:
		w.Yes = addSat(w.Yes, weight)
	case VoteNo:
		w.No = addSat(w.No, weight)
	case VoteAbstain:
		w.Abstain = addSat(w.Abstain, weight)
	case VoteVeto:
		w.Veto = addSat(w.Veto, weight)
	}
}
