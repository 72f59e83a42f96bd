package gov

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
)

type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusPassed
	StatusRejected
)

var (
	ErrNotOpen         = errors.New("proposal is not open")
	ErrExpired         = errors.New("proposal voting period has expired")
	ErrNotTerminal     = errors.New("proposal is still open")
	ErrDepositRefunded = errors.New("proposal deposit already refunded")
	ErrInvalidStatus   = errors.New("invalid proposal status")
)

var statusNames = map[Status]string{
	StatusOpen:     "open",
	StatusPassed:   "passed",
	StatusRejected: "rejected",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusRejected
}

func (s Status) MarshalJSON() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, s)
	}
	return json.Marshal(name)
}

func (s *Status) UnmarshalJSON(bz []byte) error {
	var name string
	if err := json.Unmarshal(bz, &name); err != nil {
		return err
	}
	for st, n := range statusNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, name)
}

type Proposal struct {
	ID              uint64
	Title           string
	Description     string
	StartHeight     uint64
	Expires         Expiration
	Msgs            []Msg
	AppID           uint64
	Status          Status
	Threshold       Threshold
	TotalWeight     uint64 // weight snapshot taken at creation
	Votes           Votes
	Deposit         Coins
	Proposer        string
	TokenDenom      string
	DepositRefunded bool
	MinDeposit      uint64
	DepositDenom    string
	CurrentDeposit  uint64
}

// CurrentStatus reports what the status should be at block without
// modifying the proposal.
func (p *Proposal) CurrentStatus(block BlockInfo) Status {
	status := p.Status
	if status == StatusOpen && p.IsPassed(block) {
		status = StatusPassed
	}
	if status == StatusOpen && (p.IsRejected(block) || p.Expires.IsExpired(block)) {
		status = StatusRejected
	}
	return status
}

func (p *Proposal) UpdateStatus(block BlockInfo) {
	p.Status = p.CurrentStatus(block)
}

// IsPassed is true when no sequence of remaining votes can make the
// proposal fail.
func (p *Proposal) IsPassed(block BlockInfo) bool {
	switch t := p.Threshold.(type) {
	case AbsoluteCount:
		return p.Votes.Yes >= t.Weight
	case AbsolutePercentage:
		return p.Votes.Yes >= VotesNeeded(subFloor(p.TotalWeight, p.Votes.Abstain), t.Percentage)
	case ThresholdQuorum:
		// quorum is always required
		if p.Votes.total().LtUint64(VotesNeeded(p.TotalWeight, t.Quorum)) {
			return false
		}
		if p.Expires.IsExpired(block) {
			// only the opinions actually cast count
			return !votesNeeded(p.Votes.opinions(), t.Threshold).GtUint64(p.Votes.Yes)
		}
		// every missing vote may still be cast against
		possible := subFloor(p.TotalWeight, p.Votes.Abstain)
		return p.Votes.Yes >= VotesNeeded(possible, t.Threshold)
	default:
		return false
	}
}

// IsRejected is true when no sequence of remaining votes can make the
// proposal pass. Quorum does not matter here.
func (p *Proposal) IsRejected(block BlockInfo) bool {
	switch t := p.Threshold.(type) {
	case AbsoluteCount:
		return p.Votes.No > subFloor(p.TotalWeight, t.Weight)
	case AbsolutePercentage:
		return p.Votes.No > VotesNeeded(subFloor(p.TotalWeight, p.Votes.Abstain), t.Percentage.Complement())
	case ThresholdQuorum:
		if p.Expires.IsExpired(block) {
			return votesNeeded(p.Votes.opinions(), t.Threshold.Complement()).LtUint64(p.Votes.No)
		}
		// every missing vote may still be cast for
		possible := subFloor(p.TotalWeight, p.Votes.Abstain)
		return p.Votes.No > VotesNeeded(possible, t.Threshold.Complement())
	default:
		return false
	}
}

func (p *Proposal) HasMinDeposit() bool {
	return p.CurrentDeposit >= p.MinDeposit
}

// AddDeposit records coins; only the deposit denom counts towards
// CurrentDeposit. On ErrDepositOverflow the proposal is left unchanged.
func (p *Proposal) AddDeposit(coins Coins) error {
	deposit, err := p.Deposit.Add(coins)
	if err != nil {
		return err
	}
	current, carry := bits.Add64(p.CurrentDeposit, coins.AmountOf(p.DepositDenom), 0)
	if carry != 0 {
		return fmt.Errorf("%w: %s", ErrDepositOverflow, p.DepositDenom)
	}
	p.Deposit = deposit
	p.CurrentDeposit = current
	return nil
}

// RefundDeposit latches DepositRefunded. It is allowed once, after the
// proposal reached a terminal status.
func (p *Proposal) RefundDeposit() error {
	if !p.Status.IsTerminal() {
		return ErrNotTerminal
	}
	if p.DepositRefunded {
		return ErrDepositRefunded
	}
	p.DepositRefunded = true
	return nil
}

func subFloor(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

type proposalSt struct {
	ID              uint64          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	StartHeight     uint64          `json:"start_height"`
	Expires         Expiration      `json:"expires"`
	Msgs            []Msg           `json:"msgs"`
	AppID           uint64          `json:"app_id"`
	Status          Status          `json:"status"`
	Threshold       json.RawMessage `json:"threshold"`
	TotalWeight     uint64          `json:"total_weight"`
	Votes           Votes           `json:"votes"`
	Deposit         Coins           `json:"deposit"`
	Proposer        string          `json:"proposer"`
	TokenDenom      string          `json:"token_denom"`
	DepositRefunded bool            `json:"deposit_refunded"`
	MinDeposit      uint64          `json:"min_deposit"`
	DepositDenom    string          `json:"deposit_denom"`
	CurrentDeposit  uint64          `json:"current_deposit"`
}

func (p *Proposal) MarshalJSON() ([]byte, error) {
	th, err := MarshalThreshold(p.Threshold)
	if err != nil {
		return nil, err
	}
	return json.Marshal(proposalSt{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		StartHeight:     p.StartHeight,
		Expires:         p.Expires,
		Msgs:            p.Msgs,
		AppID:           p.AppID,
		Status:          p.Status,
		Threshold:       th,
		TotalWeight:     p.TotalWeight,
		Votes:           p.Votes,
		Deposit:         p.Deposit,
		Proposer:        p.Proposer,
		TokenDenom:      p.TokenDenom,
		DepositRefunded: p.DepositRefunded,
		MinDeposit:      p.MinDeposit,
		DepositDenom:    p.DepositDenom,
		CurrentDeposit:  p.CurrentDeposit,
	})
}

func (p *Proposal) UnmarshalJSON(bz []byte) (err error) {
	var o proposalSt
	if err = json.Unmarshal(bz, &o); err != nil {
		return
	}
	th, err := UnmarshalThreshold(o.Threshold)
	if err != nil {
		return
	}
	*p = Proposal{
		ID:              o.ID,
		Title:           o.Title,
		Description:     o.Description,
		StartHeight:     o.StartHeight,
		Expires:         o.Expires,
		Msgs:            o.Msgs,
		AppID:           o.AppID,
		Status:          o.Status,
		Threshold:       th,
		TotalWeight:     o.TotalWeight,
		Votes:           o.Votes,
		Deposit:         o.Deposit,
		Proposer:        o.Proposer,
		TokenDenom:      o.TokenDenom,
		DepositRefunded: o.DepositRefunded,
		MinDeposit:      o.MinDeposit,
		DepositDenom:    o.DepositDenom,
		CurrentDeposit:  o.CurrentDeposit,
	}
	return
}
