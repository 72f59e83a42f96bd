package types

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/calehh/hac-gov/gov"
	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventProposalType = "proposal"
	EventVoteType     = "vote"
	EventStatusType   = "proposal_status"
	EventDepositType  = "deposit"
	EventRefundType   = "refund"
)

type EventProposal struct {
	Proposal        uint64     `json:"proposal"`
	AppID           uint64     `json:"appId"`
	ProposerAddress string     `json:"proposerAddress"`
	Title           string     `json:"title"`
	Status          gov.Status `json:"status"`
	Expires         string     `json:"expires"`
	TotalWeight     uint64     `json:"totalWeight"`
	Weight          uint64     `json:"weight"`
}

func EncodeEventProposal(event *EventProposal) abci.Event {
	return abci.Event{
		Type: EventProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "app", Value: fmt.Sprintf("%v", event.AppID), Index: true},
			{Key: "proposerAddress", Value: event.ProposerAddress, Index: true},
			{Key: "title", Value: event.Title, Index: false},
			{Key: "status", Value: event.Status.String(), Index: false},
			{Key: "expires", Value: event.Expires, Index: false},
			{Key: "totalWeight", Value: fmt.Sprintf("%v", event.TotalWeight), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventProposal(originEvent abci.Event) *EventProposal {
	event := &EventProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "app":
			app, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.AppID = app
		case "proposerAddress":
			event.ProposerAddress = v.Value
		case "title":
			event.Title = v.Value
		case "status":
			status, ok := parseStatus(v.Value)
			if !ok {
				return nil
			}
			event.Status = status
		case "expires":
			event.Expires = v.Value
		case "totalWeight":
			total, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.TotalWeight = total
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

type EventVote struct {
	Proposal     uint64   `json:"proposal"`
	VoterAddress string   `json:"voterAddress"`
	Vote         gov.Vote `json:"vote"`
	Weight       uint64   `json:"weight"`
}

func EncodeEventVote(event *EventVote) abci.Event {
	return abci.Event{
		Type: EventVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "voterAddress", Value: event.VoterAddress, Index: true},
			{Key: "vote", Value: event.Vote.String(), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventVote(originEvent abci.Event) *EventVote {
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "voterAddress":
			event.VoterAddress = v.Value
		case "vote":
			vote, err := gov.ParseVote(v.Value)
			if err != nil {
				return nil
			}
			event.Vote = vote
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

// EventStatus is emitted whenever a proposal leaves Open.
type EventStatus struct {
	Proposal uint64     `json:"proposal"`
	Status   gov.Status `json:"status"`
	Yes      uint64     `json:"yes"`
	No       uint64     `json:"no"`
	Abstain  uint64     `json:"abstain"`
	Veto     uint64     `json:"veto"`
}

func EncodeEventStatus(event *EventStatus) abci.Event {
	return abci.Event{
		Type: EventStatusType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "status", Value: event.Status.String(), Index: true},
			{Key: "yes", Value: fmt.Sprintf("%v", event.Yes), Index: false},
			{Key: "no", Value: fmt.Sprintf("%v", event.No), Index: false},
			{Key: "abstain", Value: fmt.Sprintf("%v", event.Abstain), Index: false},
			{Key: "veto", Value: fmt.Sprintf("%v", event.Veto), Index: false},
		},
	}
}

func DecodeEventStatus(originEvent abci.Event) *EventStatus {
	event := &EventStatus{}
	for _, v := range originEvent.Attributes {
		var n uint64
		var err error
		switch v.Key {
		case "proposal", "yes", "no", "abstain", "veto":
			n, err = strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
		}
		switch v.Key {
		case "proposal":
			event.Proposal = n
		case "status":
			status, ok := parseStatus(v.Value)
			if !ok {
				return nil
			}
			event.Status = status
		case "yes":
			event.Yes = n
		case "no":
			event.No = n
		case "abstain":
			event.Abstain = n
		case "veto":
			event.Veto = n
		}
	}
	return event
}

type EventDeposit struct {
	Proposal         uint64    `json:"proposal"`
	DepositorAddress string    `json:"depositorAddress"`
	Amount           gov.Coins `json:"amount"`
	CurrentDeposit   uint64    `json:"currentDeposit"`
}

func EncodeEventDeposit(event *EventDeposit) abci.Event {
	amount, _ := json.Marshal(event.Amount)
	return abci.Event{
		Type: EventDepositType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "depositorAddress", Value: event.DepositorAddress, Index: true},
			{Key: "amount", Value: string(amount), Index: false},
			{Key: "currentDeposit", Value: fmt.Sprintf("%v", event.CurrentDeposit), Index: false},
		},
	}
}

func DecodeEventDeposit(originEvent abci.Event) *EventDeposit {
	event := &EventDeposit{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "depositorAddress":
			event.DepositorAddress = v.Value
		case "amount":
			if err := json.Unmarshal([]byte(v.Value), &event.Amount); err != nil {
				return nil
			}
		case "currentDeposit":
			current, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.CurrentDeposit = current
		}
	}
	return event
}

// EventRefund asks the deposit holder to pay Amount back to the proposer.
type EventRefund struct {
	Proposal        uint64    `json:"proposal"`
	ProposerAddress string    `json:"proposerAddress"`
	Amount          gov.Coins `json:"amount"`
}

func EncodeEventRefund(event *EventRefund) abci.Event {
	amount, _ := json.Marshal(event.Amount)
	return abci.Event{
		Type: EventRefundType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "proposerAddress", Value: event.ProposerAddress, Index: true},
			{Key: "amount", Value: string(amount), Index: false},
		},
	}
}

func DecodeEventRefund(originEvent abci.Event) *EventRefund {
	event := &EventRefund{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "proposerAddress":
			event.ProposerAddress = v.Value
		case "amount":
			if err := json.Unmarshal([]byte(v.Value), &event.Amount); err != nil {
				return nil
			}
		}
	}
	return event
}

func parseStatus(s string) (status gov.Status, ok bool) {
	err := status.UnmarshalJSON([]byte(strconv.Quote(s)))
	return status, err == nil
}
