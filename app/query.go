package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/state"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const (
	DefaultQueryLimit = 10
	MaxQueryLimit     = 30
)

var ErrBadQuery = errors.New("malformed query data")

func (app *GovApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// queryFunc reads from the committed state and returns the value to encode.
type queryFunc func(st *state.State, data []byte) (v any, err error)

// answer runs fn under the committed state lock and encodes its result as
// JSON. Failures come back as Code 1 with the error in Log.
func answer(db *state.StateDB, logger cmtlog.Logger, req *abcitypes.RequestQuery, fn queryFunc) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var v any
	height, err := db.View(func(st *state.State) (err error) {
		v, err = fn(st, req.Data)
		return
	})
	if err == nil {
		res.Value, err = json.Marshal(v)
	}
	if err != nil {
		logger.Debug("query fail", "path", req.Path, "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	res.Height = int64(height)
	return
}

func decode(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrBadQuery, err)
	}
	return nil
}

func clampLimit(limit uint32) int {
	if limit == 0 {
		return DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return int(limit)
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query takes either the 20 byte address or its hex string.
func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	return answer(q.db, q.logger, req, func(st *state.State, data []byte) (any, error) {
		addr := strings.ToUpper(string(data))
		if len(data) == 20 {
			addr = cmtbytes.HexBytes(data).String()
		}
		if addr == "" {
			return nil, ErrBadQuery
		}
		return st.AccountByAddress(addr)
	})
}

type ProposalQuery struct {
	ID         uint64 `json:"id,omitempty"`
	StartAfter uint64 `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type ProposalListResponse struct {
	Proposals []*gov.Proposal `json:"proposals"`
}

type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) *ProposalQuerier {
	return &ProposalQuerier{db: db, logger: logger}
}

// Query returns one proposal when an id is given, otherwise a page of
// proposals in id order. Statuses are resolved against the last block.
func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	return answer(q.db, q.logger, req, func(st *state.State, data []byte) (any, error) {
		var pq ProposalQuery
		if err := decode(data, &pq); err != nil {
			return nil, err
		}
		block := st.Block()
		if pq.ID != 0 {
			p, err := st.LoadProposal(pq.ID)
			if err != nil {
				return nil, err
			}
			p.Status = p.CurrentStatus(block)
			return p, nil
		}
		limit := clampLimit(pq.Limit)
		list := ProposalListResponse{Proposals: make([]*gov.Proposal, 0, limit)}
		err := st.IterateProposals(pq.StartAfter, func(p *gov.Proposal) bool {
			p.Status = p.CurrentStatus(block)
			list.Proposals = append(list.Proposals, p)
			return len(list.Proposals) >= limit
		})
		return list, err
	})
}

type BallotQuery struct {
	Proposal   uint64 `json:"proposal"`
	Voter      string `json:"voter,omitempty"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type VoterBallot struct {
	Voter  string   `json:"voter"`
	Vote   gov.Vote `json:"vote"`
	Weight uint64   `json:"weight"`
}

type BallotListResponse struct {
	Votes []VoterBallot `json:"votes"`
}

type BallotQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewBallotQuerier(db *state.StateDB, logger cmtlog.Logger) *BallotQuerier {
	return &BallotQuerier{db: db, logger: logger}
}

// Query returns the ballot of one voter, or a page of ballots ordered by
// voter when no voter is given. A missing ballot encodes as null.
func (q *BallotQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	return answer(q.db, q.logger, req, func(st *state.State, data []byte) (any, error) {
		var bq BallotQuery
		if err := decode(data, &bq); err != nil {
			return nil, err
		}
		if bq.Voter != "" {
			b, err := st.LoadBallot(bq.Proposal, bq.Voter)
			if err != nil || b == nil {
				return nil, err
			}
			return &VoterBallot{Voter: bq.Voter, Vote: b.Vote, Weight: b.Weight}, nil
		}
		limit := clampLimit(bq.Limit)
		list := BallotListResponse{Votes: make([]VoterBallot, 0, limit)}
		err := st.IterateBallots(bq.Proposal, func(voter string, b *gov.Ballot) bool {
			if voter <= bq.StartAfter {
				return false
			}
			list.Votes = append(list.Votes, VoterBallot{Voter: voter, Vote: b.Vote, Weight: b.Weight})
			return len(list.Votes) >= limit
		})
		return list, err
	})
}

type AppProposalsQuery struct {
	AppID uint64 `json:"app_id"`
}

type AppProposalsResponse struct {
	Proposals []uint64 `json:"proposals"`
}

type AppProposalsQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAppProposalsQuerier(db *state.StateDB, logger cmtlog.Logger) *AppProposalsQuerier {
	return &AppProposalsQuerier{db: db, logger: logger}
}

func (q *AppProposalsQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	return answer(q.db, q.logger, req, func(st *state.State, data []byte) (any, error) {
		var aq AppProposalsQuery
		if err := decode(data, &aq); err != nil {
			return nil, err
		}
		ids, err := st.AppProposals(aq.AppID)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []uint64{}
		}
		return AppProposalsResponse{Proposals: ids}, nil
	})
}

type ConfigQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewConfigQuerier(db *state.StateDB, logger cmtlog.Logger) *ConfigQuerier {
	return &ConfigQuerier{db: db, logger: logger}
}

func (q *ConfigQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	return answer(q.db, q.logger, req, func(st *state.State, _ []byte) (any, error) {
		cfg, err := st.LoadConfig()
		if err != nil {
			return nil, err
		}
		if cfg == nil {
			return nil, state.ErrConfigNotFound
		}
		return cfg, nil
	})
}

type VoteWeightQuery struct {
	Proposal uint64 `json:"proposal"`
}

type VoteWeightQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewVoteWeightQuerier(db *state.StateDB, logger cmtlog.Logger) *VoteWeightQuerier {
	return &VoteWeightQuerier{db: db, logger: logger}
}

func (q *VoteWeightQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	return answer(q.db, q.logger, req, func(st *state.State, data []byte) (any, error) {
		var wq VoteWeightQuery
		if err := decode(data, &wq); err != nil {
			return nil, err
		}
		w, err := st.LoadVoteWeight(wq.Proposal)
		if err != nil {
			return nil, err
		}
		if w == nil {
			w = new(gov.VoteWeight)
		}
		return w, nil
	})
}

type DepositQuery struct {
	Proposal uint64 `json:"proposal"`
	Voter    string `json:"voter,omitempty"`
}

type VoterDeposit struct {
	Voter  string    `json:"voter"`
	Amount gov.Coins `json:"amount"`
}

type DepositListResponse struct {
	Deposits []VoterDeposit `json:"deposits"`
}

type DepositQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewDepositQuerier(db *state.StateDB, logger cmtlog.Logger) *DepositQuerier {
	return &DepositQuerier{db: db, logger: logger}
}

func (q *DepositQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	return answer(q.db, q.logger, req, func(st *state.State, data []byte) (any, error) {
		var dq DepositQuery
		if err := decode(data, &dq); err != nil {
			return nil, err
		}
		if dq.Voter != "" {
			coins, err := st.LoadVoterDeposit(dq.Proposal, dq.Voter)
			if err != nil {
				return nil, err
			}
			return VoterDeposit{Voter: dq.Voter, Amount: coins}, nil
		}
		list := DepositListResponse{Deposits: make([]VoterDeposit, 0)}
		err := st.IterateVoterDeposits(dq.Proposal, func(voter string, coins gov.Coins) bool {
			list.Deposits = append(list.Deposits, VoterDeposit{Voter: voter, Amount: coins})
			return false
		})
		return list, err
	})
}
