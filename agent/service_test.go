package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	gin.SetMode(gin.TestMode)
	chain := newFakeChain()
	seedChain(chain)
	c := newTestIndexer(t, filepath.Join(t.TempDir(), "indexer.db"), chain)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.sync(context.Background()))
	return NewService("127.0.0.1:0", c, cmtlog.NewNopLogger())
}

func post(t *testing.T, s *Service, path string, body any, v any) int {
	t.Helper()
	dat, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(dat))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if w.Code == http.StatusOK && v != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
	}
	return w.Code
}

func TestServiceGetProposals(t *testing.T) {
	s := newTestService(t)

	var res GetProposalResponse
	require.Equal(t, http.StatusOK, post(t, s, "/getProposals", GetProposalsReq{ProposalId: 1}, &res))
	require.Len(t, res.Proposals, 1)
	info := res.Proposals[0]
	assert.Equal(t, "passed", info.Proposal.Status)
	assert.Equal(t, uint64(1), info.VoteCnt)
	require.Len(t, info.Deposits, 1)
	assert.Equal(t, "ALICE", info.Deposits[0].DepositorAddress)

	res = GetProposalResponse{}
	require.Equal(t, http.StatusOK, post(t, s, "/getProposals", GetProposalsReq{Status: "open"}, &res))
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Proposals)

	res = GetProposalResponse{}
	require.Equal(t, http.StatusOK, post(t, s, "/getProposals", GetProposalsReq{AppId: 7}, &res))
	assert.Equal(t, uint64(1), res.Total)

	assert.Equal(t, http.StatusNotFound, post(t, s, "/getProposals", GetProposalsReq{ProposalId: 5}, nil))
}

func TestServiceGetVotesAndDeposits(t *testing.T) {
	s := newTestService(t)

	var votes GetVotesResponse
	require.Equal(t, http.StatusOK, post(t, s, "/getVotes", GetVotesReq{ProposalId: 1}, &votes))
	assert.Equal(t, uint64(1), votes.Total)
	require.Len(t, votes.Votes, 1)
	assert.Equal(t, uint64(40), votes.Votes[0].Weight)

	var deposits GetDepositsResponse
	require.Equal(t, http.StatusOK, post(t, s, "/getDeposits", GetDepositsReq{ProposalId: 1}, &deposits))
	require.Len(t, deposits.Deposits, 1)

	assert.Equal(t, http.StatusBadRequest, post(t, s, "/getVotes", GetVotesReq{}, nil))
	assert.Equal(t, http.StatusBadRequest, post(t, s, "/getDeposits", GetDepositsReq{}, nil))
}

func TestServiceBadRequest(t *testing.T) {
	s := newTestService(t)
	req := httptest.NewRequest(http.MethodPost, "/getProposals", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
