package agent

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeChain struct {
	mtx    sync.Mutex
	latest int64
	blocks map[int64][]*abci.ExecTxResult
}

func newFakeChain() *fakeChain {
	return &fakeChain{blocks: make(map[int64][]*abci.ExecTxResult)}
}

func (f *fakeChain) addBlock(txs ...*abci.ExecTxResult) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.latest++
	f.blocks[f.latest] = txs
}

func (f *fakeChain) Status(ctx context.Context) (*ctypes.ResultStatus, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return &ctypes.ResultStatus{SyncInfo: ctypes.SyncInfo{LatestBlockHeight: f.latest}}, nil
}

func (f *fakeChain) BlockResults(ctx context.Context, height *int64) (*ctypes.ResultBlockResults, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return &ctypes.ResultBlockResults{Height: *height, TxsResults: f.blocks[*height]}, nil
}

func okTx(events ...abci.Event) *abci.ExecTxResult {
	return &abci.ExecTxResult{Events: events}
}

func newTestIndexer(t *testing.T, path string, chain *fakeChain) *ChainIndexer {
	t.Helper()
	c, err := newChainIndexer(cmtlog.NewNopLogger(), path, chain, 10*time.Millisecond)
	require.NoError(t, err)
	return c
}

// seedChain produces a proposal that is created with a deposit, passes on a
// second vote and has its deposit refunded.
func seedChain(chain *fakeChain) {
	chain.addBlock(okTx(
		types.EncodeEventProposal(&types.EventProposal{
			Proposal:        1,
			AppID:           7,
			ProposerAddress: "ALICE",
			Title:           "raise debt ceiling",
			Status:          gov.StatusOpen,
			Expires:         "expires at time 1110",
			TotalWeight:     100,
			Weight:          20,
		}),
		types.EncodeEventDeposit(&types.EventDeposit{
			Proposal:         1,
			DepositorAddress: "ALICE",
			Amount:           gov.Coins{gov.NewCoin("ugov", 10)},
			CurrentDeposit:   10,
		}),
	))
	chain.addBlock(
		okTx(
			types.EncodeEventVote(&types.EventVote{Proposal: 1, VoterAddress: "BOB", Vote: gov.VoteYes, Weight: 40}),
			types.EncodeEventStatus(&types.EventStatus{Proposal: 1, Status: gov.StatusPassed, Yes: 60}),
		),
		&abci.ExecTxResult{Code: 1, Events: []abci.Event{
			types.EncodeEventVote(&types.EventVote{Proposal: 1, VoterAddress: "CAROL", Vote: gov.VoteNo, Weight: 5}),
		}},
	)
	chain.addBlock(okTx(
		types.EncodeEventRefund(&types.EventRefund{Proposal: 1, ProposerAddress: "ALICE", Amount: gov.Coins{gov.NewCoin("ugov", 10)}}),
	))
}

func TestIndexerSync(t *testing.T) {
	chain := newFakeChain()
	seedChain(chain)
	path := filepath.Join(t.TempDir(), "indexer.db")
	c := newTestIndexer(t, path, chain)

	require.NoError(t, c.sync(context.Background()))
	assert.Equal(t, int64(4), c.Height)

	p, err := c.getProposalById(1)
	require.NoError(t, err)
	assert.Equal(t, Proposal{
		Id:              1,
		AppId:           7,
		ProposerAddress: "ALICE",
		Title:           "raise debt ceiling",
		Status:          "passed",
		Expires:         "expires at time 1110",
		TotalWeight:     100,
		Yes:             60,
		CurrentDeposit:  10,
		Refunded:        true,
		NewHeight:       1,
		SettleHeight:    2,
	}, p)

	votes, total, err := c.getVotesByProposal(1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, votes, 1)
	assert.Equal(t, "BOB", votes[0].VoterAddress)
	assert.Equal(t, "yes", votes[0].Vote)
	assert.Equal(t, uint64(2), votes[0].Height)

	deposits, err := c.getDepositsByProposal(1)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, gov.Coins{gov.NewCoin("ugov", 10)}.String(), deposits[0].Amount)

	// nothing new
	require.NoError(t, c.sync(context.Background()))
	assert.Equal(t, int64(4), c.Height)
	require.NoError(t, c.Close())

	c = newTestIndexer(t, path, chain)
	defer c.Close()
	assert.Equal(t, int64(4), c.Height)
}

func TestIndexerSkipsUnknownProposal(t *testing.T) {
	chain := newFakeChain()
	chain.addBlock(okTx(
		types.EncodeEventStatus(&types.EventStatus{Proposal: 9, Status: gov.StatusRejected}),
		abci.Event{Type: "transfer"},
	))
	c := newTestIndexer(t, filepath.Join(t.TempDir(), "indexer.db"), chain)
	defer c.Close()

	require.NoError(t, c.sync(context.Background()))
	assert.Equal(t, int64(2), c.Height)
	_, total, err := c.getProposals(ProposalFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestIndexerProposalFilter(t *testing.T) {
	chain := newFakeChain()
	for i, proposer := range []string{"ALICE", "BOB", "ALICE"} {
		chain.addBlock(okTx(types.EncodeEventProposal(&types.EventProposal{
			Proposal:        uint64(i + 1),
			AppID:           uint64(i%2 + 1),
			ProposerAddress: proposer,
			Title:           "t",
			Status:          gov.StatusOpen,
		})))
	}
	c := newTestIndexer(t, filepath.Join(t.TempDir(), "indexer.db"), chain)
	defer c.Close()
	require.NoError(t, c.sync(context.Background()))

	ps, total, err := c.getProposals(ProposalFilter{ProposerAddress: "ALICE"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, ps, 2)
	assert.Equal(t, uint64(3), ps[0].Id)
	assert.Equal(t, uint64(1), ps[1].Id)

	ps, total, err = c.getProposals(ProposalFilter{AppId: 2}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, uint64(2), ps[0].Id)

	ps, total, err = c.getProposals(ProposalFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, ps, 1)
	assert.Equal(t, uint64(1), ps[0].Id)
}

func TestIndexerStartStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	chain := newFakeChain()
	seedChain(chain)
	c := newTestIndexer(t, filepath.Join(t.TempDir(), "indexer.db"), chain)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		p, err := c.getProposalById(1)
		return err == nil && p.Refunded
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("indexer did not stop")
	}
}
