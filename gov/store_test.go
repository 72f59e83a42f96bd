package gov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreProposals(t *testing.T) {
	s := NewMemStore()

	var last uint64
	for i := 0; i < 5; i++ {
		id, err := s.NextID()
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
		require.NoError(t, s.SaveProposal(&Proposal{ID: id, Status: StatusOpen, Threshold: AbsoluteCount{Weight: 1}}))
	}

	_, err := s.LoadProposal(99)
	require.ErrorIs(t, err, ErrProposalNotFound)

	var ids []uint64
	require.NoError(t, s.IterateProposals(2, func(p *Proposal) bool {
		ids = append(ids, p.ID)
		return len(ids) == 2
	}))
	assert.Equal(t, []uint64{3, 4}, ids)

	p, err := s.LoadProposal(1)
	require.NoError(t, err)
	p.Votes.Yes = 100
	again, err := s.LoadProposal(1)
	require.NoError(t, err)
	assert.Zero(t, again.Votes.Yes)
}

func TestMemStoreMissingValues(t *testing.T) {
	s := NewMemStore()

	cfg, err := s.LoadConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	b, err := s.LoadBallot(1, "alice")
	require.NoError(t, err)
	assert.Nil(t, b)

	coins, err := s.LoadVoterDeposit(1, "alice")
	require.NoError(t, err)
	assert.Nil(t, coins)

	w, err := s.LoadVoteWeight(1)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestMemStoreIndexes(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.AddAppProposal(1, 3))
	require.NoError(t, s.AddAppProposal(1, 7))
	require.NoError(t, s.AddAppProposal(2, 5))

	ids, err := s.AppProposals(1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 7}, ids)

	ids, err = s.AppProposals(9)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.SaveVoterDeposit(3, "bob", Coins{NewCoin("ucmdx", 10)}))
	require.NoError(t, s.SaveVoterDeposit(3, "alice", Coins{NewCoin("ucmdx", 4)}))
	require.NoError(t, s.SaveVoterDeposit(4, "carol", Coins{NewCoin("ucmdx", 1)}))

	var got []string
	require.NoError(t, s.IterateVoterDeposits(3, func(voter string, coins Coins) bool {
		got = append(got, voter+":"+coins.String())
		return false
	}))
	assert.Equal(t, []string{"alice:4ucmdx", "bob:10ucmdx"}, got)
}

func TestCoinsAdd(t *testing.T) {
	sum, err := Coins{NewCoin("ucmdx", 5)}.Add(Coins{NewCoin("uatom", 2), NewCoin("ucmdx", 1), NewCoin("uosmo", 0)})
	require.NoError(t, err)
	assert.Equal(t, Coins{NewCoin("uatom", 2), NewCoin("ucmdx", 6)}, sum)
	assert.Equal(t, uint64(6), sum.AmountOf("ucmdx"))
	assert.Equal(t, "2uatom,6ucmdx", sum.String())
	assert.True(t, Coins{NewCoin("ucmdx", 0)}.IsZero())

	full := Coins{NewCoin("ucmdx", math.MaxUint64)}
	_, err = full.Add(Coins{NewCoin("ucmdx", 1)})
	assert.ErrorIs(t, err, ErrDepositOverflow)
	_, err = Coins{}.Add(Coins{NewCoin("uatom", math.MaxUint64), NewCoin("uatom", 1)})
	assert.ErrorIs(t, err, ErrDepositOverflow)
	sum, err = full.Add(Coins{NewCoin("uatom", 1)})
	require.NoError(t, err)
	assert.Equal(t, Coins{NewCoin("uatom", 1), NewCoin("ucmdx", math.MaxUint64)}, sum)
	assert.Equal(t, Coins{NewCoin("ucmdx", math.MaxUint64)}, full)
}

func TestParseCoins(t *testing.T) {
	cs, err := ParseCoins("10ugov, 3uatom,5ugov")
	require.NoError(t, err)
	assert.Equal(t, Coins{NewCoin("uatom", 3), NewCoin("ugov", 15)}, cs)

	cs, err = ParseCoins("")
	require.NoError(t, err)
	assert.Empty(t, cs)

	for _, bad := range []string{"ugov", "10", "x10ugov", "99999999999999999999ugov"} {
		_, err = ParseCoins(bad)
		assert.ErrorIs(t, err, ErrInvalidCoin, bad)
	}

	_, err = ParseCoins("18446744073709551615ugov,1ugov")
	assert.ErrorIs(t, err, ErrInvalidCoin)
	assert.ErrorIs(t, err, ErrDepositOverflow)
}
