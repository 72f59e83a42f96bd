package types

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/calehh/hac-gov/gov"
	abci "github.com/cometbft/cometbft/abci/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsDecodeWhatIsEncoded(t *testing.T) {
	proposal := &EventProposal{
		Proposal:        3,
		AppID:           1,
		ProposerAddress: "AB12",
		Title:           "whitelist asset",
		Status:          gov.StatusOpen,
		Expires:         "expires at time 1500",
		TotalWeight:     100,
		Weight:          20,
	}
	assert.Equal(t, proposal, DecodeEventProposal(EncodeEventProposal(proposal)))

	vote := &EventVote{Proposal: 3, VoterAddress: "CD34", Vote: gov.VoteVeto, Weight: 7}
	assert.Equal(t, vote, DecodeEventVote(EncodeEventVote(vote)))

	status := &EventStatus{Proposal: 3, Status: gov.StatusRejected, Yes: 1, No: 2, Abstain: 3, Veto: 4}
	assert.Equal(t, status, DecodeEventStatus(EncodeEventStatus(status)))

	deposit := &EventDeposit{Proposal: 3, DepositorAddress: "AB12", Amount: gov.Coins{gov.NewCoin("ugov", 5)}, CurrentDeposit: 15}
	assert.Equal(t, deposit, DecodeEventDeposit(EncodeEventDeposit(deposit)))

	refund := &EventRefund{Proposal: 3, ProposerAddress: "AB12", Amount: gov.Coins{gov.NewCoin("ugov", 15)}}
	assert.Equal(t, refund, DecodeEventRefund(EncodeEventRefund(refund)))
}

func TestDecodeEventRejectsBadAttributes(t *testing.T) {
	bad := func(key, value string) abci.Event {
		return abci.Event{Attributes: []abci.EventAttribute{{Key: key, Value: value}}}
	}
	assert.Nil(t, DecodeEventProposal(bad("proposal", "x")))
	assert.Nil(t, DecodeEventProposal(bad("status", "pending")))
	assert.Nil(t, DecodeEventVote(bad("vote", "maybe")))
	assert.Nil(t, DecodeEventStatus(bad("veto", "-1")))
	assert.Nil(t, DecodeEventDeposit(bad("amount", "10ugov")))
	assert.Nil(t, DecodeEventRefund(bad("proposal", "")))

	// unknown attributes are ignored
	ev := DecodeEventVote(bad("height", "9"))
	require.NotNil(t, ev)
	assert.Zero(t, *ev)
}

func TestParseGovGenesis(t *testing.T) {
	g, err := ParseGovGenesis(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultGovGenesis(), g)

	dat, err := json.Marshal(&GovGenesis{Config: &gov.Config{
		Threshold: gov.AbsoluteCount{Weight: 10},
		Target:    "registry",
	}})
	require.NoError(t, err)
	g, err = ParseGovGenesis(dat)
	require.NoError(t, err)
	assert.Equal(t, gov.AbsoluteCount{Weight: 10}, g.Config.Threshold)
	assert.Equal(t, "registry", g.Config.Target)

	_, err = ParseGovGenesis([]byte(`{}`))
	assert.Error(t, err)

	dat, err = json.Marshal(&GovGenesis{Config: &gov.Config{Threshold: gov.AbsoluteCount{}}})
	require.NoError(t, err)
	_, err = ParseGovGenesis(dat)
	assert.ErrorIs(t, err, gov.ErrZeroWeight)
}

func TestExportGenesisFile(t *testing.T) {
	doc := &GenesisDoc{
		ChainID:         "hacgov-test",
		ConsensusParams: cmttypes.DefaultConsensusParams(),
	}
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, ExportGenesisFile(doc, path))
	assert.Equal(t, int64(1), doc.InitialHeight)
	assert.False(t, doc.GenesisTime.IsZero())
	assert.NotEmpty(t, doc.AppState)

	// the file must be readable by cometbft itself
	cmtDoc, err := cmttypes.GenesisDocFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hacgov-test", cmtDoc.ChainID)
	assert.WithinDuration(t, doc.GenesisTime, cmtDoc.GenesisTime, time.Second)

	assert.Error(t, ExportGenesisFile(&GenesisDoc{}, path))
}
