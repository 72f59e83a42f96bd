package tx

import (
	"testing"

	"github.com/calehh/hac-gov/gov"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalGovTx(t *testing.T) {
	priv := ed25519.GenPrivKey()
	btx := &GovTx{
		Version: GovTxVersion1,
		Type:    GovTxTypePropose,
		Nonce:   3,
		PubKey:  priv.PubKey().Bytes(),
		Tx: &ProposeTx{
			AppID: 1,
			Title: "whitelist cmdx locker",
			Msgs:  []gov.Msg{gov.NewMsg(gov.WhitelistAssetLocker{AppMappingID: 1, AssetID: 2})},
		},
	}
	require.NoError(t, Sign(btx, "gov-chain", priv))

	dat, err := MarshalGovTx(btx)
	require.NoError(t, err)

	got, err := UnmarshalGovTx(dat)
	require.NoError(t, err)
	assert.Equal(t, btx.Nonce, got.Nonce)
	assert.Equal(t, btx.Sender(), got.Sender())
	assert.Equal(t, priv.PubKey().Address().String(), got.Sender())

	ptx, ok := got.Tx.(*ProposeTx)
	require.True(t, ok)
	assert.Equal(t, btx.Tx, ptx)

	sigData, err := got.SigData([]byte("gov-chain"))
	require.NoError(t, err)
	assert.True(t, priv.PubKey().VerifySignature(sigData, got.Sig[0]))
}

func TestUnmarshalGovTxTypes(t *testing.T) {
	pk := ed25519.GenPrivKey().PubKey().Bytes()
	cases := []struct {
		tp   GovTxType
		body any
	}{
		{GovTxTypeVote, &VoteTx{Proposal: 1, Vote: gov.VoteNo}},
		{GovTxTypeDeposit, &DepositTx{Proposal: 1, Amount: gov.Coins{gov.NewCoin("ucmdx", 5)}}},
		{GovTxTypeSettle, &SettleTx{Proposal: 1}},
		{GovTxTypeRefund, &RefundTx{Proposal: 1}},
	}
	for _, c := range cases {
		dat, err := MarshalGovTx(&GovTx{Version: GovTxVersion1, Type: c.tp, PubKey: pk, Tx: c.body})
		require.NoError(t, err)
		got, err := UnmarshalGovTx(dat)
		require.NoError(t, err, c.tp.String())
		assert.Equal(t, c.body, got.Tx)
	}
}

func TestUnmarshalGovTxRejects(t *testing.T) {
	pk := ed25519.GenPrivKey().PubKey().Bytes()

	_, err := UnmarshalGovTx([]byte(`{"type":9}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalGovTx([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)

	dat, _ := MarshalGovTx(&GovTx{Version: GovTxVersion0, Type: GovTxTypeSettle, PubKey: pk, Tx: &SettleTx{}})
	_, err = UnmarshalGovTx(dat)
	assert.ErrorIs(t, err, ErrUnsupportedTxVersion)

	dat, _ = MarshalGovTx(&GovTx{Version: GovTxVersion1, Type: GovTxTypeSettle, PubKey: pk[:4], Tx: &SettleTx{}})
	_, err = UnmarshalGovTx(dat)
	assert.ErrorIs(t, err, ErrInvalidPubKey)

	_, err = UnmarshalGovTx([]byte(`{"version":1,"type":2,"pubkey":null,"tx":{"proposal":1,"vote":"maybe"}}`))
	assert.ErrorIs(t, err, gov.ErrInvalidVote)
}
