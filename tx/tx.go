package tx

import (
	"encoding/json"

	"github.com/calehh/hac-gov/gov"
	"github.com/cometbft/cometbft/crypto/ed25519"
)

type GovTx struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	PubKey  []byte    `json:"pubkey"`
	Tx      any       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

type ProposeTx struct {
	AppID       uint64    `json:"app_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Msgs        []gov.Msg `json:"msgs"`
	Deposit     gov.Coins `json:"deposit"`
}

type VoteTx struct {
	Proposal uint64   `json:"proposal"`
	Vote     gov.Vote `json:"vote"`
}

type DepositTx struct {
	Proposal uint64    `json:"proposal"`
	Amount   gov.Coins `json:"amount"`
}

type SettleTx struct {
	Proposal uint64 `json:"proposal"`
}

type RefundTx struct {
	Proposal uint64 `json:"proposal"`
}

type govTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	PubKey  []byte    `json:"pubkey"`
	Tx      Tx        `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

// Sender is the address derived from the signing key.
func (tx *GovTx) Sender() string {
	return ed25519.PubKey(tx.PubKey).Address().String()
}

// SigData is the tx with its signatures replaced by ext, usually the chain
// id, serialized as JSON.
func (tx *GovTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

type Signer interface {
	Sign(msg []byte) ([]byte, error)
}

// Sign replaces the signatures of btx with a single signature over SigData.
func Sign(btx *GovTx, chainID string, signer Signer) (err error) {
	dat, err := btx.SigData([]byte(chainID))
	if err != nil {
		return
	}
	sig, err := signer.Sign(dat)
	if err != nil {
		return
	}
	btx.Sig = [][]byte{sig}
	return
}

func parseGovTxType(dat []byte) GovTxType {
	var tx struct {
		Type GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown
	}
	return tx.Type
}

func unmarshalGovTx[Tx any](dat []byte) (btx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version != GovTxVersion1 {
		return nil, ErrUnsupportedTxVersion
	}
	if len(txt.PubKey) != ed25519.PubKeySize {
		return nil, ErrInvalidPubKey
	}
	btx = new(GovTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.PubKey = txt.PubKey
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (btx *GovTx, err error) {
	tp := parseGovTxType(dat)
	switch tp {
	case GovTxTypePropose:
		return unmarshalGovTx[ProposeTx](dat)
	case GovTxTypeVote:
		return unmarshalGovTx[VoteTx](dat)
	case GovTxTypeDeposit:
		return unmarshalGovTx[DepositTx](dat)
	case GovTxTypeSettle:
		return unmarshalGovTx[SettleTx](dat)
	case GovTxTypeRefund:
		return unmarshalGovTx[RefundTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalGovTx(btx *GovTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
