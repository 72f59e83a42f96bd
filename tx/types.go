package tx

import (
	"errors"
)

type GovTxType uint8

const (
	GovTxTypeUnknown GovTxType = 0
	GovTxTypePropose GovTxType = 1
	GovTxTypeVote    GovTxType = 2
	GovTxTypeDeposit GovTxType = 3
	GovTxTypeSettle  GovTxType = 4
	GovTxTypeRefund  GovTxType = 5
)

var txTypeNames = map[GovTxType]string{
	GovTxTypePropose: "propose",
	GovTxTypeVote:    "vote",
	GovTxTypeDeposit: "deposit",
	GovTxTypeSettle:  "settle",
	GovTxTypeRefund:  "refund",
}

func (t GovTxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

const (
	GovTxVersion0 uint8 = 0
	GovTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx         = errors.New("invalid tx")
	ErrUnsupportedTxType = errors.New("unsupported tx type")

	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrInvalidPubKey        = errors.New("invalid tx pubkey")
)
