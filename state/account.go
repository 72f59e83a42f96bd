package state

import (
	"encoding/json"

	"github.com/cometbft/cometbft/crypto/ed25519"
)

// Account is a tx sender. Only the nonce is persisted; the key comes with
// every signed tx.
type Account struct {
	PubKey ed25519.PubKey
	Nonce  uint64

	addr string
}

type accountSt struct {
	Address string         `json:"address"`
	PubKey  ed25519.PubKey `json:"pubKey,omitempty"`
	Nonce   uint64         `json:"nonce"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Address: a.Address(),
		PubKey:  a.PubKey,
		Nonce:   a.Nonce,
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	a.addr = o.Address
	a.PubKey = o.PubKey
	a.Nonce = o.Nonce
	return
}

func (a *Account) Clone() *Account {
	n := *a
	n.PubKey = append(ed25519.PubKey(nil), a.PubKey...)
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	if a.PubKey == nil {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) Address() string {
	if len(a.PubKey) == 0 {
		return a.addr
	}
	return a.PubKey.Address().String()
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 || len(a.PubKey) != ed25519.PubKeySize {
		return false
	}
	return a.PubKey.VerifySignature(msg, sigs[0])
}
