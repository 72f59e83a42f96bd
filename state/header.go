package state

import (
	"encoding/json"
	"time"

	"github.com/calehh/hac-gov/gov"
)

// StateHeader is stored under KeyState and describes the last applied block.
type StateHeader struct {
	Height   uint64 `json:"height"`
	Time     int64  `json:"time"` // unix nanoseconds
	ChainId  string `json:"chain_id"`
	RootHash []byte `json:"root_hash"`
	Hash     []byte `json:"hash"`
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.RootHash = append([]byte(nil), h.RootHash...)
	n.Hash = append([]byte(nil), h.Hash...)
	return &n
}

func (h *StateHeader) GetHash() []byte {
	if h == nil {
		return nil
	}
	return h.Hash
}

func (h *StateHeader) Block() gov.BlockInfo {
	return gov.BlockInfo{
		Height:  h.Height,
		Time:    time.Unix(0, h.Time).UTC(),
		ChainID: h.ChainId,
	}
}

func (h *StateHeader) marshal() ([]byte, error) {
	return json.Marshal(h)
}

func (h *StateHeader) unmarshal(dat []byte) error {
	return json.Unmarshal(dat, h)
}
