package gov

import (
	"fmt"
	"time"
)

// BlockInfo is the clock every status check is evaluated against.
type BlockInfo struct {
	Height  uint64    `json:"height"`
	Time    time.Time `json:"time"`
	ChainID string    `json:"chain_id"`
}

// Expiration is a height or time bound on the voting window. With neither
// set it never expires.
type Expiration struct {
	AtHeight uint64 `json:"at_height,omitempty"`
	AtTime   int64  `json:"at_time,omitempty"` // unix nanoseconds
}

func ExpiresAtHeight(h uint64) Expiration {
	return Expiration{AtHeight: h}
}

func ExpiresAtTime(t time.Time) Expiration {
	return Expiration{AtTime: t.UnixNano()}
}

func Never() Expiration {
	return Expiration{}
}

func (e Expiration) IsNever() bool {
	return e.AtHeight == 0 && e.AtTime == 0
}

func (e Expiration) IsExpired(block BlockInfo) bool {
	switch {
	case e.AtHeight != 0:
		return block.Height >= e.AtHeight
	case e.AtTime != 0:
		return block.Time.UnixNano() >= e.AtTime
	default:
		return false
	}
}

func (e Expiration) String() string {
	switch {
	case e.AtHeight != 0:
		return fmt.Sprintf("expiration height: %d", e.AtHeight)
	case e.AtTime != 0:
		return fmt.Sprintf("expiration time: %s", time.Unix(0, e.AtTime).UTC().Format(time.RFC3339Nano))
	default:
		return "expiration: never"
	}
}
