package gov

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// PrecisionFactor scales the weight before applying a fraction so the
// final ceiling division rounds up on the whole vote instead of truncating.
const PrecisionFactor = 1_000_000_000

var (
	precisionFactor = uint256.NewInt(PrecisionFactor)

	ErrInvalidThreshold           = errors.New("invalid voting threshold percentage, must be in the 0.5-1.0 range")
	ErrZeroQuorumThreshold        = errors.New("required quorum threshold cannot be zero")
	ErrUnreachableQuorumThreshold = errors.New("not possible to reach required quorum threshold")
	ErrZeroWeight                 = errors.New("required weight cannot be zero")
	ErrUnknownThreshold           = errors.New("unknown threshold type")
)

// VotesNeeded returns the smallest integer weight v with v/weight >= fraction,
// that is ceil(fraction*weight). 8 of 15 are needed for 50%, not 7.
func VotesNeeded(weight uint64, fraction Decimal) uint64 {
	return votesNeeded(uint256.NewInt(weight), fraction).Uint64()
}

// votesNeeded is VotesNeeded for weights that may exceed uint64, such as
// the sum of all four vote buckets.
func votesNeeded(weight *uint256.Int, fraction Decimal) *uint256.Int {
	applied := new(uint256.Int).Mul(weight, precisionFactor)
	applied.Mul(applied, &fraction.atomics)
	applied.Div(applied, decimalFractional)

	applied.Add(applied, precisionFactor)
	applied.SubUint64(applied, 1)
	applied.Div(applied, precisionFactor)
	return applied
}

// ValidateThreshold checks a pass fraction and quorum pair.
func ValidateThreshold(threshold, quorum Decimal) error {
	if threshold.Cmp(Percent(100)) > 0 || threshold.Cmp(Percent(50)) < 0 {
		return ErrInvalidThreshold
	} else if quorum.IsZero() {
		return ErrZeroQuorumThreshold
	} else if quorum.Cmp(OneDecimal()) > 0 {
		return ErrUnreachableQuorumThreshold
	}
	return nil
}

// Threshold is the pass rule of a proposal. The concrete types are
// AbsoluteCount, AbsolutePercentage and ThresholdQuorum.
type Threshold interface {
	Validate() error
	isThreshold()
}

type AbsoluteCount struct {
	Weight uint64 `json:"weight"`
}

type AbsolutePercentage struct {
	Percentage Decimal `json:"percentage"`
}

type ThresholdQuorum struct {
	Threshold Decimal `json:"threshold"`
	Quorum    Decimal `json:"quorum"`
}

func (AbsoluteCount) isThreshold()      {}
func (AbsolutePercentage) isThreshold() {}
func (ThresholdQuorum) isThreshold()    {}

func (t AbsoluteCount) Validate() error {
	if t.Weight == 0 {
		return ErrZeroWeight
	}
	return nil
}

func (t AbsolutePercentage) Validate() error {
	if t.Percentage.Cmp(Percent(100)) > 0 || t.Percentage.Cmp(Percent(50)) < 0 {
		return ErrInvalidThreshold
	}
	return nil
}

func (t ThresholdQuorum) Validate() error {
	return ValidateThreshold(t.Threshold, t.Quorum)
}

type thresholdJSON struct {
	AbsoluteCount      *AbsoluteCount      `json:"absolute_count,omitempty"`
	AbsolutePercentage *AbsolutePercentage `json:"absolute_percentage,omitempty"`
	ThresholdQuorum    *ThresholdQuorum    `json:"threshold_quorum,omitempty"`
}

func MarshalThreshold(t Threshold) ([]byte, error) {
	var o thresholdJSON
	switch v := t.(type) {
	case AbsoluteCount:
		o.AbsoluteCount = &v
	case AbsolutePercentage:
		o.AbsolutePercentage = &v
	case ThresholdQuorum:
		o.ThresholdQuorum = &v
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownThreshold, t)
	}
	return json.Marshal(o)
}

func UnmarshalThreshold(bz []byte) (t Threshold, err error) {
	var o thresholdJSON
	if err = json.Unmarshal(bz, &o); err != nil {
		return
	}
	n := 0
	if o.AbsoluteCount != nil {
		t = *o.AbsoluteCount
		n++
	}
	if o.AbsolutePercentage != nil {
		t = *o.AbsolutePercentage
		n++
	}
	if o.ThresholdQuorum != nil {
		t = *o.ThresholdQuorum
		n++
	}
	if n != 1 {
		return nil, ErrUnknownThreshold
	}
	return
}
