package gov

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidCoin     = errors.New("invalid coin")
	ErrDepositOverflow = errors.New("coin amount overflows uint64")
)

type Coin struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}

func NewCoin(denom string, amount uint64) Coin {
	return Coin{Denom: denom, Amount: amount}
}

func (c Coin) String() string {
	return fmt.Sprintf("%d%s", c.Amount, c.Denom)
}

type Coins []Coin

func (cs Coins) AmountOf(denom string) (amt uint64) {
	for _, c := range cs {
		if c.Denom == denom {
			amt += c.Amount
		}
	}
	return
}

// Add merges o into a copy of cs, one entry per denom, sorted by denom.
// A per-denom sum above math.MaxUint64 fails with ErrDepositOverflow.
func (cs Coins) Add(o Coins) (Coins, error) {
	sums := make(map[string]uint64, len(cs)+len(o))
	for _, c := range append(cs[:len(cs):len(cs)], o...) {
		sum, carry := bits.Add64(sums[c.Denom], c.Amount, 0)
		if carry != 0 {
			return nil, fmt.Errorf("%w: %s", ErrDepositOverflow, c.Denom)
		}
		sums[c.Denom] = sum
	}
	res := make(Coins, 0, len(sums))
	for denom, amt := range sums {
		if amt == 0 {
			continue
		}
		res = append(res, Coin{Denom: denom, Amount: amt})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Denom < res[j].Denom
	})
	return res, nil
}

func (cs Coins) IsZero() bool {
	for _, c := range cs {
		if c.Amount != 0 {
			return false
		}
	}
	return true
}

func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// ParseCoins reads a comma separated list like "10ugov,3uatom". The result
// is merged per denom like Add.
func ParseCoins(s string) (cs Coins, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		i := strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' })
		if i <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCoin, part)
		}
		amt, err := strconv.ParseUint(part[:i], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCoin, part)
		}
		cs = append(cs, NewCoin(part[i:], amt))
	}
	if cs, err = (Coins{}).Add(cs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCoin, err)
	}
	return cs, nil
}
