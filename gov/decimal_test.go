package gov

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.6", "0.6"},
		{"1", "1"},
		{"1.000", "1"},
		{"0.000", "0"},
		{"00.5", "0.5"},
		{"12.000000000000000001", "12.000000000000000001"},
	}
	for _, c := range cases {
		d, err := ParseDecimal(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, d.String(), c.in)
	}

	for _, in := range []string{"", ".5", "1.", "a", "-1", "0.1234567890123456789", "1.2.3"} {
		_, err := ParseDecimal(in)
		assert.ErrorIs(t, err, ErrInvalidDecimal, in)
	}
}

func TestDecimalConstructors(t *testing.T) {
	assert.Equal(t, "0.6", Percent(60).String())
	assert.Equal(t, "0.025", Permille(25).String())
	assert.Equal(t, 0, DecimalFromRatio(1, 2).Cmp(Percent(50)))
	assert.Equal(t, "0.333333333333333333", DecimalFromRatio(1, 3).String())
	assert.True(t, ZeroDecimal().IsZero())
	assert.Equal(t, 0, OneDecimal().Cmp(Percent(100)))
	assert.Panics(t, func() { DecimalFromRatio(1, 0) })
}

func TestDecimalComplement(t *testing.T) {
	assert.Equal(t, "0.4", Percent(60).Complement().String())
	assert.True(t, OneDecimal().Complement().IsZero())
	assert.Equal(t, 0, ZeroDecimal().Complement().Cmp(OneDecimal()))
	assert.True(t, Percent(200).Complement().IsZero())
}

func TestDecimalJSON(t *testing.T) {
	bz, err := json.Marshal(Percent(60))
	require.NoError(t, err)
	assert.Equal(t, `"0.6"`, string(bz))

	var d Decimal
	require.NoError(t, json.Unmarshal([]byte(`"0.25"`), &d))
	assert.Equal(t, 0, d.Cmp(Percent(25)))

	assert.Error(t, json.Unmarshal([]byte(`0.25`), &d))
}
