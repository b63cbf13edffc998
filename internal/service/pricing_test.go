package service

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"1.234.567đ", 1234567},
		{"1234567", 1234567},
		{"Rp 150,000", 150000},
		{"$ 12", 12},
		{"", 0},
		{"free", 0},
	}
	for _, tt := range tests {
		got, err := NormalizePrice(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestNormalizePrice_Idempotent(t *testing.T) {
	for _, raw := range []string{"1.234.567đ", "99.000", "0", "42"} {
		once, err := NormalizePrice(raw)
		require.NoError(t, err)
		twice, err := NormalizePrice(strconv.FormatInt(once, 10))
		require.NoError(t, err)
		assert.Equal(t, once, twice, raw)
	}
}

func TestNormalizePrice_Overflow(t *testing.T) {
	_, err := NormalizePrice("99999999999999999999999")
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestPrice_UnmarshalJSON(t *testing.T) {
	var body struct {
		A Price  `json:"a"`
		B Price  `json:"b"`
		C Price  `json:"c"`
		D *Price `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 150000, "b": "1.234.567đ", "c": null}`), &body))

	a, err := body.A.Amount()
	require.NoError(t, err)
	assert.Equal(t, int64(150000), a)

	b, err := body.B.Amount()
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), b)

	assert.False(t, body.C.IsSet())
	assert.True(t, body.C.Present(), "null is present and clears")
	assert.Nil(t, body.D)

	var absent struct {
		E Price `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.False(t, absent.E.Present())
	assert.True(t, PriceOf("").Present())

	var bad Price
	assert.ErrorIs(t, json.Unmarshal([]byte(`true`), &bad), ErrInvalidPrice)
}
