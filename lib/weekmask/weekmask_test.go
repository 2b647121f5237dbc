package weekmask

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		spec   string
		expect []int
	}{
		{spec: "", expect: nil},
		{spec: "   ", expect: nil},
		{spec: "16", expect: []int{16}},
		{spec: "3-5,8,10-12", expect: []int{3, 4, 5, 8, 10, 11, 12}},
		{spec: "5,3,5, 4", expect: []int{3, 4, 5}},
		{spec: "1-3, 2-4", expect: []int{1, 2, 3, 4}},
	}

	for _, test := range cases {
		weeks, err := Parse(test.spec)
		require.NoError(t, err, test.spec)
		require.Equal(t, test.expect, weeks, test.spec)
	}
}

func TestParseRejectsMalformedTokens(t *testing.T) {
	for _, spec := range []string{"x", "3-", "-5", "3-x", "5-3", "1,,2"} {
		_, err := Parse(spec)
		var ferr FormatError
		require.ErrorAs(t, err, &ferr, spec)
	}
}

func TestEncode(t *testing.T) {
	mask := Encode([]int{1, 3, 5})
	require.Len(t, mask, MaskLength)
	require.Equal(t, "0101010", mask[:7])
	require.Equal(t, strings.Repeat("0", MaskLength-7), mask[7:])
}

func TestEncodeDropsOutOfRangeWeeks(t *testing.T) {
	require.Equal(t, Encode([]int{16}), Encode([]int{0, 16, 34, 40, -2}))
	require.Equal(t, strings.Repeat("0", MaskLength), Encode(nil))
}

func TestRoundTrip(t *testing.T) {
	weeks, err := Parse("3-5,8,10-12")
	require.NoError(t, err)

	decoded, err := Decode(Encode(weeks))
	require.NoError(t, err)
	require.Equal(t, weeks, decoded)
}

func TestDecodeRejectsMalformedMasks(t *testing.T) {
	_, err := Decode("0101")
	var ferr FormatError
	require.ErrorAs(t, err, &ferr)

	_, err = Decode(strings.Repeat("2", MaskLength))
	require.ErrorAs(t, err, &ferr)
}

func TestSpec(t *testing.T) {
	require.Equal(t, "3,4,5", Spec([]int{3, 4, 5}))
	require.Equal(t, "", Spec(nil))
}
