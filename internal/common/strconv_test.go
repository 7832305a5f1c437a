package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"  ", 0},
		{"abc", 0},
		{"0", 0},
		{"500", 500},
		{" 1700 ", 1700},
		{"-200", -200},
		{"12.4", 12},
		{"12.5", 13},
		{"12.75", 13},
		{"1e3", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseAmount(tc.in), "ParseAmount(%q)", tc.in)
	}
}

func TestParseOptionalID(t *testing.T) {
	require.Nil(t, ParseOptionalID(""))
	require.Nil(t, ParseOptionalID("not-an-id"))
	got := ParseOptionalID("42")
	require.NotNil(t, got)
	require.EqualValues(t, 42, *got)
}

func TestAtoiDefault(t *testing.T) {
	require.Equal(t, 7, AtoiDefault("", 7))
	require.Equal(t, 12, AtoiDefault("12", 7))
	require.Equal(t, 7, AtoiDefault("x", 7))
}
