package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{
		"":     uiModeAuto,
		"auto": uiModeAuto,
		" ON ": uiModeOn,
		"off":  uiModeOff,
		"Auto": uiModeAuto,
	}
	for in, want := range cases {
		got, err := readUIMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := readUIMode("sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "progress view")
}

func TestProgressViewExplicit(t *testing.T) {
	assert.True(t, uiModeOn.progressView(os.Stdout))
	assert.False(t, uiModeOff.progressView(os.Stdout))
}

func TestProgressViewAutoOffTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, uiModeAuto.progressView(f))
}
