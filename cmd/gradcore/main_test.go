package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_FlushesSpansOnFailure(t *testing.T) {
	var out bytes.Buffer
	err := run("no-such-command", &out)
	require.Error(t, err)

	assert.Contains(t, out.String(), "gradcore.run")
	assert.Contains(t, out.String(), `unknown command \"no-such-command\"`)
}

func TestRun_Train(t *testing.T) {
	*steps = 5
	*size = 4
	require.NoError(t, run("train", nil))
}

func TestRun_SelfTest(t *testing.T) {
	require.NoError(t, run("selftest", nil))
}
