package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldArgsValid(t *testing.T) {
	overrides, err := parseFieldArgs([]string{"hw_base_profile=x64_generic,arm64_generic", "flaw_local=true"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x64_generic", "arm64_generic"}, overrides["hw_base_profile"])
	assert.Equal(t, []string{"true"}, overrides["flaw_local"])
}

func TestParseFieldArgsEmpty(t *testing.T) {
	overrides, err := parseFieldArgs(nil)
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestParseFieldArgsRejectsMalformed(t *testing.T) {
	_, err := parseFieldArgs([]string{"not-an-assignment"})
	assert.Error(t, err)
}

func TestParseFieldArgsRejectsEmptyValue(t *testing.T) {
	_, err := parseFieldArgs([]string{"hw_base_profile="})
	assert.Error(t, err)
}
