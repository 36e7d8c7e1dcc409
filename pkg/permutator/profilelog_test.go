package permutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsimrunner/xsim/pkg/profile"
)

func TestParseProfileLogSingleBlock(t *testing.T) {
	text := `
PROFILE: START
PROFILE: hw_base_profile=x64_generic
PROFILE: flaw_local=true
PROFILE: END
`
	blocks, err := ParseProfileLog(text)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"x64_generic"}, blocks[0].Values["hw_base_profile"])
	assert.Equal(t, []string{"true"}, blocks[0].Values["flaw_local"])
	assert.Equal(t, []string{"hw_base_profile", "flaw_local"}, blocks[0].Fields)
}

func TestParseProfileLogMultipleBlocks(t *testing.T) {
	text := "PROFILE: START\nPROFILE: a=b\nPROFILE: END\nPROFILE: START\nPROFILE: c=d\nPROFILE: END\n"
	blocks, err := ParseProfileLog(text)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
}

func TestParseProfileLogRejectsUnterminatedBlock(t *testing.T) {
	_, err := ParseProfileLog("PROFILE: START\nPROFILE: a=b\n")
	require.Error(t, err)
	assert.True(t, IsInvalidProfileLine(err))
}

func TestParseProfileLogRejectsEndWithoutStart(t *testing.T) {
	_, err := ParseProfileLog("PROFILE: END\n")
	require.Error(t, err)
	assert.True(t, IsInvalidProfileLine(err))
}

func TestParseProfileLogRejectsMalformedAssignment(t *testing.T) {
	_, err := ParseProfileLog("PROFILE: START\nPROFILE: not-an-assignment\nPROFILE: END\n")
	require.Error(t, err)
	assert.True(t, IsInvalidProfileLine(err))
}

func TestScenarioForPinsEveryField(t *testing.T) {
	store := profile.NewStore()
	base := DefaultScenario(store)
	block := ProfileBlock{
		Fields: []string{"hw_base_profile"},
		Values: map[string][]string{"hw_base_profile": {"x64_generic"}},
	}
	scenario, err := ScenarioFor(base, block, "profile-0")
	require.NoError(t, err)
	assert.Equal(t, "profile-0", scenario.Name)

	for _, d := range scenario.Descriptors {
		if d.Name == "hw_base_profile" {
			assert.Equal(t, 0, d.Bits)
		}
	}
}
