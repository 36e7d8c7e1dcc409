package permutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/target"
)

func TestDefaultScenarioBits(t *testing.T) {
	store := profile.NewStore()
	scenario := DefaultScenario(store)
	require.Len(t, scenario.Descriptors, 6)
	assert.Positive(t, scenario.TotalBits())
}

func TestApplyOverridesNarrowsDomain(t *testing.T) {
	store := profile.NewStore()
	scenario := DefaultScenario(store)

	narrowed, err := ApplyOverrides(scenario, map[string][]string{
		"hw_base_profile": {"x64_generic"},
		"flaw_local":       {"true", "false"},
	})
	require.NoError(t, err)
	require.Less(t, narrowed.TotalBits(), scenario.TotalBits())

	for _, d := range narrowed.Descriptors {
		if d.Name == "hw_base_profile" {
			assert.Equal(t, []string{"x64_generic"}, d.Values)
			assert.Equal(t, 0, d.Bits)
		}
	}
}

func TestApplyOverridesRejectsUnknownField(t *testing.T) {
	store := profile.NewStore()
	scenario := DefaultScenario(store)
	_, err := ApplyOverrides(scenario, map[string][]string{"nonexistent": {"x"}})
	assert.Error(t, err)
}

// TestFlawLocalAndFlawKernelOverrideActualTargetFields guards against
// flaw_local/flaw_kernel regressing into assumption-key no-ops: their
// setters must mutate the same fields the compat checks and predicates
// (pkg/profile/compat.go, pkg/statemachine/predicates.go) read.
func TestFlawLocalAndFlawKernelOverrideActualTargetFields(t *testing.T) {
	store := profile.NewStore()
	scenario := DefaultScenario(store)

	var flawLocal, flawKernel *BitDescriptor
	for _, d := range scenario.Descriptors {
		switch d.Name {
		case "flaw_local":
			flawLocal = d
		case "flaw_kernel":
			flawKernel = d
		}
	}
	require.NotNil(t, flawLocal)
	require.NotNil(t, flawKernel)

	tgt := target.New(store)
	require.NoError(t, tgt.SetHardware("x64_generic"))
	require.NoError(t, tgt.SetOS("win7_rtm_x64"))
	require.NoError(t, tgt.SetApplication("ie8_x64"))
	require.NoError(t, tgt.SetFlaw("relative_stack_corruption_forward_adjacent"))

	before := tgt.Derivable.Flaw.Local
	require.NoError(t, flawLocal.Set(tgt, indexOf(t, flawLocal, "true")))
	assert.True(t, tgt.Derivable.Flaw.Local, "flaw_local=true must flip Derivable.Flaw.Local")
	assert.Equal(t, "true", flawLocal.Get(tgt))

	require.NoError(t, flawLocal.Set(tgt, indexOf(t, flawLocal, "false")))
	assert.False(t, tgt.Derivable.Flaw.Local)
	_ = before

	require.NoError(t, flawKernel.Set(tgt, indexOf(t, flawKernel, "true")))
	assert.True(t, tgt.Derivable.Application.Kernel, "flaw_kernel=true must flip Derivable.Application.Kernel")
	assert.Equal(t, "true", flawKernel.Get(tgt))

	require.NoError(t, flawKernel.Set(tgt, indexOf(t, flawKernel, "false")))
	assert.False(t, tgt.Derivable.Application.Kernel)
}

func indexOf(t *testing.T, d *BitDescriptor, value string) int {
	t.Helper()
	for i, v := range d.Values {
		if v == value {
			return i
		}
	}
	t.Fatalf("value %q not found in descriptor %q", value, d.Name)
	return -1
}

func TestWithValuesSetByIndexAppliesUnderlyingSetter(t *testing.T) {
	store := profile.NewStore()
	scenario := DefaultScenario(store)

	var hw *BitDescriptor
	for _, d := range scenario.Descriptors {
		if d.Name == "hw_base_profile" {
			hw = d
		}
	}
	require.NotNil(t, hw)

	narrowed := hw.WithValues([]string{"x64_generic"})
	tgt := target.New(store)
	require.NoError(t, narrowed.Set(tgt, 0))
	assert.Equal(t, "x64_generic", narrowed.Get(tgt))
}
