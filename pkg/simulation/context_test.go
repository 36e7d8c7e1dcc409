package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/target"
)

func newTestContext() *SimulationContext {
	store := profile.NewStore()
	tgt := target.New(store)
	return NewContext(tgt, ModeNormal, NewGlobalSimulationContext())
}

func TestPredicateMemoizesWithoutRecompounding(t *testing.T) {
	ctx := newTestContext()
	calls := 0
	compute := func() float64 {
		calls++
		return 0.5
	}

	v1, err := ctx.Predicate("t1", "e1", "can_find_address", []string{":stack"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v1)
	assert.Equal(t, 0.5, ctx.Exploitability)

	v2, err := ctx.Predicate("t2", "e2", "can_find_address", []string{":stack"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v2)

	// Second call must not recompute or re-multiply.
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0.5, ctx.Exploitability)
}

func TestPredicateZeroAbortsBranch(t *testing.T) {
	ctx := newTestContext()
	_, err := ctx.Predicate("t1", "e1", "can_bypass_stack_protection", nil, func() float64 { return 0 })
	require.Error(t, err)
	assert.True(t, IsPredicateNotSatisfied(err))
}

func TestExplicitAssumptionDominatesPredicate(t *testing.T) {
	ctx := newTestContext()
	ctx.Target.AssumeFalse("can_find_address(:stack)")

	_, err := ctx.Predicate("t1", "e1", "can_find_address", []string{":stack"}, func() float64 {
		t.Fatal("compute should not run when an explicit assumption exists")
		return 1.0
	})
	require.Error(t, err)
	assert.True(t, IsPredicateNotSatisfied(err))
}

func TestAssumeRecordsWithoutAffectingExploitability(t *testing.T) {
	ctx := newTestContext()
	before := ctx.Exploitability
	ok := ctx.Assume("t1", "e1", "can_control_stack_pointer", nil, true)
	assert.True(t, ok)
	assert.Equal(t, before, ctx.Exploitability)

	// Re-assuming the same key returns the cached value.
	ok = ctx.Assume("t2", "e2", "can_control_stack_pointer", nil, false)
	assert.True(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	ctx := newTestContext()
	ctx.Technique("return_address_overwrite")
	clone := ctx.Clone()
	clone.Technique("pivot_stack_pointer")

	assert.Equal(t, 1, ctx.Techniques().Cardinality())
	assert.Equal(t, 2, clone.Techniques().Cardinality())
}

func TestGlobalSimulationContextGroupsEquivalenceClasses(t *testing.T) {
	g := NewGlobalSimulationContext()

	store := profile.NewStore()

	a := NewContext(target.New(store), ModeNormal, g)
	a.Exploitability, a.Desirability, a.Likelihood = 0.5, 1.0, 1.0
	a.Technique("rop")
	g.RecordCompleted(a)

	b := NewContext(target.New(store), ModeNormal, g)
	b.Exploitability, b.Desirability, b.Likelihood = 0.5, 1.0, 1.0
	b.Technique("rop")
	g.RecordCompleted(b)

	c := NewContext(target.New(store), ModeNormal, g)
	c.Exploitability, c.Desirability, c.Likelihood = 0.5, 1.0, 1.0
	c.Technique("heap_spray")
	g.RecordCompleted(c)

	aborted := NewContext(target.New(store), ModeNormal, g)
	aborted.AbortReason = "can_bypass_stack_protection"
	g.RecordAborted(aborted)

	classes := g.Classes()
	require.Len(t, classes, 2)

	var ropClass *EquivalenceClass
	for _, cls := range classes {
		if cls.Techniques[0] == "rop" {
			ropClass = cls
		}
	}
	require.NotNil(t, ropClass)
	assert.Equal(t, 2, ropClass.Members)

	summary := g.Summary()
	assert.Equal(t, 4, summary.TotalBranches)
	assert.Equal(t, 1, summary.AbortedBranches)
	assert.Equal(t, 2, summary.EquivalenceClasses)
}
