package ssti

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryOrdersRulesByPriorityThenDeclaration(t *testing.T) {
	r := newRegistry()
	r.add(
		Rule{Name: "c", Applies: GenUnsignedInteger, Priority: 2},
		Rule{Name: "a", Applies: GenUnsignedInteger, Priority: 0},
		Rule{Name: "b-first", Applies: GenUnsignedInteger, Priority: 1},
		Rule{Name: "b-second", Applies: GenUnsignedInteger, Priority: 1},
	)
	r.finalize()

	rules := r.rulesFor(GenUnsignedInteger)
	require.Len(t, rules, 4)
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name
	}
	assert.Equal(t, []string{"a", "b-first", "b-second", "c"}, names)
}

func TestRegistryRulesForUnknownTypeIsEmpty(t *testing.T) {
	r := newRegistry()
	r.finalize()
	assert.Empty(t, r.rulesFor(GenLiteral))
}

func TestDefaultRegistryCoversEveryProductionGoalType(t *testing.T) {
	r := defaultRegistry()
	for _, gt := range []GenType{
		GenUnsignedInteger, GenInteger, GenString, GenPositiveIntIndex,
		GenAttribute, GenItem, GenClassAttribute, GenChainedAttributeItem,
		GenImportFunc, GenEvalFunc, GenEval, GenConfig,
		GenModuleOSPopenRead, GenOSPopenRead, GenPositiveChar, GenChar,
	} {
		assert.NotEmptyf(t, r.rulesFor(gt), "expected at least one rule for %s", gt)
	}
}
