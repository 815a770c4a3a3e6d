package mangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// explainSchema mirrors internal/explain's oracle-call ledger schema, so
// these tests exercise the engine exactly the way that package does.
const explainSchema = `
Decl oracle_call(Fragment, GenType, Verdict) bound [/string, /string, /name].
Decl accepted_fragment(Fragment, GenType) bound [/string, /string].
Decl rejected_fragment(Fragment, GenType) bound [/string, /string].

accepted_fragment(Fragment, GenType) :- oracle_call(Fragment, GenType, /accepted).
rejected_fragment(Fragment, GenType) :- oracle_call(Fragment, GenType, /rejected).
`

// honeypotSchema mirrors internal/browser's page-fact + honeypot-rule schema.
const honeypotSchema = `
Decl css_property(elem: string, property: string, value: string).
Decl position(elem: string, x: string, y: string, width: string, height: string).

Decl honeypot_css_hidden(elem: string).
honeypot_css_hidden(Elem) :- css_property(Elem, "display", "none").

Decl is_honeypot(elem: string).
is_honeypot(Elem) :- honeypot_css_hidden(Elem).
`

func newExplainEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, eng.LoadSchemaString(explainSchema))
	return eng
}

func TestOracleCallRoundTrip(t *testing.T) {
	eng := newExplainEngine(t)

	require.NoError(t, eng.PushFact("oracle_call", "{{7*7}}", "UNSIGNED_INTEGER", "/accepted"))
	require.NoError(t, eng.PushFact("oracle_call", "{{config}}", "CONFIG", "/rejected"))

	accepted := eng.QueryFacts("accepted_fragment", "", "UNSIGNED_INTEGER")
	require.Len(t, accepted, 1)
	assert.Equal(t, "{{7*7}}", accepted[0].Args[0])

	rejected := eng.QueryFacts("rejected_fragment", "", "CONFIG")
	require.Len(t, rejected, 1)
	assert.Equal(t, "{{config}}", rejected[0].Args[0])
}

func TestQueryFactsFiltersByPosition(t *testing.T) {
	eng := newExplainEngine(t)

	require.NoError(t, eng.PushFact("oracle_call", "frag1", "STRING", "/accepted"))
	require.NoError(t, eng.PushFact("oracle_call", "frag2", "INTEGER", "/accepted"))

	all := eng.QueryFacts("accepted_fragment")
	assert.Len(t, all, 2)

	onlyString := eng.QueryFacts("accepted_fragment", "", "STRING")
	require.Len(t, onlyString, 1)
	assert.Equal(t, "frag1", onlyString[0].Args[0])
}

func TestBlockedGenTypeHasNoAcceptedFragments(t *testing.T) {
	eng := newExplainEngine(t)

	require.NoError(t, eng.PushFact("oracle_call", "os.popen", "OS_POPEN_READ", "/rejected"))
	require.NoError(t, eng.PushFact("oracle_call", "os|attr('popen')", "OS_POPEN_READ", "/rejected"))

	accepted := eng.QueryFacts("accepted_fragment", "", "OS_POPEN_READ")
	rejected := eng.QueryFacts("rejected_fragment", "", "OS_POPEN_READ")
	assert.Empty(t, accepted)
	assert.Len(t, rejected, 2)
}

func TestAddFactRejectsUndeclaredPredicate(t *testing.T) {
	eng := newExplainEngine(t)
	err := eng.AddFact("not_declared_anywhere", "x")
	assert.Error(t, err)
}

func TestAddFactRejectsWrongArity(t *testing.T) {
	eng := newExplainEngine(t)
	err := eng.AddFact("oracle_call", "only-one-arg")
	assert.Error(t, err)
}

func TestFactLimitEnforced(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FactLimit = 2
	eng, err := NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, eng.LoadSchemaString(explainSchema))

	require.NoError(t, eng.PushFact("oracle_call", "a", "STRING", "/accepted"))
	require.NoError(t, eng.PushFact("oracle_call", "b", "STRING", "/accepted"))
	err = eng.PushFact("oracle_call", "c", "STRING", "/accepted")
	assert.Error(t, err, "a third fact should exceed FactLimit=2")
}

func TestDerivedPredicatesStayEmptyWithoutAutoEval(t *testing.T) {
	// AutoEval off: pushing an oracle_call fact does not run the rules, so
	// accepted_fragment/rejected_fragment never update while it stays off.
	// This is why the ledger never turns AutoEval off.
	cfg := DefaultConfig()
	cfg.AutoEval = false
	eng, err := NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, eng.LoadSchemaString(explainSchema))

	require.NoError(t, eng.PushFact("oracle_call", "frag", "STRING", "/accepted"))
	assert.Empty(t, eng.QueryFacts("accepted_fragment"), "derived predicate should not update without eval")
}

func TestGetFactsUnknownPredicate(t *testing.T) {
	eng := newExplainEngine(t)
	_, err := eng.GetFacts("nonexistent_predicate")
	assert.Error(t, err)
}

func TestClearResetsFactsButKeepsSchema(t *testing.T) {
	eng := newExplainEngine(t)
	require.NoError(t, eng.PushFact("oracle_call", "frag", "STRING", "/accepted"))
	require.Len(t, eng.QueryFacts("accepted_fragment"), 1)

	eng.Clear()
	assert.Empty(t, eng.QueryFacts("accepted_fragment"))

	// Schema survives Clear: pushing a fact still works without reloading.
	require.NoError(t, eng.PushFact("oracle_call", "frag2", "STRING", "/accepted"))
	assert.Len(t, eng.QueryFacts("accepted_fragment"), 1)
}

// --- honeypot-rule evaluation, mirroring internal/browser's usage ---

func newHoneypotEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, eng.LoadSchemaString(honeypotSchema))
	return eng
}

func TestEvaluateRuleDerivesHoneypot(t *testing.T) {
	eng := newHoneypotEngine(t)

	require.NoError(t, eng.PushFact("css_property", "elem1", "display", "none"))
	require.NoError(t, eng.PushFact("css_property", "elem2", "display", "block"))

	honeypots := eng.EvaluateRule("is_honeypot")
	require.Len(t, honeypots, 1)
	assert.Equal(t, "elem1", honeypots[0].Args[0])
}

func TestEvaluateRuleEmptyWhenNoMatch(t *testing.T) {
	eng := newHoneypotEngine(t)
	require.NoError(t, eng.PushFact("css_property", "elem1", "display", "block"))
	assert.Empty(t, eng.EvaluateRule("is_honeypot"))
}

func TestNameAndStringArgsCoexistOnSamePredicate(t *testing.T) {
	// oracle_call's third column is bound /name (a verdict tag like
	// /accepted), the first two are bound /string (arbitrary fragment
	// text); this exercises convertValueToTypedTerm picking the right
	// constant kind per declared column rather than guessing from the Go
	// value's shape alone.
	eng := newExplainEngine(t)
	require.NoError(t, eng.PushFact("oracle_call", "/looks/like/a/name", "STRING", "/accepted"))

	facts := eng.QueryFacts("accepted_fragment", "", "STRING")
	require.Len(t, facts, 1)
	assert.Equal(t, "/looks/like/a/name", facts[0].Args[0])
}
