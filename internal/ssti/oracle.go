package ssti

// Oracle is the WAF predicate: given a candidate template fragment, report
// whether the target application would accept it.
// The engine assumes Oracle is pure for the lifetime of one Generator/
// Assembler instance (memoization via the success/failure caches is safe);
// a caller backed by a flaky real-world probe must wrap it with its own
// retry-and-vote logic (see probe.WithRetry) before handing it to the
// engine; the engine never compensates for a flaky oracle itself.
type Oracle func(fragment string) bool
