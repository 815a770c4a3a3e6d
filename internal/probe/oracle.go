// Package probe supplies the transport side of the system: concrete
// ssti.Oracle implementations (plain HTTP, headless browser) and a
// field-discovery helper that derives an oracle from a live target form.
// None of this package's decisions feed back into the generation engine's
// semantics; ssti.Assembler only ever depends on the ssti.Oracle function
// type, never on how a probe produced it.
package probe

import (
	"sort"

	"github.com/FunctFan/fenjing-go/internal/logging"
	"github.com/FunctFan/fenjing-go/internal/ssti"
)

// WithRetry wraps a flaky real-world oracle with a majority-vote decorator.
// The generator assumes its oracle is pure and never compensates for
// flakiness itself, so smoothing belongs out here with the caller. It probes
// the same fragment up to n times and accepts if at least thresh of those
// probes return true. n and thresh come from config.OracleConfig's Retries
// and VoteThresh fields; a thresh above n is clamped to n.
func WithRetry(oracle ssti.Oracle, n, thresh int) ssti.Oracle {
	if n <= 1 {
		return oracle
	}
	if thresh > n {
		thresh = n
	}
	if thresh < 1 {
		thresh = 1
	}
	log := logging.Get(logging.CategoryProbe)
	return func(fragment string) bool {
		votes := 0
		for i := 0; i < n; i++ {
			if oracle(fragment) {
				votes++
			}
		}
		accepted := votes >= thresh
		log.Debug("retry-vote fragment=%q votes=%d/%d accepted=%v", fragment, votes, n, accepted)
		return accepted
	}
}

// Logged wraps oracle so every probe and its verdict land in the oracle
// category's debug log, giving a post-mortem trail of exactly which
// fragments the target saw and what it said about each.
func Logged(oracle ssti.Oracle) ssti.Oracle {
	log := logging.Get(logging.CategoryOracle)
	return func(fragment string) bool {
		accepted := oracle(fragment)
		log.Debug("fragment=%q accepted=%v", fragment, accepted)
		return accepted
	}
}

// Memoize wraps oracle with a simple cache so repeated probes of the exact
// same fragment (common across primer + rule-alternative retries) cost one
// round trip instead of one per call. Safe because the oracle is assumed
// pure for the lifetime of one engine instance.
func Memoize(oracle ssti.Oracle) ssti.Oracle {
	seen := make(map[string]bool)
	return func(fragment string) bool {
		if v, ok := seen[fragment]; ok {
			return v
		}
		v := oracle(fragment)
		seen[fragment] = v
		return v
	}
}

// sortedKeys returns m's keys in sorted order; HTTPOracle uses it to add
// its extra form fields in a deterministic order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
