// Package explain records oracle verdicts for generated fragments and lets a
// caller ask why a given generation type succeeded, failed, or is blocked
// outright, by deriving simple Datalog rules over the recorded facts rather
// than re-deriving the answer from scratch. Verdicts arrive through Record;
// Sink feeds it the engine's accepted fragments only.
package explain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/FunctFan/fenjing-go/internal/logging"
	"github.com/FunctFan/fenjing-go/internal/mangle"
	"github.com/FunctFan/fenjing-go/internal/ssti"
)

const schema = `
Decl oracle_call(Fragment, GenType, Verdict) bound [/string, /string, /name].
Decl accepted_fragment(Fragment, GenType) bound [/string, /string].
Decl rejected_fragment(Fragment, GenType) bound [/string, /string].
Decl blocked_type(GenType) bound [/string].

accepted_fragment(Fragment, GenType) :- oracle_call(Fragment, GenType, /accepted).
rejected_fragment(Fragment, GenType) :- oracle_call(Fragment, GenType, /rejected).
`

// Ledger wraps a Mangle engine instance dedicated to one generation session,
// accumulating oracle_call facts and deriving accepted_fragment /
// rejected_fragment from them. blocked_type is declared but no rule derives
// it; Why decides "fully blocked" from the two derived counts.
type Ledger struct {
	engine *mangle.Engine
	log    *logging.Logger
	runID  string
}

// NewLedger constructs an empty Ledger with the oracle-call schema loaded
// and a fresh run ID, so fact dumps from different generate/crack runs stay
// distinguishable once saved to the same workspace.
func NewLedger() (*Ledger, error) {
	eng, err := mangle.NewEngine(mangle.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("explain: new engine: %w", err)
	}
	if err := eng.LoadSchemaString(schema); err != nil {
		return nil, fmt.Errorf("explain: load schema: %w", err)
	}
	return &Ledger{
		engine: eng,
		log:    logging.Get(logging.CategoryExplain),
		runID:  uuid.NewString(),
	}, nil
}

// RunID identifies the generation run this ledger belongs to.
func (l *Ledger) RunID() string { return l.runID }

// Record appends one oracle verdict to the ledger. genType is the goal type
// the fragment was attempting to satisfy; verdict is whether the oracle
// accepted the fragment.
func (l *Ledger) Record(fragment string, genType ssti.GenType, accepted bool) error {
	verdict := "/rejected"
	if accepted {
		verdict = "/accepted"
	}
	if err := l.engine.PushFact("oracle_call", fragment, string(genType), verdict); err != nil {
		return fmt.Errorf("explain: record: %w", err)
	}
	l.log.Debug("oracle_call fragment=%q type=%s verdict=%s", fragment, genType, verdict)
	return nil
}

// Sink adapts a Ledger into an ssti.EventSink, recording every
// GENERATE_INNER event's woven candidate as an accepted oracle call (the
// generator only ever emits that event after the oracle has already said
// yes) so a caller can feed Assembler/Generator output straight into the
// ledger without hand-wiring each call site.
func (l *Ledger) Sink() ssti.EventSink {
	return func(ev ssti.Event) {
		if ev.Kind != ssti.EventGenerateInner || ev.GenerateInner == nil {
			return
		}
		_ = l.Record(ev.GenerateInner.Payload, ev.GenerateInner.GenType, true)
	}
}

// Why returns a short list of human-readable lines explaining what the
// ledger has observed about genType: how many fragments were accepted vs
// rejected, and whether the type looks entirely blocked (every observed
// fragment for it was rejected).
func (l *Ledger) Why(genType ssti.GenType) []string {
	accepted := l.engine.QueryFacts("accepted_fragment", "", string(genType))
	rejected := l.engine.QueryFacts("rejected_fragment", "", string(genType))

	var lines []string
	lines = append(lines, fmt.Sprintf("%s: %d accepted, %d rejected fragment(s) observed",
		genType, len(accepted), len(rejected)))
	if len(accepted) == 0 && len(rejected) > 0 {
		lines = append(lines, fmt.Sprintf("%s appears fully blocked: every observed candidate was rejected", genType))
	}
	for _, f := range rejected {
		if len(f.Args) > 0 {
			lines = append(lines, fmt.Sprintf("rejected: %v", f.Args[0]))
		}
	}
	return lines
}

// Close releases the underlying engine.
func (l *Ledger) Close() error { return l.engine.Close() }

// ledgerFile is the on-disk shape Save writes and LoadLedger reads.
type ledgerFile struct {
	RunID string        `json:"run_id"`
	Facts []mangle.Fact `json:"facts"`
}

// Save persists the run ID and every recorded oracle_call fact as JSON to
// path (creating parent directories as needed), so a later CLI invocation's
// "fenjing explain" can load the prior run's ledger rather than requiring
// the explain query to share a process with the run that populated it.
func (l *Ledger) Save(path string) error {
	facts, err := l.engine.GetFacts("oracle_call")
	if err != nil {
		return fmt.Errorf("explain: save: %w", err)
	}
	data, err := json.MarshalIndent(ledgerFile{RunID: l.runID, Facts: facts}, "", "  ")
	if err != nil {
		return fmt.Errorf("explain: marshal facts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("explain: mkdir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadLedger reconstructs a Ledger from a JSON dump written by Save,
// keeping the saved run ID.
func LoadLedger(path string) (*Ledger, error) {
	l, err := NewLedger()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("explain: load: %w", err)
	}
	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		l.Close()
		return nil, fmt.Errorf("explain: unmarshal facts: %w", err)
	}
	if file.RunID != "" {
		l.runID = file.RunID
	}
	if err := l.engine.AddFacts(file.Facts); err != nil {
		l.Close()
		return nil, fmt.Errorf("explain: replay facts: %w", err)
	}
	return l, nil
}
