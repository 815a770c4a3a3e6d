package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FunctFan/fenjing-go/internal/browser"
	"github.com/FunctFan/fenjing-go/internal/logging"
	"github.com/FunctFan/fenjing-go/internal/mangle"
)

// defaultCorpus is the small set of syntactically-loaded probes used to
// locate which form field is the template-injection sink: each exercises a
// construct the rule set (ssti package) depends on somewhere downstream, so
// a field rejecting all of them is almost certainly not the sink.
func defaultCorpus() []string {
	return []string{
		"{{7*7}}",
		"{%print(1)%}",
		".",
		"|",
		"_",
		"'",
		`"`,
		"{{",
		"%}",
	}
}

// Fuzzer derives a usable ssti.Oracle from a live target by submitting the
// probe corpus against each candidate field and picking the field whose
// responses diverge most from a harmless baseline, the signature of a
// field that is actually being parsed as template source rather than
// echoed or ignored outright.
type Fuzzer struct {
	Client      *http.Client
	URL         string
	Method      string
	Timeout     time.Duration
	Concurrency int
	Corpus      []string
}

// NewFuzzer builds a Fuzzer that POSTs the default corpus through a client
// with the given timeout. A zero timeout defaults to 10s and a zero
// concurrency to 4.
func NewFuzzer(targetURL string, timeout time.Duration, concurrency int) *Fuzzer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Fuzzer{
		Client:      &http.Client{Timeout: timeout},
		URL:         targetURL,
		Method:      http.MethodPost,
		Timeout:     timeout,
		Concurrency: concurrency,
		Corpus:      defaultCorpus(),
	}
}

// fieldScore is the number of corpus probes that diverged from the baseline
// when submitted through one candidate field.
type fieldScore struct {
	field string
	score int
	err   error
}

// DeriveOracle probes every candidate field concurrently, bounded by
// f.Concurrency (unlike rule search, field scoring has no ordering
// requirement), and returns an HTTPOracle bound to whichever field scored
// highest,
// along with that field's name. ctx cancellation stops outstanding probes;
// an error is returned only if every candidate field failed outright (its
// baseline submission could not be made), since a low-but-nonzero score is
// still a usable (if weak) signal. A probe that fails in transport counts as
// diverged, not as a failure.
func (f *Fuzzer) DeriveOracle(ctx context.Context, candidateFields []string) (string, *HTTPOracle, error) {
	if len(candidateFields) == 0 {
		return "", nil, fmt.Errorf("probe: no candidate fields given")
	}

	log := logging.Get(logging.CategoryProbe)
	results := make([]fieldScore, len(candidateFields))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.Concurrency)
	for i, field := range candidateFields {
		i, field := i, field
		g.Go(func() error {
			score, err := f.scoreField(gctx, field)
			results[i] = fieldScore{field: field, score: score, err: err}
			return nil // collect all scores; a single field's error shouldn't abort the others
		})
	}
	_ = g.Wait()

	best := -1
	var bestErr error
	for _, r := range results {
		log.Debug("fuzzer field=%q score=%d err=%v", r.field, r.score, r.err)
		if r.err != nil {
			bestErr = r.err
			continue
		}
		if r.score > best {
			best = r.score
		}
	}
	if best < 0 {
		return "", nil, fmt.Errorf("probe: all %d candidate field(s) failed, last error: %w", len(candidateFields), bestErr)
	}

	var winner string
	for _, r := range results {
		if r.err == nil && r.score == best {
			winner = r.field
			break
		}
	}

	oracle, err := NewHTTPOracle(ctx, f.Client, f.URL, f.Method, winner, nil, f.Timeout, "fenjing-baseline")
	if err != nil {
		return "", nil, fmt.Errorf("probe: build oracle for winning field %q: %w", winner, err)
	}
	log.Info("fuzzer selected field=%q score=%d/%d", winner, best, len(f.Corpus))
	return winner, oracle, nil
}

// scoreField submits every corpus probe through field against a fresh
// baseline and counts how many produced a response distinct from a
// harmless control value: the higher the count, the more likely field is
// actually parsed as template source.
func (f *Fuzzer) scoreField(ctx context.Context, field string) (int, error) {
	oracle, err := NewHTTPOracle(ctx, f.Client, f.URL, f.Method, field, nil, f.Timeout, "fenjing-baseline")
	if err != nil {
		return 0, err
	}
	score := 0
	for _, probe := range f.Corpus {
		if !oracle.Probe(ctx, probe) {
			// classify() treats "matches baseline shape" as accepted; a
			// probe that *diverges* from baseline is the interesting signal
			// here, so a false verdict (diverged) increments the score.
			score++
		}
	}
	return score, nil
}

// FilterHoneypotFields removes candidate field names that belong to
// decoy/trap inputs a scanner should never fill in: fields the honeypot
// detector (internal/browser) flagged as hidden via CSS, aria-hidden, or an
// off-screen or zero-size position, which real users (and the actual WAF
// target field) never are. It drops exactly the names listed in honeypotFieldNames;
// engine is not consulted.
func FilterHoneypotFields(engine *mangle.Engine, allFields []string, honeypotFieldNames []string) []string {
	honeypot := make(map[string]bool, len(honeypotFieldNames))
	for _, n := range honeypotFieldNames {
		honeypot[n] = true
	}
	out := make([]string, 0, len(allFields))
	for _, f := range allFields {
		if !honeypot[f] {
			out = append(out, f)
		}
	}
	return out
}

// DeriveOracleFromPage drives a headless browser to the target form, uses
// the honeypot detector to discover its fields and filter out decoys, then
// runs DeriveOracle over whatever survives. This is the browser-assisted
// alternative to a caller hand-listing candidateFields: it saves having to
// know the form's shape in advance, at the cost of needing a real browser
// session. mgr must already be started (mgr.Start) against the target URL,
// and engine must already have browser.BrowserSchemas() and
// browser.HoneypotRules() loaded.
func (f *Fuzzer) DeriveOracleFromPage(ctx context.Context, mgr *browser.Manager, engine *mangle.Engine) (string, *HTTPOracle, error) {
	page := mgr.Page()
	if page == nil {
		return "", nil, fmt.Errorf("probe: browser manager has no active page; call Start first")
	}

	detector := browser.NewHoneypotDetector(engine)
	fields, honeypots, err := detector.DiscoverFormFields(page)
	if err != nil {
		return "", nil, fmt.Errorf("probe: discover form fields: %w", err)
	}
	log := logging.Get(logging.CategoryProbe)
	log.Info("fuzzer discovered %d field(s), %d flagged as honeypots: %v", len(fields), len(honeypots), honeypots)

	candidates := FilterHoneypotFields(engine, fields, honeypots)
	return f.DeriveOracle(ctx, candidates)
}
