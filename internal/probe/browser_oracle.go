package probe

import (
	"context"
	"strings"

	"github.com/FunctFan/fenjing-go/internal/browser"
	"github.com/FunctFan/fenjing-go/internal/logging"
	"github.com/FunctFan/fenjing-go/internal/ssti"
)

// BrowserOracle derives a waf oracle from a headless-Chrome session rather
// than a raw HTTP client, for targets that render the form via client-side
// JS or mint a CSRF token the oracle must carry across submissions, cases
// a bare net/http POST can't reach.
type BrowserOracle struct {
	mgr          *browser.Manager
	field        string
	rejectMarker string
	baselineLen  int
}

// NewBrowserOracle starts a browser Manager against formURL and records a
// baseline response shape by submitting baselineValue, mirroring
// NewHTTPOracle's construction contract.
func NewBrowserOracle(ctx context.Context, cfg browser.Config, formURL, field, rejectMarker, baselineValue string) (*BrowserOracle, error) {
	mgr := browser.NewManager(cfg)
	if err := mgr.Start(ctx, formURL); err != nil {
		return nil, err
	}
	o := &BrowserOracle{mgr: mgr, field: field, rejectMarker: rejectMarker}

	text, err := mgr.Submit(field, baselineValue)
	if err != nil {
		_ = mgr.Shutdown()
		return nil, err
	}
	o.baselineLen = len(text)
	logging.Get(logging.CategoryProbe).Info("browser oracle baseline len=%d url=%s field=%s", len(text), formURL, field)
	return o, nil
}

// Oracle adapts o into the ssti.Oracle function type.
func (o *BrowserOracle) Oracle() ssti.Oracle {
	return func(fragment string) bool {
		text, err := o.mgr.Submit(o.field, fragment)
		if err != nil {
			logging.Get(logging.CategoryProbe).Warn("browser probe error fragment=%q: %v", fragment, err)
			return false
		}
		if o.rejectMarker != "" && strings.Contains(text, o.rejectMarker) {
			return false
		}
		diff := len(text) - o.baselineLen
		if diff < 0 {
			diff = -diff
		}
		accepted := diff <= 4
		logging.Get(logging.CategoryProbe).Debug("browser probe fragment=%q len=%d accepted=%v", fragment, len(text), accepted)
		return accepted
	}
}

// Close shuts down the underlying browser session.
func (o *BrowserOracle) Close() error { return o.mgr.Shutdown() }
