package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FunctFan/fenjing-go/internal/logging"
	"github.com/FunctFan/fenjing-go/internal/ssti"
)

// HTTPOracle turns a single-field HTML form into an ssti.Oracle by POSTing
// each candidate fragment as the form's field value and classifying the
// response against a baseline captured once at construction time.
//
// Classification is deliberately simple and application-agnostic: a
// fragment is accepted if the response's status code and body length match
// the baseline's to within a small tolerance, and (when configured) the
// response does not contain a literal WAF-rejection marker string. A real
// WAF typically either returns a distinct error page (different length) or
// a distinct status (403/500) for a blocked fragment, while an accepted
// fragment renders into the same page shape the baseline used.
type HTTPOracle struct {
	Client       *http.Client
	URL          string
	Method       string
	Field        string
	ExtraFields  map[string]string
	RejectMarker string
	LengthSlack  int

	baselineStatus int
	baselineLen    int
}

// NewHTTPOracle constructs an HTTPOracle and immediately submits baselineValue
// (a value the target is certain to accept, e.g. "fenjing-baseline") to
// record the accepted-response shape every later probe is compared against.
func NewHTTPOracle(ctx context.Context, client *http.Client, targetURL, method, field string, extra map[string]string, timeout time.Duration, baselineValue string) (*HTTPOracle, error) {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	o := &HTTPOracle{
		Client:      client,
		URL:         targetURL,
		Method:      strings.ToUpper(method),
		Field:       field,
		ExtraFields: extra,
		LengthSlack: 4,
	}
	if o.Method == "" {
		o.Method = http.MethodPost
	}

	status, body, err := o.submit(ctx, baselineValue)
	if err != nil {
		return nil, fmt.Errorf("probe: baseline submission: %w", err)
	}
	o.baselineStatus = status
	o.baselineLen = len(body)
	logging.Get(logging.CategoryProbe).Info("http oracle baseline status=%d len=%d url=%s field=%s",
		status, len(body), targetURL, field)
	return o, nil
}

// Oracle adapts o into the ssti.Oracle function type the engine consumes.
// A transport error is reported as rejection of that fragment, never as an
// engine-visible failure.
func (o *HTTPOracle) Oracle() ssti.Oracle {
	return func(fragment string) bool {
		return o.Probe(context.Background(), fragment)
	}
}

// Probe submits fragment and reports whether the response looks like the
// baseline accepted-response shape.
func (o *HTTPOracle) Probe(ctx context.Context, fragment string) bool {
	status, body, err := o.submit(ctx, fragment)
	if err != nil {
		logging.Get(logging.CategoryProbe).Warn("probe transport error fragment=%q: %v", fragment, err)
		return false
	}
	accepted := o.classify(status, body)
	logging.Get(logging.CategoryProbe).Debug("probe fragment=%q status=%d len=%d accepted=%v",
		fragment, status, len(body), accepted)
	return accepted
}

func (o *HTTPOracle) classify(status int, body string) bool {
	if o.RejectMarker != "" && strings.Contains(body, o.RejectMarker) {
		return false
	}
	if status != o.baselineStatus {
		return false
	}
	diff := len(body) - o.baselineLen
	if diff < 0 {
		diff = -diff
	}
	return diff <= o.LengthSlack
}

func (o *HTTPOracle) submit(ctx context.Context, value string) (int, string, error) {
	form := url.Values{}
	form.Set(o.Field, value)
	for _, k := range sortedKeys(o.ExtraFields) {
		form.Set(k, o.ExtraFields[k])
	}

	var req *http.Request
	var err error
	if o.Method == http.MethodGet {
		u, perr := url.Parse(o.URL)
		if perr != nil {
			return 0, "", perr
		}
		u.RawQuery = form.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, o.Method, o.URL, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return 0, "", err
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, string(body), nil
}
