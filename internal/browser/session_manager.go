// Package browser drives a headless Chrome instance to submit candidate
// template-injection fragments to a real form and read back the rendered
// response, for targets where a plain HTTP client can't get past
// JavaScript-rendered forms or CSRF tokens minted client-side.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Config holds browser session configuration.
type Config struct {
	DebuggerURL         string   `json:"debugger_url"`
	Launch              []string `json:"launch"`
	Headless            bool     `json:"headless"`
	NavigationTimeoutMs int      `json:"navigation_timeout_ms"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            true,
		NavigationTimeoutMs: 15000,
	}
}

func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Session tracks one open page used to repeatedly resubmit a form.
type Session struct {
	FormURL string
	Field   string
}

// Manager owns the browser connection and the single page used to probe a
// target form. Unlike a general-purpose automation harness, it only ever
// needs one page: every probe round-trip is submit-fragment, read-response.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewManager constructs a Manager. Start must be called before Submit.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Page returns the page Start navigated to, or nil if Start hasn't run yet.
// Callers that need lower-level DOM access (field discovery, honeypot
// detection) than Submit exposes go through this rather than duplicating
// Manager's own session bookkeeping.
func (m *Manager) Page() *rod.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// Start launches (or attaches to) a Chrome instance and navigates to url,
// the form-bearing page every subsequent Submit call will resubmit against.
func (m *Manager) Start(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		_ = m.browser.Close()
		m.browser = nil
		m.page = nil
	}

	controlURL, err := m.launch()
	if err != nil {
		return err
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	page = page.Timeout(m.cfg.NavigationTimeout())

	m.browser = browser
	m.page = page
	return nil
}

func (m *Manager) launch() (string, error) {
	if m.cfg.DebuggerURL != "" {
		return m.cfg.DebuggerURL, nil
	}

	l := launcher.New().Headless(m.cfg.Headless)
	if len(m.cfg.Launch) > 0 {
		l = l.Bin(m.cfg.Launch[0])
		for _, rawFlag := range m.cfg.Launch[1:] {
			name, val, hasVal := strings.Cut(strings.TrimLeft(rawFlag, "-"), "=")
			if hasVal {
				l = l.Set(flags.Flag(name), val)
			} else {
				l = l.Set(flags.Flag(name))
			}
		}
	}

	url, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launch chrome: %w", err)
	}
	return url, nil
}

// Submit fills the named form field with value, submits the form, and
// returns the response page's rendered text content. It assumes a single
// <form> on the page containing an input/textarea named field, matching the
// single-field forms these WAF-evasion challenges are typically built
// around.
func (m *Manager) Submit(field, value string) (string, error) {
	m.mu.Lock()
	page := m.page
	m.mu.Unlock()
	if page == nil {
		return "", fmt.Errorf("browser session not started")
	}

	selector := fmt.Sprintf(`[name="%s"]`, field)
	el, err := page.Element(selector)
	if err != nil {
		return "", fmt.Errorf("locate field %s: %w", field, err)
	}
	if err := el.SelectAllText(); err != nil {
		return "", err
	}
	if err := el.Input(value); err != nil {
		return "", fmt.Errorf("fill field %s: %w", field, err)
	}

	form, err := page.Element("form")
	if err != nil {
		return "", fmt.Errorf("locate form: %w", err)
	}
	if _, err := form.Eval(`() => this.submit()`); err != nil {
		return "", fmt.Errorf("submit form: %w", err)
	}
	page.MustWaitLoad()

	body, err := page.Element("body")
	if err != nil {
		return "", fmt.Errorf("locate body: %w", err)
	}
	text, err := body.Text()
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	return text, nil
}

// Shutdown closes the browser connection.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser == nil {
		return nil
	}
	err := m.browser.Close()
	m.browser = nil
	m.page = nil
	return err
}
