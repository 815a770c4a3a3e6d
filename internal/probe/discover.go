package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/html"

	"github.com/FunctFan/fenjing-go/internal/logging"
)

// DiscoverFields fetches targetURL and returns the name attributes of every
// input/textarea/select inside the page's first <form>, in document order.
// This is the no-browser counterpart to the rod-backed
// browser.HoneypotDetector.DiscoverFormFields: it sees only the server-sent
// HTML, so fields a script injects later are invisible to it, and it cannot
// tell honeypot fields apart (hidden fields are returned along with the
// rest), but it costs one GET instead of a Chrome launch. A nil
// client gets a short-timeout default.
func DiscoverFields(ctx context.Context, client *http.Client, targetURL string) ([]string, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("probe: build discovery request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe: fetch target form: %w", err)
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("probe: parse target page: %w", err)
	}

	form := findFirstElement(doc, "form")
	if form == nil {
		return nil, fmt.Errorf("probe: no <form> found at %s", targetURL)
	}

	var fields []string
	collectFieldNames(form, &fields)
	if len(fields) == 0 {
		return nil, fmt.Errorf("probe: form at %s has no named fields", targetURL)
	}
	logging.Get(logging.CategoryProbe).Info("discovered %d form field(s) at %s: %v", len(fields), targetURL, fields)
	return fields, nil
}

func findFirstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectFieldNames(n *html.Node, fields *[]string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "input", "textarea", "select":
			if name := getAttr(n, "name"); name != "" {
				*fields = append(*fields, name)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectFieldNames(c, fields)
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
