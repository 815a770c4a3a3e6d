package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newVulnerableFormServer simulates a form with two fields: "name" (a plain
// echo field, never parsed) and "bio" (the actual SSTI sink, which rejects
// any corpus probe containing "{{", "%}", "_" or "'").
func newVulnerableFormServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		name := r.FormValue("name")
		bio := r.FormValue("bio")

		// "name" is never parsed: every submission gets the same
		// fixed-shape response regardless of content, so it should never
		// look like the injection sink.
		if name != "" {
			w.Write([]byte("submitted"))
			return
		}

		// "bio" rejects a realistic subset of the probe corpus and
		// otherwise responds with a fixed acceptance page (not an echo,
		// so response shape depends only on accept/reject, not on the
		// submitted value's length).
		for _, bad := range []string{"{{", "%}", "_", "'"} {
			if contains(bio, bad) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("blocked"))
				return
			}
		}
		w.Write([]byte("accepted"))
	}))
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestFuzzerDeriveOraclePrefersDivergentField(t *testing.T) {
	ts := newVulnerableFormServer()
	defer ts.Close()

	f := NewFuzzer(ts.URL, 5*time.Second, 2)
	field, oracle, err := f.DeriveOracle(context.Background(), []string{"name", "bio"})
	if err != nil {
		t.Fatalf("DeriveOracle: %v", err)
	}
	if field != "bio" {
		t.Fatalf("expected fuzzer to select the field with divergent responses (bio), got %q", field)
	}
	if oracle == nil {
		t.Fatalf("expected a non-nil oracle for the winning field")
	}
}

func TestFuzzerDeriveOracleNoCandidates(t *testing.T) {
	f := NewFuzzer("http://example.invalid", time.Second, 1)
	if _, _, err := f.DeriveOracle(context.Background(), nil); err == nil {
		t.Fatalf("expected error when no candidate fields are given")
	}
}
