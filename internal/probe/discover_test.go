package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscoverFieldsReturnsNamedFieldsInDocumentOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<form method="post">
				<input type="text" name="name">
				<input type="hidden" name="csrf_token" value="x">
				<textarea name="bio"></textarea>
				<select name="role"><option>a</option></select>
				<input type="submit">
			</form>
			<form><input name="second_form_field"></form>
		</body></html>`))
	}))
	defer ts.Close()

	fields, err := DiscoverFields(context.Background(), nil, ts.URL)
	if err != nil {
		t.Fatalf("DiscoverFields: %v", err)
	}
	want := []string{"name", "csrf_token", "bio", "role"}
	if len(fields) != len(want) {
		t.Fatalf("expected %v, got %v", want, fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, fields)
		}
	}
}

func TestDiscoverFieldsNoFormIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer ts.Close()

	if _, err := DiscoverFields(context.Background(), nil, ts.URL); err == nil {
		t.Fatal("expected an error for a page with no form")
	}
}

func TestDiscoverFieldsUnreachableTargetIsError(t *testing.T) {
	if _, err := DiscoverFields(context.Background(), nil, "http://127.0.0.1:0/nope"); err == nil {
		t.Fatal("expected a transport error to surface")
	}
}
