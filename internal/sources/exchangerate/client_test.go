package exchangerate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkoziy/countryrates/internal/ratelimit"
	"github.com/mkoziy/countryrates/internal/sources"
)

func TestFetchRates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","rates":{"USD":1,"NGN":1600.23,"BAD":"n/a","ZERO":0}}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second, ratelimit.Unlimited{})
	resp, err := client.FetchRates(context.Background())
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if resp.Failed() {
		t.Fatalf("expected success result")
	}
	if rate, ok := resp.Rates.Lookup("NGN"); !ok || rate != 1600.23 {
		t.Fatalf("unexpected NGN rate: %v %v", rate, ok)
	}
	if _, ok := resp.Rates.Lookup("BAD"); ok {
		t.Fatalf("expected non-numeric rate to be dropped")
	}
	if _, ok := resp.Rates.Lookup("ZERO"); ok {
		t.Fatalf("expected zero rate to be unusable")
	}
	if _, ok := resp.Rates.Lookup(""); ok {
		t.Fatalf("expected empty code to miss")
	}
}

func TestErrorResponseDecodes(t *testing.T) {
	var resp Response
	if err := json.Unmarshal([]byte(`{"result":"error","error-type":"unsupported-code"}`), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Failed() {
		t.Fatalf("expected failed result")
	}
	if resp.Rates != nil {
		t.Fatalf("expected nil rate table")
	}
}

func TestFetchRatesUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second, ratelimit.Unlimited{})
	if _, err := client.FetchRates(context.Background()); !sources.IsUnavailable(err) {
		t.Fatalf("expected undecodable body to surface as unavailable, got %v", err)
	}
}

func TestFetchRatesNonObjectRates(t *testing.T) {
	for _, body := range []string{
		`{"result":"success","rates":[1,2,3]}`,
		`{"result":"success","rates":"unavailable"}`,
		`{"result":"success","rates":null}`,
	} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		client := NewClient(ts.URL, time.Second, ratelimit.Unlimited{})
		resp, err := client.FetchRates(context.Background())
		ts.Close()
		if err != nil {
			t.Fatalf("%s: expected decode to succeed, got %v", body, err)
		}
		if resp.Rates != nil {
			t.Fatalf("%s: expected nil rate table, got %v", body, resp.Rates)
		}
	}
}
