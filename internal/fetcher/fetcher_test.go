package fetcher

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "judge_person_id=12345" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body><h3>Alice Smith</h3></body></html>`))
	}))
	defer server.Close()

	f := New(Config{
		BaseURL:     server.URL,
		JudgePath:   "/index/paradigm.mhtml?judge_person_id=",
		MaxAttempts: 3,
	}, nil)

	result, err := f.Fetch(t.Context(), "12345")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if result.Identifier != "12345" {
		t.Errorf("Identifier = %q, want %q", result.Identifier, "12345")
	}
	if result.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", result.Status)
	}
	if len(result.Body) == 0 {
		t.Error("Body should not be empty")
	}
	if result.FetchedAt.IsZero() {
		t.Error("FetchedAt should not be zero")
	}
}

func TestFetcher_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer server.Close()

	f := New(Config{BaseURL: server.URL, MaxAttempts: 3}, nil)

	result, err := f.Fetch(t.Context(), "1")
	if err != nil {
		t.Fatalf("Fetch() error = %v, want success on third attempt", err)
	}
	if result == nil {
		t.Fatal("expected a result after retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestFetcher_RetryBound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := New(Config{BaseURL: server.URL, MaxAttempts: 3}, nil)

	_, err := f.Fetch(t.Context(), "1")
	if err == nil {
		t.Fatal("Fetch() should fail after exhausting retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want exactly MaxAttempts=3", got)
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error should be *fetcher.Error, got %T", err)
	}
	if fe.Permanent {
		t.Error("exhausted 5xx retries should stay classified as transient")
	}
}

func TestFetcher_PermanentFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := New(Config{BaseURL: server.URL, MaxAttempts: 3}, nil)

	_, err := f.Fetch(t.Context(), "999")
	if err == nil {
		t.Fatal("Fetch() should fail on 404")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry on 4xx)", got)
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error should be *fetcher.Error, got %T", err)
	}
	if !fe.Permanent {
		t.Error("4xx should be classified as permanent")
	}
	if fe.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", fe.Status)
	}
}

func TestFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("slow"))
	}))
	defer server.Close()

	f := New(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond, MaxAttempts: 2}, nil)

	_, err := f.Fetch(t.Context(), "1")
	if err == nil {
		t.Fatal("Fetch() should fail on timeout")
	}
}

func TestDiscover_CollectsJudgeIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><table id="judgelist"><tbody>
			<tr><td><a href="/index/paradigm.mhtml?judge_person_id=42">Alice Smith</a></td></tr>
			<tr><td><a href="/index/paradigm.mhtml?judge_person_id=7">Bob Jones</a></td></tr>
			<tr><td><a href="/index/paradigm.mhtml?judge_person_id=42">Alice Smith (again)</a></td></tr>
			<tr><td><a href="/help.mhtml">Help</a></td></tr>
		</tbody></table></body></html>`))
	}))
	defer server.Close()

	ids, err := Discover(t.Context(), DiscoverConfig{Delay: 10 * time.Millisecond}, server.URL)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(ids) != 2 {
		t.Fatalf("got %d ids %v, want 2", len(ids), ids)
	}
	if ids[0] != "42" || ids[1] != "7" {
		t.Errorf("ids = %v, want [42 7]", ids)
	}
}
