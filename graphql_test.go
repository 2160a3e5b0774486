package tirta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func graphqlServer(t *testing.T, hits *atomic.Int64, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func itemsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"data":{"items":[{"id":"1"},{"id":"2"}]}}`)
}

var itemsOp = Operation{OperationName: "Items", Query: `query Items { items { id } }`}

func TestGraphQLClientQueryDecodesData(t *testing.T) {
	srv := graphqlServer(t, nil, itemsHandler)
	c := NewGraphQLClient(srv.URL)

	var out struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := c.Query(context.Background(), itemsOp, &out); err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(out.Items) != 2 || out.Items[0].ID != "1" {
		t.Errorf("unexpected decode result: %+v", out)
	}
}

func TestGraphQLClientCachesResponses(t *testing.T) {
	var hits atomic.Int64
	srv := graphqlServer(t, &hits, itemsHandler)
	c := NewGraphQLClient(srv.URL)

	for i := 0; i < 3; i++ {
		if err := c.Query(context.Background(), itemsOp, nil); err != nil {
			t.Fatalf("Query() error: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1 (cache must answer repeats)", hits.Load())
	}
	if c.Cache().Len() != 1 {
		t.Errorf("cache entries = %d, want 1", c.Cache().Len())
	}
}

func TestGraphQLClientExtractRestore(t *testing.T) {
	srv := graphqlServer(t, nil, itemsHandler)
	c := NewGraphQLClient(srv.URL)
	if err := c.Query(context.Background(), itemsOp, nil); err != nil {
		t.Fatalf("Query() error: %v", err)
	}

	snap := c.Extract()
	if len(snap) != 1 {
		t.Fatalf("Extract() entries = %d, want 1", len(snap))
	}

	// A hydrated client must answer the same query without any upstream.
	hydrated := NewGraphQLClient("http://127.0.0.1:1/unreachable")
	hydrated.Restore(snap)
	var out struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := hydrated.Query(context.Background(), itemsOp, &out); err != nil {
		t.Fatalf("hydrated Query() error: %v", err)
	}
	if len(out.Items) != 2 {
		t.Errorf("hydrated decode mismatch: %+v", out)
	}
}

func TestGraphQLClientRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int64
	srv := graphqlServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		if hits.Load() < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		itemsHandler(w, r)
	})
	c := NewGraphQLClient(srv.URL, WithMaxRetries(3), WithBackoff(time.Millisecond, 5*time.Millisecond))

	if err := c.Query(context.Background(), itemsOp, nil); err != nil {
		t.Fatalf("Query() error after retries: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("upstream hits = %d, want 3", hits.Load())
	}
}

func TestGraphQLClientDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	srv := graphqlServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	c := NewGraphQLClient(srv.URL, WithMaxRetries(5), WithBackoff(time.Millisecond, 5*time.Millisecond))

	err := c.Query(context.Background(), itemsOp, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1 (4xx must not retry)", hits.Load())
	}
	if !errors.Is(err, &Error{Type: ErrorTypeTransport}) {
		t.Errorf("expected a transport error, got %v", err)
	}
}

func TestGraphQLClientErrorsEnvelope(t *testing.T) {
	srv := graphqlServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"errors":[{"message":"denied"},{"message":"again"}]}`)
	})
	c := NewGraphQLClient(srv.URL)

	err := c.Query(context.Background(), itemsOp, nil)
	if !errors.Is(err, &Error{Type: ErrorTypeGraphQL}) {
		t.Fatalf("expected a GraphQL error, got %v", err)
	}
	if c.Cache().Len() != 0 {
		t.Error("failed operations must not be cached")
	}
}

func TestGraphQLClientEmptyQuery(t *testing.T) {
	c := NewGraphQLClient("http://example.invalid")
	if err := c.Query(context.Background(), Operation{}, nil); !IsConfig(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestGraphQLClientDeduplicatesConcurrentQueries(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	srv := graphqlServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		<-release
		itemsHandler(w, r)
	})
	c := NewGraphQLClient(srv.URL)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Query(context.Background(), itemsOp, nil)
		}(i)
	}
	// Let the callers pile up behind the in-flight fetch, then release it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Query %d error: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1 (concurrent identical queries must coalesce)", hits.Load())
	}
}

func TestGraphQLClientCircuitBreakerOpens(t *testing.T) {
	srv := graphqlServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := NewGraphQLClient(srv.URL,
		WithMaxRetries(0),
		WithCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Hour, SuccessThreshold: 1}),
	)

	// Distinct operations so the cache and dedup layers stay out of the way.
	for i := 0; i < 2; i++ {
		op := Operation{Query: fmt.Sprintf("query Q%d { x }", i)}
		if err := c.Query(context.Background(), op, nil); err == nil {
			t.Fatal("expected upstream failure")
		}
	}

	err := c.Query(context.Background(), Operation{Query: "query Q9 { x }"}, nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen after threshold failures, got %v", err)
	}
}

func TestGraphQLClientRateLimit(t *testing.T) {
	srv := graphqlServer(t, nil, itemsHandler)
	c := NewGraphQLClient(srv.URL, WithRateLimit(1, time.Hour))

	if err := c.Query(context.Background(), Operation{Query: "query A { x }"}, nil); err != nil {
		t.Fatalf("first Query() error: %v", err)
	}
	err := c.Query(context.Background(), Operation{Query: "query B { y }"}, nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestGraphQLConstructorSeedsAndForwardsCredentials(t *testing.T) {
	var gotCookie, gotAuth string
	srv := graphqlServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotAuth = r.Header.Get("Authorization")
		itemsHandler(w, r)
	})

	ctor := GraphQLConstructor(srv.URL)
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Cookie", "session=abc")
	req.Header.Set("Authorization", "Bearer tok")
	rc := NewRequestContext(httptest.NewRecorder(), req)

	seed := Snapshot{"Seed:1": json.RawMessage(`1`)}
	client, err := ctor(seed, rc)
	if err != nil {
		t.Fatalf("constructor error: %v", err)
	}
	gql := client.(*GraphQLClient)
	if _, ok := gql.Cache().Lookup("Seed:1"); !ok {
		t.Error("initial snapshot must seed the cache")
	}

	if err := gql.Query(context.Background(), itemsOp, nil); err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if gotCookie != "session=abc" || gotAuth != "Bearer tok" {
		t.Errorf("credentials not forwarded: cookie=%q auth=%q", gotCookie, gotAuth)
	}
}

func TestOperationCacheKey(t *testing.T) {
	a := Operation{Query: "query A { x }"}
	b := Operation{Query: "query A { x }", Variables: map[string]any{"id": 1}}
	if a.CacheKey() == b.CacheKey() {
		t.Error("different variables must produce different keys")
	}
	if a.CacheKey() != (Operation{Query: "query A { x }"}).CacheKey() {
		t.Error("identical operations must produce identical keys")
	}
	if (Operation{Key: "custom", Query: "q"}).CacheKey() != "custom" {
		t.Error("explicit Key must override the derived key")
	}
}
