package kurir

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordingInterceptor logs hook invocations and returns canned decisions.
type recordingInterceptor struct {
	name       string
	log        *[]string
	reqResult  RequestDecision
	reqErr     error
	respResult ResponseDecision
	respErr    error
}

func (r *recordingInterceptor) InterceptRequest(ctx context.Context, req *Request) (RequestDecision, error) {
	*r.log = append(*r.log, r.name+":req")
	if r.reqErr != nil {
		return RequestDecision{}, r.reqErr
	}
	if r.reqResult.Decision != Proceed || r.reqResult.CachedBody != nil {
		return r.reqResult, nil
	}
	return RequestDecision{Decision: Proceed, Request: req}, nil
}

func (r *recordingInterceptor) InterceptResponse(ctx context.Context, req *Request, status int, body []byte) (ResponseDecision, error) {
	*r.log = append(*r.log, r.name+":resp")
	if r.respErr != nil {
		return ResponseDecision{}, r.respErr
	}
	return r.respResult, nil
}

func newRecorder(name string, log *[]string) *recordingInterceptor {
	return &recordingInterceptor{name: name, log: log}
}

func TestChainRequestFoldOrder(t *testing.T) {
	var log []string
	chain := NewChain(newRecorder("a", &log), newRecorder("b", &log), newRecorder("c", &log))

	dec, err := chain.InterceptRequest(context.Background(), NewRequest("http://example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Decision != Proceed {
		t.Fatalf("decision = %v, want Proceed", dec.Decision)
	}

	want := []string{"a:req", "b:req", "c:req"}
	assertLog(t, log, want)
}

func TestChainResponseFoldSameOrder(t *testing.T) {
	var log []string
	chain := NewChain(newRecorder("a", &log), newRecorder("b", &log), newRecorder("c", &log))

	_, err := chain.InterceptResponse(context.Background(), NewRequest("http://example.com"), 200, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a:resp", "b:resp", "c:resp"}
	assertLog(t, log, want)
}

func TestChainRequestFoldThreadsTransformedRequest(t *testing.T) {
	chain := NewChain(
		headerInterceptor{"X-First", "1"},
		headerInterceptor{"X-Second", "2"},
	)

	dec, err := chain.InterceptRequest(context.Background(), NewRequest("http://example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Request.Headers["X-First"] != "1" || dec.Request.Headers["X-Second"] != "2" {
		t.Errorf("transformed headers not threaded through fold: %v", dec.Request.Headers)
	}
}

type headerInterceptor struct {
	key, value string
}

func (h headerInterceptor) InterceptRequest(ctx context.Context, req *Request) (RequestDecision, error) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	req.Headers[h.key] = h.value
	return RequestDecision{Decision: Proceed, Request: req}, nil
}

func (h headerInterceptor) InterceptResponse(ctx context.Context, req *Request, status int, body []byte) (ResponseDecision, error) {
	return ResponseDecision{Decision: Proceed}, nil
}

func TestChainShortCircuitAbortsRemainingHooks(t *testing.T) {
	var log []string
	cached := newRecorder("b", &log)
	cached.reqResult = RequestDecision{Decision: ServeCached, CachedBody: []byte("cached")}
	chain := NewChain(newRecorder("a", &log), cached, newRecorder("c", &log))

	dec, err := chain.InterceptRequest(context.Background(), NewRequest("http://example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Decision != ServeCached {
		t.Fatalf("decision = %v, want ServeCached", dec.Decision)
	}
	if string(dec.CachedBody) != "cached" {
		t.Errorf("cached body = %q", dec.CachedBody)
	}

	assertLog(t, log, []string{"a:req", "b:req"})
}

func TestChainHookErrorAbortsFold(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	failing := newRecorder("b", &log)
	failing.reqErr = boom
	chain := NewChain(newRecorder("a", &log), failing, newRecorder("c", &log))

	_, err := chain.InterceptRequest(context.Background(), NewRequest("http://example.com"))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	assertLog(t, log, []string{"a:req", "b:req"})
}

func TestChainResponseRetrySignalAbortsFold(t *testing.T) {
	var log []string
	retry := newRecorder("b", &log)
	retry.respResult = ResponseDecision{Decision: RetryRequest}
	chain := NewChain(newRecorder("a", &log), retry, newRecorder("c", &log))

	dec, err := chain.InterceptResponse(context.Background(), NewRequest("http://example.com"), 401, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Decision != RetryRequest {
		t.Fatalf("decision = %v, want RetryRequest", dec.Decision)
	}
	assertLog(t, log, []string{"a:resp", "b:resp"})
}

func TestChainUseVisibleToSubsequentTraversals(t *testing.T) {
	var log []string
	chain := NewChain(newRecorder("a", &log))

	if chain.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", chain.Len())
	}

	chain.Use(newRecorder("b", &log))
	if chain.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", chain.Len())
	}

	if _, err := chain.InterceptRequest(context.Background(), NewRequest("http://example.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLog(t, log, []string{"a:req", "b:req"})
}

func TestChainConcurrentUseAndTraversal(t *testing.T) {
	var log []string
	var logMu sync.Mutex
	chain := NewChain()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			chain.Use(&lockedRecorder{log: &log, mu: &logMu})
		}()
		go func() {
			defer wg.Done()
			_, _ = chain.InterceptRequest(context.Background(), NewRequest("http://example.com"))
		}()
	}
	wg.Wait()

	if chain.Len() != 50 {
		t.Errorf("Len() = %d, want 50", chain.Len())
	}
}

type lockedRecorder struct {
	log *[]string
	mu  *sync.Mutex
}

func (l *lockedRecorder) InterceptRequest(ctx context.Context, req *Request) (RequestDecision, error) {
	l.mu.Lock()
	*l.log = append(*l.log, "req")
	l.mu.Unlock()
	return RequestDecision{Decision: Proceed, Request: req}, nil
}

func (l *lockedRecorder) InterceptResponse(ctx context.Context, req *Request, status int, body []byte) (ResponseDecision, error) {
	return ResponseDecision{Decision: Proceed}, nil
}

func assertLog(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("log = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}
