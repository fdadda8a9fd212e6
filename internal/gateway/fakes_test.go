package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"leadgen/internal/cache"
	"leadgen/internal/contactout"
	"leadgen/internal/ratelimit"
)

// fakeUpstream serves canned responses and counts calls per operation.
type fakeUpstream struct {
	mu           sync.Mutex
	calls        map[string]int
	searchParams []map[string]any
	statusCalls  []string

	employeesCompany string

	search     *contactout.SearchResponse
	decision   *contactout.SearchResponse
	enrich     *contactout.EnrichResponse
	company    *contactout.CompanyResponse
	verify     *contactout.VerifyResponse
	stats      *contactout.UsageStats
	status     map[string]*contactout.StatusResponse // profile URL + "|" + type
	bulkJob    *contactout.BulkJob
	bulkResult *contactout.BulkResult
	err        error
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{calls: map[string]int{}, status: map[string]*contactout.StatusResponse{}}
}

func (f *fakeUpstream) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeUpstream) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeUpstream) Search(_ context.Context, params map[string]any) (*contactout.SearchResponse, error) {
	if err := f.record("search"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.searchParams = append(f.searchParams, params)
	f.mu.Unlock()
	return f.search, nil
}

func (f *fakeUpstream) DecisionMakers(context.Context, string, bool) (*contactout.SearchResponse, error) {
	if err := f.record("decision"); err != nil {
		return nil, err
	}
	return f.decision, nil
}

func (f *fakeUpstream) CompanyEmployees(_ context.Context, company string) (*contactout.SearchResponse, error) {
	if err := f.record("employees"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.employeesCompany = company
	f.mu.Unlock()
	return f.decision, nil
}

func (f *fakeUpstream) EnrichLinkedIn(context.Context, string, bool) (*contactout.EnrichResponse, error) {
	if err := f.record("linkedin"); err != nil {
		return nil, err
	}
	return f.enrich, nil
}

func (f *fakeUpstream) EnrichEmail(context.Context, string, bool) (*contactout.EnrichResponse, error) {
	if err := f.record("email"); err != nil {
		return nil, err
	}
	return f.enrich, nil
}

func (f *fakeUpstream) EnrichDomains(context.Context, []string) (*contactout.CompanyResponse, error) {
	if err := f.record("company"); err != nil {
		return nil, err
	}
	return f.company, nil
}

func (f *fakeUpstream) VerifyEmail(context.Context, string) (*contactout.VerifyResponse, error) {
	if err := f.record("verify"); err != nil {
		return nil, err
	}
	return f.verify, nil
}

func (f *fakeUpstream) ContactStatus(_ context.Context, profileURL, contactType string) (*contactout.StatusResponse, error) {
	if err := f.record("status"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, profileURL+"|"+contactType)
	if r, ok := f.status[profileURL+"|"+contactType]; ok {
		return r, nil
	}
	return &contactout.StatusResponse{StatusCode: 200}, nil
}

func (f *fakeUpstream) Stats(context.Context, string) (*contactout.UsageStats, error) {
	if err := f.record("stats"); err != nil {
		return nil, err
	}
	return f.stats, nil
}

func (f *fakeUpstream) SubmitBulk(context.Context, []string, bool) (*contactout.BulkJob, error) {
	if err := f.record("bulk_submit"); err != nil {
		return nil, err
	}
	return f.bulkJob, nil
}

func (f *fakeUpstream) BulkStatus(context.Context, string) (*contactout.BulkResult, error) {
	if err := f.record("bulk_status"); err != nil {
		return nil, err
	}
	return f.bulkResult, nil
}

// recordingAdmitter admits everything except the classes listed in reject.
type recordingAdmitter struct {
	mu      sync.Mutex
	classes []ratelimit.Class
	reject  map[ratelimit.Class]bool
}

func (a *recordingAdmitter) Admit(_ context.Context, _ string, class ratelimit.Class) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.classes = append(a.classes, class)
	if a.reject[class] {
		return &ratelimit.ExceededError{Class: class, RetryAfter: 30 * time.Second}
	}
	return nil
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (m *memoryStore) GetWithContext(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryStore) SetWithContext(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func (m *memoryStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// decode builds an upstream response from its JSON form.
func decode[T any](t *testing.T, raw string) *T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode %T: %v", v, err)
	}
	return &v
}

type fixture struct {
	svc      *Service
	upstream *fakeUpstream
	store    *memoryStore
	admitter *recordingAdmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		upstream: newFakeUpstream(),
		store:    newMemoryStore(),
		admitter: &recordingAdmitter{reject: map[ratelimit.Class]bool{}},
	}
	f.svc = NewService(f.upstream, cache.New(f.store, nil), f.admitter, Options{QualityBatchSize: 5})
	return f
}
