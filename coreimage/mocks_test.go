package coreimage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockContentFetcher is a mock implementation of ContentFetcher
type MockContentFetcher struct {
	mock.Mock
}

func (m *MockContentFetcher) LastModified(ctx context.Context, url string) (time.Time, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockContentFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockFailureSink is a mock implementation of FailureSink
type MockFailureSink struct {
	mock.Mock
}

func (m *MockFailureSink) OnManifestUpdateFailure(message string) {
	m.Called(message)
}

// MockManifestRepository is a mock implementation of ManifestRepository
type MockManifestRepository struct {
	mock.Mock
}

func (m *MockManifestRepository) Save(ctx context.Context, snapshot *ManifestSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockManifestRepository) GetAll(ctx context.Context) ([]*ManifestSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ManifestSnapshot), args.Error(1)
}

func (m *MockManifestRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockFailureRepository is a mock implementation of FailureRepository
type MockFailureRepository struct {
	mock.Mock
}

func (m *MockFailureRepository) Save(ctx context.Context, event *FailureEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockFailureRepository) GetAll(ctx context.Context) ([]*FailureEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*FailureEvent), args.Error(1)
}

// stubFetcher serves a fixed modification time and checksum bodies. It is
// safe for the concurrent use BuildManifest makes of it.
type stubFetcher struct {
	mu       sync.Mutex
	modified time.Time
	sums     map[string]string
	fail     map[string]error
	delay    map[string]time.Duration
	gate     chan struct{}
	calls    int
	waiting  int
}

func newStubFetcher(modified time.Time, sums map[string]string) *stubFetcher {
	return &stubFetcher{
		modified: modified,
		sums:     sums,
		fail:     make(map[string]error),
		delay:    make(map[string]time.Duration),
	}
}

func (f *stubFetcher) LastModified(ctx context.Context, url string) (time.Time, error) {
	f.mu.Lock()
	gate, delay := f.gate, f.delay[url]
	f.mu.Unlock()

	if gate != nil {
		f.mu.Lock()
		f.waiting++
		f.mu.Unlock()

		select {
		case <-gate:
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail[url]; err != nil {
		return time.Time{}, err
	}
	return f.modified, nil
}

func (f *stubFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	body, ok := f.sums[url]
	if !ok {
		return nil, fmt.Errorf("404 Not Found: %s", url)
	}
	return []byte(body), nil
}

func (f *stubFetcher) setModified(t time.Time) {
	f.mu.Lock()
	f.modified = t
	f.mu.Unlock()
}

func (f *stubFetcher) setFailure(url string, err error) {
	f.mu.Lock()
	if err == nil {
		delete(f.fail, url)
	} else {
		f.fail[url] = err
	}
	f.mu.Unlock()
}

func (f *stubFetcher) setGate(gate chan struct{}) {
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
}

// waitingCount is the number of LastModified calls that reached the gate
func (f *stubFetcher) waitingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// scenarioTable is the two-entry table used across the host tests
func scenarioTable() Table {
	return Table{
		"img-a.xz": {
			URLPrefix:    "http://x/",
			Aliases:      []string{"a"},
			OS:           "Ubuntu",
			Release:      "r-a",
			ReleaseTitle: "A",
		},
		"img-b.xz": {
			URLPrefix:    "http://x/",
			Aliases:      []string{"b"},
			OS:           "Ubuntu",
			Release:      "r-b",
			ReleaseTitle: "B",
		},
	}
}

var jan1 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func scenarioFetcher() *stubFetcher {
	return newStubFetcher(jan1, map[string]string{
		"http://x/SHA256SUMS": "h1 img-a.xz\nh2 img-b.xz",
	})
}
