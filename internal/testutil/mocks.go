package testutil

import (
	"sync"
	"time"

	"github.com/imi6/dandan/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}

func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}

func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}

func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}

func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}

func (m *MockLogger) Close() {}

// CountByLevel returns how many entries were recorded at the given level.
func (m *MockLogger) CountByLevel(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.Logs {
		if e.Level == level {
			count++
		}
	}
	return count
}

// MockMetrics implements providers.MetricsProviderInterface and counts the
// domain observations tests care about.
type MockMetrics struct {
	mu            sync.Mutex
	Converted     map[string]int
	Dropped       map[string]int
	Uploads       int
	UploadedBytes int64
	RemoteCalls   map[string]int
	ActiveClients int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Converted:   make(map[string]int),
		Dropped:     make(map[string]int),
		RemoteCalls: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}

func (m *MockMetrics) AddCommentsConverted(format string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Converted[format] += count
}

func (m *MockMetrics) AddCommentsDropped(format string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dropped[format] += count
}

func (m *MockMetrics) IncUploads(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploads++
	m.UploadedBytes += bytes
}

func (m *MockMetrics) IncRemoteCalls(endpoint string, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoteCalls[endpoint+":"+outcome]++
}

func (m *MockMetrics) SetActiveClients(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActiveClients = count
}
