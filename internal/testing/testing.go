// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/rsx/internal/models"
)

// MockExecutor is a test double for the server's query executor.
//
// Rows are looked up by request; Err, when set, is returned for every call.
type MockExecutor struct {
	Rows  map[models.Request]models.ResultSet
	Err   error
	Delay time.Duration

	mu          sync.Mutex
	calls       []models.Request
	inFlight    int
	maxInFlight int
}

func (m *MockExecutor) FindAvailability(ctx context.Context, req models.Request) (models.ResultSet, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.inFlight++
	m.maxInFlight = max(m.maxInFlight, m.inFlight)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	if rows, ok := m.Rows[req]; ok {
		return rows, nil
	}
	return models.EmptyResultSet(), nil
}

// Calls returns the requests the executor has received.
func (m *MockExecutor) Calls() []models.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Request(nil), m.calls...)
}

// MaxInFlight returns the highest number of concurrent calls observed.
func (m *MockExecutor) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// PanicExecutor panics on every call.
type PanicExecutor struct{}

func (PanicExecutor) FindAvailability(ctx context.Context, req models.Request) (models.ResultSet, error) {
	panic("executor exploded")
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// CountingConn wraps a [net.Conn] and counts Close calls.
type CountingConn struct {
	net.Conn
	closes atomic.Int32
}

func NewCountingConn(c net.Conn) *CountingConn {
	return &CountingConn{Conn: c}
}

func (c *CountingConn) Close() error {
	c.closes.Add(1)
	return c.Conn.Close()
}

// Closes returns how many times Close was called.
func (c *CountingConn) Closes() int {
	return int(c.closes.Load())
}

// FailingWriteConn is a [net.Conn] whose writes always fail.
type FailingWriteConn struct {
	net.Conn
}

func (c *FailingWriteConn) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
