// Package keyqueue runs jobs serially per key and concurrently across keys.
//
// Typical usage:
//
//	q := keyqueue.NewManager(func(msg string) {
//	    log.Println("JOB:", msg)
//	})
//	defer q.Close()
//
//	_ = q.Submit(guildID, func(ctx context.Context) error {
//	    // jobs of the same key never overlap and run in submission order
//	    return nil
//	})
//
// Each key gets a goroutine while it has pending jobs; it exits once the
// queue drains. Close cancels the shared context, drops jobs that have not
// started and waits for running ones.
package keyqueue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("keyqueue: closed")

// Job is a unit of work. ctx is cancelled when the manager closes.
type Job func(ctx context.Context) error

// StatusReporter receives lifecycle events for jobs that did not succeed.
// Example messages:
//
//	error:g1:missing access
//	panic:g1:runtime error: index out of range
//	dropped:g1:3
type StatusReporter func(string)

type queue struct {
	jobs []Job
}

// Manager owns the per-key queues. It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	queues   map[string]*queue
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	Reporter StatusReporter
}

// NewManager creates a Manager. The reporter callback may be nil.
func NewManager(reporter StatusReporter) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		queues:   make(map[string]*queue),
		ctx:      ctx,
		cancel:   cancel,
		Reporter: reporter,
	}
}

// Submit enqueues job behind every job already queued under key.
func (m *Manager) Submit(key string, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	q, ok := m.queues[key]
	if ok {
		q.jobs = append(q.jobs, job)
		return nil
	}

	q = &queue{jobs: []Job{job}}
	m.queues[key] = q
	m.wg.Add(1)
	go m.drain(key, q)
	return nil
}

func (m *Manager) drain(key string, q *queue) {
	defer m.wg.Done()

	for {
		m.mu.Lock()
		if len(q.jobs) == 0 {
			delete(m.queues, key)
			m.mu.Unlock()
			return
		}
		if m.ctx.Err() != nil {
			m.report(fmt.Sprintf("dropped:%s:%d", key, len(q.jobs)))
			delete(m.queues, key)
			m.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		m.mu.Unlock()

		m.run(key, job)
	}
}

func (m *Manager) run(key string, job Job) {
	defer func() {
		if r := recover(); r != nil {
			m.report(fmt.Sprintf("panic:%s:%v", key, r))
		}
	}()

	if err := job(m.ctx); err != nil {
		m.report("error:" + key + ":" + err.Error())
	}
}

// Close stops accepting jobs, cancels running ones and waits for them.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// List returns the keys with pending or running jobs.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.queues))
	for k := range m.queues {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status returns a human-readable summary of busy keys.
//
//	"Busy keys: g1, g2"
//
// If none are busy: "No jobs are queued."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are queued."
	}
	return fmt.Sprintf("Busy keys: %s", strings.Join(active, ", "))
}

// report delivers lifecycle messages to the reporter if present.
func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
