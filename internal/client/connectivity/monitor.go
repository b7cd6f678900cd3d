// Package connectivity tracks whether the remote side is reachable.
//
// The engine only consumes transitions from a Monitor. Something outside
// the engine feeds it; the terminal client uses Probe, which pings the
// gateway on an interval.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/logging"
)

type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	next   int
}

func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online, subs: map[int]chan bool{}}
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records the current state and reports whether it changed. Subscribers
// only hear about changes, and a slow subscriber sees the latest state.
func (m *Monitor) Set(online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return false
	}
	m.online = online
	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- online
		}
	}
	return true
}

// Subscribe returns a channel of state transitions and a cancel func.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Pinger reports whether the remote side answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe pings p right away and then every interval, feeding m, until ctx is
// done.
func Probe(ctx context.Context, m *Monitor, p Pinger, interval, timeout time.Duration, log logging.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("module", "connectivity")

	check := func() {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := p.Ping(pctx)
		cancel()

		if m.Set(err == nil) {
			if err != nil {
				log.Info(ctx, "switched to offline mode", "error", err)
			} else {
				log.Info(ctx, "switched to online mode")
			}
		}
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
