package app

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/moontrade/squares/logger"
)

// An Observer holds a channel that delivers the messages for all commands
// processed by a Service.
type Observer interface {
	Stop()
	C() <-chan Message
	// Dropped returns the number of messages that were discarded because
	// the channel was full.
	Dropped() uint64
}

type observer struct {
	dropped uint64 // atomic
	mon     *monitor
	msgC    chan Message
}

func (o *observer) C() <-chan Message {
	return o.msgC
}

func (o *observer) Dropped() uint64 {
	return atomic.LoadUint64(&o.dropped)
}

func (o *observer) Stop() {
	o.mon.obMu.Lock()
	defer o.mon.obMu.Unlock()
	if _, ok := o.mon.obs[o]; ok {
		delete(o.mon.obs, o)
		close(o.msgC)
	}
}

// Monitor represents an interface for sending and consuming command
// messages that are processed by a Service.
type Monitor interface {
	// Send a message to observers
	Send(msg Message)
	// NewObserver returns a new Observer containing a channel that will send
	// the messages for every command processed by the service.
	// Stop the observer to release associated resources.
	NewObserver() Observer
}

type monitor struct {
	s    *service
	obMu sync.Mutex
	obs  map[*observer]struct{}
}

func newMonitor(s *service) *monitor {
	m := &monitor{s: s}
	m.obs = make(map[*observer]struct{})
	return m
}

// Send delivers msg to every observer. A slow observer never blocks the
// sender; its message is dropped instead.
func (m *monitor) Send(msg Message) {
	if len(msg.Args) > 0 && msg.Args[0] == "auth" {
		// never leak passwords
		return
	}

	m.obMu.Lock()
	defer m.obMu.Unlock()
	for o := range m.obs {
		select {
		case o.msgC <- msg:
		default:
			atomic.AddUint64(&o.dropped, 1)
		}
	}
}

func (m *monitor) NewObserver() Observer {
	o := new(observer)
	o.mon = m
	o.msgC = make(chan Message, 256)
	m.obMu.Lock()
	m.obs[o] = struct{}{}
	m.obMu.Unlock()
	return o
}

func (m *monitor) count() int {
	m.obMu.Lock()
	defer m.obMu.Unlock()
	return len(m.obs)
}

// runCommandLogger logs every observed command at trace level until the
// observer is stopped.
func runCommandLogger(o Observer) {
	for msg := range o.C() {
		if msg.Err != nil {
			logger.Debug(msg.Err, "addr", msg.Addr, "cmd", strings.Join(msg.Args, " "),
				"elapsed", msg.Elapsed, "command failed")
			continue
		}
		logger.Trace("addr", msg.Addr, "cmd", strings.Join(msg.Args, " "),
			"elapsed", msg.Elapsed, "command")
	}
}
