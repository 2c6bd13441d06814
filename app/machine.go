package app

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moontrade/squares"
	"github.com/moontrade/squares/logger"
)

// The Machine interface is passed to every command. It wraps the shared
// generator and various utilities.
//
// Rand is available to Write and Read commands, but a Read command must not
// draw from it. The Context is ONLY available for Intermediate commands.
type Machine interface {
	// Rand is the shared generator. Every draw advances the counter for all
	// clients.
	// Returns nil for Intermediate Commands.
	Rand() Rand
	// Counter returns the counter value the next draw will consume.
	Counter() uint64
	// Key returns the generator key.
	Key() uint64
	// Context returns the connection context that was defined in from the
	// Config.ConnOpened callback. Only available for Intermediate commands.
	// Returns nil for Read and Write Commands.
	Context() interface{}
}

// leaseSize is how far past the current counter the saved state reaches.
// The lease is renewed once less than half of it is left.
const leaseSize = 1 << 24

type machine struct {
	conns     int64  // (atomic) open connections
	processed uint64 // (atomic) commands processed
	leased    uint64 // (atomic) counter in the state file

	gen        *squares.Rand
	mon        *monitor
	connOpened func(addr string) (context interface{}, accept bool)
	connClosed func(context interface{}, addr string)
	dir        string             // data directory, empty when not persisting
	vers       string             // version line
	created    time.Time          // machine instance created timestamp
	commands   map[string]command // command table
	catchall   command            // catchall command
	syncDelay  time.Duration      // state sync interval

	mu       sync.Mutex // protect all things in group
	saved    uint64     // counter at last write, same as leased
	saves    uint64     // number of state writes
	lastSave time.Time  // time of last write
}

var _ Machine = &machine{}

func machineInit(conf Config, dir string, st *State) *machine {
	m := new(machine)
	m.dir = dir
	m.vers = versline(conf)
	m.created = time.Now()
	m.syncDelay = conf.SyncDelay
	counter := conf.Counter
	if st != nil {
		counter = st.Counter
	}
	m.gen = squares.NewWithCounter(counter, conf.Key)
	m.saved = counter
	m.leased = counter

	m.connOpened = conf.ConnOpened
	m.connClosed = conf.ConnClosed
	m.commands = map[string]command{
		"u32":        {'w', cmdU32},
		"u64":        {'w', cmdU64},
		"u32n":       {'w', cmdU32N},
		"u64n":       {'w', cmdU64N},
		"full32":     {'w', cmdFULL32},
		"full64":     {'w', cmdFULL64},
		"float":      {'w', cmdFLOAT},
		"bytes":      {'w', cmdBYTES},
		"setcounter": {'w', cmdSETCOUNTER},
		"counter":    {'r', cmdCOUNTER},
		"key":        {'r', cmdKEY},
		"mix32":      {'r', cmdMIX32},
		"mix64":      {'r', cmdMIX64},
		"save":       {'s', cmdSAVE},
		"info":       {'s', cmdINFO},
		"commands":   {'s', cmdCOMMANDS},
		"version":    {'s', cmdVERSION},
	}
	for k, v := range conf.cmds {
		if _, ok := m.commands[k]; !ok {
			m.commands[k] = v
		}
	}
	m.catchall = conf.catchall
	logger.Info("key", m.gen.Key(), "counter", counter, "generator ready")
	return m
}

func (m *machine) Rand() Rand {
	return m.gen
}

func (m *machine) Counter() uint64 {
	return m.gen.Counter()
}

func (m *machine) Key() uint64 {
	return m.gen.Key()
}

func (m *machine) Context() interface{} {
	return nil
}

// leaseEnd is counter+leaseSize, saturated at the last counter.
func leaseEnd(counter uint64) uint64 {
	if counter > math.MaxUint64-leaseSize {
		return math.MaxUint64
	}
	return counter + leaseSize
}

func (m *machine) leaseCovers(counter uint64) bool {
	leased := atomic.LoadUint64(&m.leased)
	if leased == math.MaxUint64 {
		return true
	}
	return counter <= leased && leased-counter >= leaseSize/2
}

// reserve makes sure the state file is ahead of the counter before a draw.
// A restart resumes from the file and never sees a counter twice.
func (m *machine) reserve() error {
	if m.dir == "" || m.leaseCovers(m.gen.Counter()) {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counter := m.gen.Counter()
	if m.leaseCovers(counter) {
		return nil
	}
	return m.writeLocked(leaseEnd(counter))
}

// lease writes a fresh lease from the current counter, even if the current
// one has room left.
func (m *machine) lease() error {
	if m.dir == "" {
		return ErrPersistenceDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(leaseEnd(m.gen.Counter()))
}

// setCounter leases from c before the generator moves there.
func (m *machine) setCounter(c uint64) (uint64, error) {
	if m.dir == "" {
		return m.gen.SetCounter(c), nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeLocked(leaseEnd(c)); err != nil {
		return 0, err
	}
	return m.gen.SetCounter(c), nil
}

// checkpoint writes the exact counter. Only for a server that no longer
// accepts commands.
func (m *machine) checkpoint() error {
	if m.dir == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(m.gen.Counter())
}

func (m *machine) writeLocked(counter uint64) error {
	if err := writeState(m.dir, State{Counter: counter, Key: m.gen.Key()}); err != nil {
		return err
	}
	atomic.StoreUint64(&m.leased, counter)
	m.saved = counter
	m.saves++
	m.lastSave = time.Now()
	return nil
}

// intermediateMachine wraps the machine in a connection context
type intermediateMachine struct {
	context interface{}
	m       *machine
}

var _ Machine = intermediateMachine{}

func (m intermediateMachine) Rand() Rand           { return nil }
func (m intermediateMachine) Counter() uint64      { return m.m.Counter() }
func (m intermediateMachine) Key() uint64          { return m.m.Key() }
func (m intermediateMachine) Context() interface{} { return m.context }

func getBaseMachine(m Machine) *machine {
	switch m := m.(type) {
	case intermediateMachine:
		return m.m
	case *machine:
		return m
	default:
		return nil
	}
}

// runSyncer is a background routine that renews the lease every sync
// delay, so that busy servers rarely wait on a write inside a command.
func runSyncer(m *machine, done <-chan struct{}) {
	if m.dir == "" {
		return
	}
	t := time.NewTicker(m.syncDelay)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := m.reserve(); err != nil {
				logger.Error(err, "state sync failed")
			}
		}
	}
}
