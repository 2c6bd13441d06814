package app

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/moontrade/squares"
	"github.com/tidwall/match"
	"github.com/tidwall/redcon"
)

const (
	maxBatch = 1 << 16 // values per batched draw
	maxBytes = 1 << 20 // bytes per BYTES call
)

type command struct {
	kind byte // 's' system, 'r' read, 'w' write
	fn   func(m Machine, args []string) (interface{}, error)
}

func formatUint(x uint64) string {
	return strconv.FormatUint(x, 10)
}

// parseCount reads the optional trailing count at args[i]. batch is false
// when no count was given.
func parseCount(args []string, i int) (n int, batch bool, err error) {
	switch {
	case len(args) == i:
		return 1, false, nil
	case len(args) == i+1:
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return 0, false, errInvalidArg("count", args[i])
		}
		if n < 1 || n > maxBatch {
			return 0, false, errOutOfRange("count", maxBatch)
		}
		return n, true, nil
	default:
		return 0, false, ErrWrongNumArgs
	}
}

// draw calls fn n times and returns a single value or, for a batch, a list.
func draw(n int, batch bool, fn func() interface{}) interface{} {
	if !batch {
		return fn()
	}
	vals := make([]interface{}, n)
	for i := range vals {
		vals[i] = fn()
	}
	return vals
}

func parseBound(arg string, bitSize int) (uint64, error) {
	bound, err := strconv.ParseUint(arg, 10, bitSize)
	if err != nil {
		return 0, errInvalidArg("bound", arg)
	}
	if bound == 0 {
		return 0, errZeroBound
	}
	return bound, nil
}

// U32 [count]
// help: draws uint32 values; integer or array of integers
func cmdU32(m Machine, args []string) (interface{}, error) {
	n, batch, err := parseCount(args, 1)
	if err != nil {
		return nil, err
	}
	r := m.Rand()
	return draw(n, batch, func() interface{} {
		return redcon.SimpleInt(r.Uint32())
	}), nil
}

// U64 [count]
// help: draws uint64 values; decimal string or array of strings
func cmdU64(m Machine, args []string) (interface{}, error) {
	n, batch, err := parseCount(args, 1)
	if err != nil {
		return nil, err
	}
	r := m.Rand()
	return draw(n, batch, func() interface{} {
		return formatUint(r.Uint64())
	}), nil
}

// U32N bound [count]
// help: draws uint32 values in [0, bound). A rejected draw consumes an extra
//       counter step; integer or array of integers
func cmdU32N(m Machine, args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, ErrWrongNumArgs
	}
	bound, err := parseBound(args[1], 32)
	if err != nil {
		return nil, err
	}
	n, batch, err := parseCount(args, 2)
	if err != nil {
		return nil, err
	}
	r := m.Rand()
	return draw(n, batch, func() interface{} {
		return redcon.SimpleInt(r.Uint32n(uint32(bound)))
	}), nil
}

// U64N bound [count]
// help: draws uint64 values in [0, bound); decimal string or array of strings
func cmdU64N(m Machine, args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, ErrWrongNumArgs
	}
	bound, err := parseBound(args[1], 64)
	if err != nil {
		return nil, err
	}
	n, batch, err := parseCount(args, 2)
	if err != nil {
		return nil, err
	}
	r := m.Rand()
	return draw(n, batch, func() interface{} {
		return formatUint(r.Uint64n(bound))
	}), nil
}

// FULL32
// help: draws a uint32 along with the counter that produced it;
//       [counter, value]
func cmdFULL32(m Machine, args []string) (interface{}, error) {
	if len(args) != 1 {
		return nil, ErrWrongNumArgs
	}
	res := m.Rand().Full32()
	return []string{formatUint(res.Counter), formatUint(uint64(res.Value))}, nil
}

// FULL64
// help: draws a uint64 along with the counter that produced it;
//       [counter, value]
func cmdFULL64(m Machine, args []string) (interface{}, error) {
	if len(args) != 1 {
		return nil, ErrWrongNumArgs
	}
	res := m.Rand().Full64()
	return []string{formatUint(res.Counter), formatUint(res.Value)}, nil
}

// FLOAT [count]
// help: draws floats in [0, 1); string or array of strings
func cmdFLOAT(m Machine, args []string) (interface{}, error) {
	n, batch, err := parseCount(args, 1)
	if err != nil {
		return nil, err
	}
	r := m.Rand()
	return draw(n, batch, func() interface{} {
		return strconv.FormatFloat(r.Float64(), 'f', -1, 64)
	}), nil
}

// BYTES n
// help: returns n random bytes, one draw per eight bytes; bulk
func cmdBYTES(m Machine, args []string) (interface{}, error) {
	if len(args) != 2 {
		return nil, ErrWrongNumArgs
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, errInvalidArg("length", args[1])
	}
	if n < 1 || n > maxBytes {
		return nil, errOutOfRange("length", maxBytes)
	}
	p := make([]byte, n)
	m.Rand().Read(p)
	return p, nil
}

// SETCOUNTER counter
// help: replaces the counter; previous counter as a decimal string
func cmdSETCOUNTER(um Machine, args []string) (interface{}, error) {
	m := getBaseMachine(um)
	if m == nil {
		return nil, ErrInvalid
	}
	if len(args) != 2 {
		return nil, ErrWrongNumArgs
	}
	c, err := parseUint64(args[1])
	if err != nil {
		return nil, errInvalidArg("counter", args[1])
	}
	prev, err := m.setCounter(c)
	if err != nil {
		return nil, err
	}
	return formatUint(prev), nil
}

// COUNTER
// help: returns the counter the next draw will consume; decimal string
func cmdCOUNTER(m Machine, args []string) (interface{}, error) {
	if len(args) != 1 {
		return nil, ErrWrongNumArgs
	}
	return formatUint(m.Counter()), nil
}

// KEY
// help: returns the generator key; decimal string
func cmdKEY(m Machine, args []string) (interface{}, error) {
	if len(args) != 1 {
		return nil, ErrWrongNumArgs
	}
	return formatUint(m.Key()), nil
}

func parseMixArgs(m Machine, args []string) (counter, key uint64, err error) {
	if len(args) != 2 && len(args) != 3 {
		return 0, 0, ErrWrongNumArgs
	}
	if counter, err = parseUint64(args[1]); err != nil {
		return 0, 0, errInvalidArg("counter", args[1])
	}
	key = m.Key()
	if len(args) == 3 {
		if key, err = parseUint64(args[2]); err != nil {
			return 0, 0, errInvalidArg("key", args[2])
		}
	}
	return counter, key, nil
}

// MIX32 counter [key]
// help: runs the 32-bit mixing function without touching the generator;
//       integer
func cmdMIX32(m Machine, args []string) (interface{}, error) {
	counter, key, err := parseMixArgs(m, args)
	if err != nil {
		return nil, err
	}
	return redcon.SimpleInt(squares.Mix32(counter, key)), nil
}

// MIX64 counter [key]
// help: runs the 64-bit mixing function without touching the generator;
//       decimal string
func cmdMIX64(m Machine, args []string) (interface{}, error) {
	counter, key, err := parseMixArgs(m, args)
	if err != nil {
		return nil, err
	}
	return formatUint(squares.Mix64(counter, key)), nil
}

// SAVE
// help: writes a fresh lease of the generator state to disk now; OK
func cmdSAVE(um Machine, args []string) (interface{}, error) {
	m := getBaseMachine(um)
	if m == nil {
		return nil, ErrInvalid
	}
	if len(args) != 1 {
		return nil, ErrWrongNumArgs
	}
	if err := m.lease(); err != nil {
		return nil, err
	}
	return redcon.SimpleString("OK"), nil
}

// INFO [pattern]
// help: returns server and generator stats with keys matching pattern;
//       map[string]string
func cmdINFO(um Machine, args []string) (interface{}, error) {
	m := getBaseMachine(um)
	if m == nil {
		return nil, ErrInvalid
	}
	pattern := "*"
	switch len(args) {
	case 1:
	case 2:
		pattern = args[1]
	default:
		return nil, ErrWrongNumArgs
	}
	m.mu.Lock()
	saved, saves, lastSave := m.saved, m.saves, m.lastSave
	m.mu.Unlock()
	stats := map[string]string{
		"version":        m.vers,
		"key":            formatUint(m.Key()),
		"counter":        formatUint(m.Counter()),
		"uptime_seconds": strconv.FormatInt(int64(time.Since(m.created)/time.Second), 10),
		"persistence":    "off",
	}
	if m.dir != "" {
		stats["persistence"] = "on"
		stats["sync_delay"] = m.syncDelay.String()
		stats["saved_counter"] = formatUint(saved)
		stats["saves"] = formatUint(saves)
		if !lastSave.IsZero() {
			stats["last_save"] = lastSave.UTC().Format(time.RFC3339)
		}
	}
	stats["connections"] = strconv.FormatInt(atomic.LoadInt64(&m.conns), 10)
	stats["commands_processed"] = formatUint(atomic.LoadUint64(&m.processed))
	if m.mon != nil {
		stats["observers"] = strconv.Itoa(m.mon.count())
	}
	final := make(map[string]string)
	for key, value := range stats {
		if match.Match(key, pattern) {
			final[key] = value
		}
	}
	return final, nil
}

// COMMANDS [pattern]
// help: returns the sorted names of all commands matching pattern; array
func cmdCOMMANDS(um Machine, args []string) (interface{}, error) {
	m := getBaseMachine(um)
	if m == nil {
		return nil, ErrInvalid
	}
	pattern := "*"
	switch len(args) {
	case 1:
	case 2:
		pattern = strings.ToLower(args[1])
	default:
		return nil, ErrWrongNumArgs
	}
	names := make([]string, 0, len(m.commands))
	for name := range m.commands {
		if match.Match(name, pattern) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// VERSION
// help: returns the version line; string
func cmdVERSION(um Machine, args []string) (interface{}, error) {
	m := getBaseMachine(um)
	if m == nil {
		return nil, ErrInvalid
	}
	if len(args) != 1 {
		return nil, ErrWrongNumArgs
	}
	return m.vers, nil
}

// errWrap formats errors from commands the way they are written to clients.
func errWrap(name string, err error) error {
	if errors.Is(err, ErrUnknownCommand) {
		return fmt.Errorf("%w '%s'", err, name)
	}
	return err
}
