package app

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"
)

// Receiver ...
type Receiver interface {
	Recv() (interface{}, time.Duration, error)
}

// SendOptions ...
type SendOptions struct {
	Context interface{}
	From    interface{}
}

var defSendOpts = &SendOptions{}

// A Message represents a command and is in a format that is consumed by
// an Observer.
type Message struct {
	// Args are the original command arguments.
	Args []string
	// Resp is the command reponse, if not an error.
	Resp interface{}
	// Err is the command error, if not successful.
	Err error
	// Elapsed is the amount of time that the command took to process.
	Elapsed time.Duration
	// Addr is the remote TCP address of the connection that generated
	// this message.
	Addr string
}

// Service is a client facing service.
type Service interface {
	// Send a command with args from a client
	Send(args []string, opts *SendOptions) Receiver
	// Auth authorizes a client
	Auth(auth string) error
	// Monitor returns a service monitor for observing client commands.
	Monitor() Monitor
	// Opened
	Opened(addr string) (context interface{}, accept bool)
	// Closed
	Closed(context interface{}, addr string)
	// Shutdown saves the generator state and stops the server.
	Shutdown()
}

type service struct {
	m        *machine
	auth     string
	mon      *monitor
	shutdown func()
}

func newService(m *machine, auth string, shutdown func()) *service {
	s := &service{m: m, auth: auth, shutdown: shutdown}
	s.mon = newMonitor(s)
	m.mon = s.mon
	return s
}

// Monitor allows for observing all incoming service commands from all clients.
func (s *service) Monitor() Monitor {
	return s.mon
}

func (s *service) Auth(auth string) error {
	if s.auth != auth {
		return ErrUnauthorized
	}
	return nil
}

func (s *service) Shutdown() {
	if s.shutdown != nil {
		s.shutdown()
	}
}

// The Send function sends command args to the service and returns a
// receiver for getting the response.
// There are three type of commands: write, read, and system.
//   - Write commands draw from the shared generator and advance its counter.
//   - Read commands inspect the generator without drawing.
//   - System commands run independently from the generator and are primarily
//     used for server operations such as saving state and stats.
func (s *service) Send(args []string, opts *SendOptions) Receiver {
	if len(args) == 0 {
		// Empty command gets an empty response
		return Response(nil, 0, nil)
	}
	atomic.AddUint64(&s.m.processed, 1)
	cmdName := strings.ToLower(args[0])
	cmd, ok := s.m.commands[cmdName]
	if !ok {
		if s.m.catchall.kind == 0 {
			return Response(nil, 0, ErrUnknownCommand)
		}
		cmd = s.m.catchall
	}
	if opts == nil {
		// Use the default send options when the sender does not tell us what
		// they want.
		opts = defSendOpts
	}
	start := time.Now()
	switch cmd.kind {
	case 'w':
		if err := s.m.reserve(); err != nil {
			return Response(nil, time.Since(start), err)
		}
		resp, err := cmd.fn(s.m, args)
		return Response(resp, time.Since(start), err)
	case 'r':
		resp, err := cmd.fn(s.m, args)
		return Response(resp, time.Since(start), err)
	case 's': // intermediate/system
		pm := intermediateMachine{m: s.m, context: opts.Context}
		resp, err := cmd.fn(pm, args)
		return Response(resp, time.Since(start), err)
	default:
		return Response(nil, 0, errors.New("invalid request"))
	}
}

func (s *service) Opened(addr string) (context interface{}, accept bool) {
	context, accept = nil, true
	if s.m.connOpened != nil {
		context, accept = s.m.connOpened(addr)
	}
	if accept {
		atomic.AddInt64(&s.m.conns, 1)
	}
	return context, accept
}

func (s *service) Closed(context interface{}, addr string) {
	atomic.AddInt64(&s.m.conns, -1)
	if s.m.connClosed != nil {
		s.m.connClosed(context, addr)
	}
}

type simpleResponse struct {
	v    interface{}
	elap time.Duration
	err  error
}

func (r *simpleResponse) Recv() (interface{}, time.Duration, error) {
	return r.v, r.elap, r.err
}

// Response ...
func Response(v interface{}, elapsed time.Duration, err error) Receiver {
	return &simpleResponse{v, elapsed, err}
}
