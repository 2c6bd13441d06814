package app

import (
	"strings"

	"github.com/tidwall/redcon"
)

type redisClient struct {
	authorized bool
	opts       SendOptions
}

func redisCommandToArgs(cmd redcon.Command) []string {
	args := make([]string, len(cmd.Args))
	args[0] = strings.ToLower(string(cmd.Args[0]))
	for i := 1; i < len(cmd.Args); i++ {
		args[i] = string(cmd.Args[i])
	}
	return args
}

type redisQuitClose struct{}

type redisShutdown struct{}

func redisServiceExecArgs(s Service, client *redisClient, conn redcon.Conn,
	args [][]string,
) {
	recvs := make([]Receiver, len(args))
	var close bool
	for i, args := range args {
		var r Receiver
		switch args[0] {
		case "quit":
			r = Response(redisQuitClose{}, 0, nil)
			close = true
		case "auth":
			if len(args) != 2 {
				r = Response(nil, 0, ErrWrongNumArgs)
			} else if err := s.Auth(args[1]); err != nil {
				client.authorized = false
				r = Response(nil, 0, err)
			} else {
				client.authorized = true
				r = Response(redcon.SimpleString("OK"), 0, nil)
			}
		default:
			if !client.authorized {
				if err := s.Auth(""); err != nil {
					client.authorized = false
					r = Response(nil, 0, err)
				} else {
					client.authorized = true
				}
			}
			if client.authorized {
				switch args[0] {
				case "ping":
					if len(args) == 1 {
						r = Response(redcon.SimpleString("PONG"), 0, nil)
					} else if len(args) == 2 {
						r = Response(args[1], 0, nil)
					} else {
						r = Response(nil, 0, ErrWrongNumArgs)
					}
				case "shutdown":
					r = Response(redisShutdown{}, 0, nil)
					close = true
				case "echo":
					if len(args) != 2 {
						r = Response(nil, 0, ErrWrongNumArgs)
					} else {
						r = Response(args[1], 0, nil)
					}
				default:
					r = s.Send(args, &client.opts)
				}
			}
		}
		recvs[i] = r
		if close {
			break
		}
	}
	// receive responses
	for i, r := range recvs {
		if r == nil {
			break
		}
		resp, elapsed, err := r.Recv()
		if err != nil {
			conn.WriteError("ERR " + errWrap(args[i][0], err).Error())
		} else {
			switch v := resp.(type) {
			case redisQuitClose:
				conn.WriteString("OK")
				conn.Close()
			case redisShutdown:
				conn.WriteString("OK")
				conn.Close()
				go s.Shutdown()
			default:
				conn.WriteAny(v)
			}
		}
		// broadcast the request and response to all observers
		s.Monitor().Send(Message{
			Addr:    conn.RemoteAddr(),
			Args:    args[i],
			Resp:    resp,
			Err:     err,
			Elapsed: elapsed,
		})
	}
}

// newRedisServer returns a RESP server that dispatches to s. Run it with
// Serve on a listener.
func newRedisServer(s Service, addr string) *redcon.Server {
	return redcon.NewServerNetwork("tcp4", addr,
		// handle commands
		func(conn redcon.Conn, cmd redcon.Command) {
			client := conn.Context().(*redisClient)
			var args [][]string
			args = append(args, redisCommandToArgs(cmd))
			for _, cmd := range conn.ReadPipeline() {
				args = append(args, redisCommandToArgs(cmd))
			}
			redisServiceExecArgs(s, client, conn, args)
		},
		// handle opened connection
		func(conn redcon.Conn) bool {
			context, accept := s.Opened(conn.RemoteAddr())
			if !accept {
				return false
			}
			client := new(redisClient)
			client.opts.From = client
			client.opts.Context = context
			conn.SetContext(client)
			return true
		},
		// handle closed connection
		func(conn redcon.Conn, err error) {
			if conn.Context() == nil {
				return
			}
			client := conn.Context().(*redisClient)
			s.Closed(client.opts.Context, conn.RemoteAddr())
		},
	)
}
