package app

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/moontrade/squares"
	"github.com/moontrade/squares/logger"
	"github.com/tidwall/redcon"
)

// Server is a running generator service. Create one with Start.
type Server struct {
	conf Config
	m    *machine
	svc  *service
	ln   net.Listener
	rs   *redcon.Server
	obs  Observer

	once sync.Once
	done chan struct{}
	err  error
}

// Start initializes logging, the persisted state and the listener. The
// returned server does not accept connections until Serve is called.
func Start(conf Config) (*Server, error) {
	if err := confInit(&conf); err != nil {
		return nil, err
	}
	if err := logInit(conf); err != nil {
		return nil, err
	}
	dir, st, err := dataDirInit(conf)
	if err != nil {
		return nil, err
	}
	tlscfg, err := tlsInit(conf)
	if err != nil {
		return nil, err
	}
	s := &Server{conf: conf, done: make(chan struct{})}
	s.m = machineInit(conf, dir, st)
	if err := s.m.reserve(); err != nil {
		return nil, err
	}
	s.svc = newService(s.m, conf.Auth, func() {
		logger.Notice("shutdown requested")
		if err := s.Close(); err != nil {
			logger.Error(err, "shutdown")
		}
	})
	if s.ln, err = serverInit(conf, tlscfg); err != nil {
		return nil, err
	}
	s.rs = newRedisServer(s.svc, s.ln.Addr().String())
	s.rs.AcceptError = func(err error) {
		select {
		case <-s.done:
			// the listener was closed by Close, stop the accept loop
			s.rs.Close()
		default:
			logger.Error(err, "accept")
		}
	}
	s.obs = s.svc.Monitor().NewObserver()
	go runCommandLogger(s.obs)
	go runSyncer(s.m, s.done)
	return s, nil
}

// Serve accepts client connections until the server is closed. Returns nil
// when the server was closed with Close or the SHUTDOWN command.
func (s *Server) Serve() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	err := s.rs.Serve(s.ln)
	select {
	case <-s.done:
		return nil
	default:
		return err
	}
}

// Close stops listening and writes the exact generator counter.
// It is safe to call more than once.
func (s *Server) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.ln.Close()
		s.obs.Stop()
		if err := s.m.checkpoint(); err != nil {
			s.err = err
			return
		}
		logger.Notice("counter", s.m.Counter(), "server closed")
	})
	return s.err
}

// Done is closed when the server has been closed.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Addr is the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Generator returns the shared generator.
func (s *Server) Generator() *squares.Rand {
	return s.m.gen
}

// Monitor returns the command monitor of the server.
func (s *Server) Monitor() Monitor {
	return s.svc.Monitor()
}

// dataDirInit prepares the data directory and reads the saved state.
// Returns an empty dir when persistence is disabled.
func dataDirInit(conf Config) (string, *State, error) {
	if conf.NoSync {
		return "", nil, nil
	}
	dir := conf.DataDir
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", nil, err
	}
	st, err := readState(dir)
	if err != nil {
		return "", nil, err
	}
	if st != nil && st.Key != conf.Key {
		logger.Warn("path", dir, "saved_key", st.Key, "key", conf.Key,
			"saved state belongs to another key, ignoring")
		st = nil
	}
	return dir, st, nil
}

func serverInit(conf Config, tlscfg *tls.Config) (net.Listener, error) {
	var ln net.Listener
	var err error
	if tlscfg != nil {
		ln, err = tls.Listen("tcp4", conf.Addr, tlscfg)
	} else {
		ln, err = net.Listen("tcp4", conf.Addr)
	}
	if err != nil {
		return nil, err
	}
	logger.Notice("server listening at %s", ln.Addr())
	if conf.ServerReady != nil {
		conf.ServerReady(ln.Addr().String(), conf.Auth, tlscfg)
	}
	return ln, nil
}

func parseTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	tlscfg := &tls.Config{
		Certificates: []tls.Certificate{pair},
	}
	for _, cert := range pair.Certificate {
		pcert, err := x509.ParseCertificate(cert)
		if err != nil {
			return nil, err
		}
		if len(pcert.DNSNames) > 0 {
			tlscfg.ServerName = pcert.DNSNames[0]
			break
		}
	}
	return tlscfg, nil
}

func tlsInit(conf Config) (*tls.Config, error) {
	if conf.TLSCertPath == "" || conf.TLSKeyPath == "" {
		return nil, nil
	}
	tlscfg, err := parseTLSConfig(conf.TLSCertPath, conf.TLSKeyPath)
	if err != nil {
		return nil, fmt.Errorf("tls: %w", err)
	}
	return tlscfg, nil
}
