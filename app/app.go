package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/moontrade/squares/logger"
)

// Main entrypoint for the generator server. This should be called once and
// as the last call in the Go main() function. It returns after the server has
// been shut down by a signal or the SHUTDOWN command.
func Main(conf Config) {
	s, err := Start(conf)
	if err != nil {
		logger.Fatal(err, "startup")
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigc:
			logger.Notice("signal", sig.String(), "shutting down")
			if err := s.Close(); err != nil {
				logger.Error(err, "shutdown")
			}
		case <-s.Done():
		}
		signal.Stop(sigc)
	}()
	if err := s.Serve(); err != nil {
		logger.Fatal(err, "serve")
	}
}
