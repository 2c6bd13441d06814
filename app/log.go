package app

import (
	stdlog "log"

	"github.com/moontrade/squares/logger"
)

func logInit(conf Config) error {
	if conf.LogJSON {
		logger.SetWriter(conf.LogOutput)
	} else {
		logger.SetConsoleWriterTo(conf.LogOutput)
	}
	if err := logger.SetLevel(conf.LogLevel); err != nil {
		return err
	}
	// route the standard library logger through ours
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger.StdWriter)
	logger.Notice("starting %s", versline(conf))
	return nil
}
