package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	log zerolog.Logger

	DurationAsString  = true
	RawFieldName      = "raw"
	DataFieldName     = "data"
	DurationFieldName = "dur"
	ErrorsFieldName   = "errors"

	EmptyMessage = ""
)

// JSON tags a byte slice as being a JSON document
type JSON []byte

// Builder is an arg that writes its own fields to the event.
type Builder func(event *zerolog.Event)

func init() {
	setCallerFormatter()

	// Use GCP cloud logging naming
	zerolog.LevelFieldName = "severity"
	zerolog.LevelFieldMarshalFunc = func(l zerolog.Level) string {
		switch l {
		case zerolog.TraceLevel:
			return "DEFAULT"
		case zerolog.DebugLevel:
			return "DEBUG"
		case zerolog.InfoLevel:
			return "INFO"
		case zerolog.NoLevel:
			return "NOTICE"
		case zerolog.WarnLevel:
			return "WARN"
		case zerolog.ErrorLevel:
			return "ERROR"
		case zerolog.PanicLevel:
			return "CRITICAL"
		case zerolog.FatalLevel:
			return "EMERGENCY"
		default:
			return "DEFAULT"
		}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	SetConsoleWriter()
}

// Log returns the package logger.
func Log() *zerolog.Logger {
	return &log
}

func SetWriter(w io.Writer) {
	log = zerolog.New(w)
}

func SetLogger(logger zerolog.Logger) {
	log = logger
}

// SetLevel sets the global level from its command line name.
func SetLevel(level string) error {
	var l zerolog.Level
	switch strings.ToLower(level) {
	case "verbose", "verb", "trace":
		l = zerolog.TraceLevel
	case "debug":
		l = zerolog.DebugLevel
	case "notice", "info":
		l = zerolog.InfoLevel
	case "warning", "warn":
		l = zerolog.WarnLevel
	case "error":
		l = zerolog.ErrorLevel
	case "quiet", "silent":
		l = zerolog.Disabled
	default:
		return fmt.Errorf("invalid log level: %q", level)
	}
	zerolog.SetGlobalLevel(l)
	return nil
}

func setCallerFormatter() {
	_, file, _, _ := runtime.Caller(0)
	prefix := path.Dir(path.Dir(file))
	if len(prefix) > 0 && prefix[len(prefix)-1] != os.PathSeparator {
		prefix += "/"
	}
	zerolog.CallerMarshalFunc = func(file string, line int) string {
		if index := strings.Index(file, prefix); index > -1 {
			file = file[index+len(prefix):]
		}
		return fmt.Sprintf("%s:%d", file, line)
	}
}

func appendField(event *zerolog.Event, name string, value interface{}) {
	switch v := value.(type) {
	case string:
		event.Str(name, v)
	case []byte:
		event.Bytes(name, v)
	case int:
		event.Int(name, v)
	case int64:
		event.Int64(name, v)
	case uint32:
		event.Uint32(name, v)
	case uint64:
		event.Uint64(name, v)
	case float64:
		event.Float64(name, v)
	case bool:
		event.Bool(name, v)
	case time.Time:
		event.Time(name, v)
	case error:
		event.AnErr(name, v)
	case time.Duration:
		if DurationAsString {
			event.Str(name, v.String())
		} else {
			event.Dur(name, v)
		}
	case JSON:
		event.RawJSON(name, v)
	case json.Marshaler:
		b, err := v.MarshalJSON()
		if err != nil {
			event.AnErr(name, err)
		} else {
			event.RawJSON(name, b)
		}
	case Builder:
		v(event)
	default:
		event.Interface(name, v)
	}
}

// doLog turns args into fields on event and sends it.
//
// A leading error becomes the error field. A string containing a '%' is a
// format for the remaining args. Otherwise args are read as key/value
// pairs, and a trailing lone string is the message.
func doLog(skip int, event *zerolog.Event, args []interface{}) {
	if event == nil {
		return
	}
	event.Timestamp()
	event.Caller(skip)

	if len(args) > 0 {
		if err, ok := args[0].(error); ok {
			event.Err(err)
			args = args[1:]
		}
	}

	for i := 0; i < len(args); i++ {
		switch k := args[i].(type) {
		case nil:
		case string:
			if strings.IndexByte(k, '%') != -1 {
				event.Msgf(k, args[i+1:]...)
				return
			}
			if i+1 == len(args) {
				event.Msg(k)
				return
			}
			i++
			appendField(event, k, args[i])
		case []error:
			event.Errs(ErrorsFieldName, k)
		case time.Duration:
			appendField(event, DurationFieldName, k)
		case []byte:
			event.Bytes(RawFieldName, k)
		case JSON:
			event.RawJSON(DataFieldName, k)
		case Builder:
			k(event)
		default:
			appendField(event, DataFieldName, k)
		}
	}
	event.Msg(EmptyMessage)
}

// CustomLevel starts an event carrying level as its severity.
func CustomLevel(level string) *zerolog.Event {
	l := log.Level(zerolog.NoLevel)
	return l.Log().Str(zerolog.LevelFieldName, level)
}

// Do logs args at level.
func Do(level zerolog.Level, args ...interface{}) {
	doLog(2, log.WithLevel(level), args)
}

// DoCaller is like Do with an explicit caller depth.
func DoCaller(level zerolog.Level, skip int, args ...interface{}) {
	doLog(skip, log.WithLevel(level), args)
}

// Trace logs a message at level Trace on the standard logger.
func Trace(args ...interface{}) {
	doLog(2, log.Trace(), args)
}

// Debug logs a message at level Debug on the standard logger.
func Debug(args ...interface{}) {
	doLog(2, log.Debug(), args)
}

// Info logs a message at level Info on the standard logger.
func Info(args ...interface{}) {
	doLog(2, log.Info(), args)
}

// Notice logs a message with NOTICE severity on the standard logger.
func Notice(args ...interface{}) {
	doLog(2, CustomLevel("NOTICE"), args)
}

// Warn logs a message at level Warn on the standard logger.
func Warn(args ...interface{}) {
	doLog(2, log.Warn(), args)
}

// WarnErr logs err at level Warn on the standard logger.
func WarnErr(err error, args ...interface{}) {
	doLog(2, log.Warn().Err(err), args)
}

// Error logs a message at level Error on the standard logger.
func Error(err error, args ...interface{}) {
	doLog(2, log.Error().Err(err), args)
}

// Fatal logs a message at level Fatal on the standard logger then the
// process will exit with status set to 1.
func Fatal(err error, args ...interface{}) {
	doLog(2, log.Fatal().Err(err), args)
	// a disabled logger drops the event without exiting
	os.Exit(1)
}
