package logger

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// StdWriter is an io.Writer for the standard library "log" package. Lines
// may start with a bracketed level such as "[W]" or "[ERROR]" and end with
// key=value pairs, which become fields.
//
//	log.SetOutput(logger.StdWriter)
//	log.SetFlags(0)
var StdWriter = &stdWriter{}

type stdWriter struct{}

// stdCallerSkip is the caller depth of a log.Printf call site as seen from
// Write.
const stdCallerSkip = 4

// Write writes to the log
func (w *stdWriter) Write(p []byte) (int, error) {
	level, args := parseStdLine(string(p))
	DoCaller(level, stdCallerSkip, args...)
	return len(p), nil
}

func parseStdLine(line string) (zerolog.Level, []interface{}) {
	msg := strings.TrimSpace(line)
	level := zerolog.InfoLevel
	if idx := strings.IndexByte(msg, ']'); idx > 1 && msg[0] == '[' {
		switch msg[1] {
		case 'T', 'V': // trace, verbose
			level = zerolog.TraceLevel
		case 'D':
			level = zerolog.DebugLevel
		case 'W':
			level = zerolog.WarnLevel
		case 'E':
			level = zerolog.ErrorLevel
		}
		msg = strings.TrimSpace(msg[idx+1:])
	}

	// trailing key=value tokens are fields, the rest is the message
	tokens := strings.Fields(msg)
	end := len(tokens)
	for end > 0 {
		eq := strings.IndexByte(tokens[end-1], '=')
		if eq < 1 {
			break
		}
		end--
	}
	args := make([]interface{}, 0, (len(tokens)-end)*2+1)
	for _, tok := range tokens[end:] {
		eq := strings.IndexByte(tok, '=')
		value := tok[eq+1:]
		if uq, err := strconv.Unquote(value); err == nil {
			value = uq
		}
		args = append(args, tok[:eq], value)
	}
	// the message is the last arg, so a '%' would make it a format
	args = append(args, strings.ReplaceAll(strings.Join(tokens[:end], " "), "%", "%%"))
	return level, args
}
