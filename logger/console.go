package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	colorRed     = 31
	colorGreen   = 32
	colorYellow  = 33
	colorMagenta = 35
	colorCyan    = 36

	colorBold = 1
)

// NoColor disables ANSI colors in the console writer.
var NoColor = false

type levelStyle struct {
	abbr  string
	color int
	bold  bool
}

var levelStyles = map[string]levelStyle{
	"trace":     {"TRC", colorMagenta, false},
	"default":   {"TRC", colorMagenta, false},
	"debug":     {"DBG", colorYellow, false},
	"info":      {"INF", colorGreen, false},
	"notice":    {"NOT", colorCyan, false},
	"warn":      {"WRN", colorRed, false},
	"error":     {"ERR", colorRed, true},
	"critical":  {"PNC", colorRed, true},
	"panic":     {"PNC", colorRed, true},
	"fatal":     {"FTL", colorRed, true},
	"emergency": {"FTL", colorRed, true},
}

// SetConsoleWriter switches the logger to human readable output on stderr.
func SetConsoleWriter() {
	SetConsoleWriterTo(os.Stderr)
}

// SetConsoleWriterTo switches the logger to human readable output on w.
func SetConsoleWriterTo(w io.Writer) {
	log = zerolog.New(zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
		cw.Out = w
		cw.NoColor = NoColor
		cw.FormatLevel = consoleFormatLevel(NoColor)
		cw.TimeFormat = "15:04:05.000"
	}))
}

// SetJsonWriter switches the logger to JSON lines on stderr.
func SetJsonWriter() {
	log = zerolog.New(os.Stderr)
}

// colorize returns the string s wrapped in ANSI code c, unless disabled is true.
func colorize(s interface{}, c int, disabled bool) string {
	if disabled {
		return fmt.Sprintf("%s", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}

func consoleFormatLevel(noColor bool) zerolog.Formatter {
	return func(i interface{}) string {
		ll, ok := i.(string)
		if !ok {
			if i == nil {
				return colorize("???", colorBold, noColor)
			}
			ll = fmt.Sprintf("%s", i)
		}
		style, ok := levelStyles[strings.ToLower(ll)]
		if !ok {
			return colorize("???", colorBold, noColor)
		}
		s := colorize(style.abbr, style.color, noColor)
		if style.bold {
			s = colorize(s, colorBold, noColor)
		}
		return s
	}
}
