package app

import (
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moontrade/squares"
	"github.com/tidwall/gjson"
)

func versline(conf Config) string {
	sha := ""
	if conf.GitSHA != "" {
		sha = " (" + conf.GitSHA + ")"
	}
	return fmt.Sprintf("%s version %s%s", conf.Name, conf.Version, sha)
}

const usage = `{{NAME}} version: {{VERSION}} ({{GITSHA}})

Usage: {{NAME}} [-a addr] [-k key] [options]

Basic options:
  -v               : display version
  -h               : display help, this screen
  -a addr          : bind to address  (default: 127.0.0.1:11301)
  -d dir           : data directory  (default: data)
  -l level         : log level  (default: info) [debug,verb,info,warn,silent]
  -k key           : generator key, decimal or 0x prefixed hex
                     (default: 0x548c9decbce65297)
  -c counter       : starting counter when no state has been saved yet
                     (default: 0)
  --config path    : read options from a JSON file. Flags given on the
                     command line, and fields set on Config by the
                     program, take precedence over the file.

Security options:
  --tls-cert path  : path to TLS certificate
  --tls-key path   : path to TLS private key
  --auth auth      : client authorization, required by AUTH

Persistence options:
  --nosync         : never write the generator state to disk. A restart will
                     replay the stream from the configured counter.
  --sync-delay dur : how often the counter is written to disk when it has
                     moved  (default: 1s)

Logging options:
  --json-log       : write logs as JSON lines instead of console text
`

// Config is the configuration for managing the behavior of the server.
// This must be filled out prior and then passed to Main or Start.
type Config struct {
	cmds     map[string]command // appended by Add*Command
	catchall command            // set by AddCatchallCommand

	// Name gives the server a name. Default "squaresd"
	Name string

	// Version of the server. Default "0.0.0"
	Version string

	// GitSHA of the server.
	GitSHA string

	// Flag is used to manage the startup flags.
	Flag struct {
		// Custom tells Start to not parse the startup flags. When set it is
		// up to the caller to fill out the config. A ConfigPath file only
		// fills the fields that were left at their zero value.
		Custom bool
		// Usage is an optional function that allows for altering the usage
		// message.
		Usage func(usage string) string
		// PreParse is an optional function that allows for adding command
		// line flags before the flags are parsed.
		PreParse func()
		// PostParse is an optional function that fires after flags are
		// parsed.
		PostParse func()
	}

	// ServerReady is an optional callback function that fires when the server
	// socket is listening and is ready to accept incoming connections.
	ServerReady func(addr, auth string, tlscfg *tls.Config)

	// ConnOpened is an optional callback function that fires when a new
	// network connection was opened. You can accept or deny the connection,
	// and optionally provide a client-specific context that sticks around
	// until the connection is closed with ConnClosed.
	ConnOpened func(addr string) (context interface{}, accept bool)

	// ConnClosed is an optional callback function that fires when a network
	// connection has been closed.
	ConnClosed func(context interface{}, addr string)

	Key         uint64        // default squares.Key, zero means default
	Counter     uint64        // default 0
	Addr        string        // default "127.0.0.1:11301"
	DataDir     string        // default "data"
	ConfigPath  string        // default ""
	LogOutput   io.Writer     // default os.Stderr
	LogLevel    string        // default "info"
	LogJSON     bool          // default false
	SyncDelay   time.Duration // default 1s
	NoSync      bool          // default false
	Auth        string        // default ""
	TLSCertPath string        // default ""
	TLSKeyPath  string        // default ""
}

func (conf *Config) def() {
	if conf.Addr == "" {
		conf.Addr = "127.0.0.1:11301"
	}
	if conf.Version == "" {
		conf.Version = "0.0.0"
	}
	if conf.Name == "" {
		conf.Name = "squaresd"
	}
	if conf.Key == 0 {
		conf.Key = squares.Key
	}
	if conf.DataDir == "" {
		conf.DataDir = "data"
	}
	if conf.LogLevel == "" {
		conf.LogLevel = "info"
	}
	if conf.LogOutput == nil {
		conf.LogOutput = os.Stderr
	}
	if conf.SyncDelay <= 0 {
		conf.SyncDelay = time.Second
	}
}

func confInit(conf *Config) error {
	set := conf.fieldsSet()
	conf.def()
	if conf.Flag.Custom {
		if conf.ConfigPath != "" {
			if err := loadConfigFile(conf, conf.ConfigPath, set); err != nil {
				return err
			}
		}
		return confCheck(conf)
	}
	flag.Usage = func() {
		w := os.Stderr
		for _, arg := range os.Args {
			if arg == "-h" || arg == "--help" {
				w = os.Stdout
				break
			}
		}
		s := usage
		s = strings.Replace(s, "{{VERSION}}", conf.Version, -1)
		if conf.GitSHA == "" {
			s = strings.Replace(s, " ({{GITSHA}})", "", -1)
			s = strings.Replace(s, "{{GITSHA}}", "", -1)
		} else {
			s = strings.Replace(s, "{{GITSHA}}", conf.GitSHA, -1)
		}
		s = strings.Replace(s, "{{NAME}}", conf.Name, -1)
		if conf.Flag.Usage != nil {
			s = conf.Flag.Usage(s)
		}
		w.Write([]byte(s))
		if w == os.Stdout {
			os.Exit(0)
		}
	}
	var vers bool
	var key, counter string
	flag.BoolVar(&vers, "v", false, "")
	flag.StringVar(&conf.Addr, "a", conf.Addr, "")
	flag.StringVar(&conf.DataDir, "d", conf.DataDir, "")
	flag.StringVar(&conf.LogLevel, "l", conf.LogLevel, "")
	flag.StringVar(&key, "k", "", "")
	flag.StringVar(&counter, "c", "", "")
	flag.StringVar(&conf.ConfigPath, "config", conf.ConfigPath, "")
	flag.BoolVar(&conf.LogJSON, "json-log", conf.LogJSON, "")
	flag.DurationVar(&conf.SyncDelay, "sync-delay", conf.SyncDelay, "")
	flag.BoolVar(&conf.NoSync, "nosync", conf.NoSync, "")
	flag.StringVar(&conf.Auth, "auth", conf.Auth, "")
	flag.StringVar(&conf.TLSCertPath, "tls-cert", conf.TLSCertPath, "")
	flag.StringVar(&conf.TLSKeyPath, "tls-key", conf.TLSKeyPath, "")
	if conf.Flag.PreParse != nil {
		conf.Flag.PreParse()
	}
	flag.Parse()
	if vers {
		fmt.Printf("%s\n", versline(*conf))
		os.Exit(0)
	}
	var err error
	if key != "" {
		if conf.Key, err = parseUint64(key); err != nil {
			return fmt.Errorf("invalid -k: %w", err)
		}
	}
	if counter != "" {
		if conf.Counter, err = parseUint64(counter); err != nil {
			return fmt.Errorf("invalid -c: %w", err)
		}
	}
	if conf.ConfigPath != "" {
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := loadConfigFile(conf, conf.ConfigPath, set); err != nil {
			return err
		}
	}
	if conf.Flag.PostParse != nil {
		conf.Flag.PostParse()
	}
	return confCheck(conf)
}

func confCheck(conf *Config) error {
	if conf.TLSCertPath != "" && conf.TLSKeyPath == "" {
		return errors.New("flag --tls-key cannot be empty when --tls-cert is provided")
	} else if conf.TLSCertPath == "" && conf.TLSKeyPath != "" {
		return errors.New("flag --tls-cert cannot be empty when --tls-key is provided")
	}
	if conf.Key == 0 {
		return fmt.Errorf("key: %w, must not be zero", ErrInvalid)
	}
	return nil
}

// fieldsSet returns the flag names of the fields the caller filled in, so
// that a config file never overrides them. Zero values count as unset.
func (conf *Config) fieldsSet() map[string]bool {
	set := make(map[string]bool)
	for name, ok := range map[string]bool{
		"a":          conf.Addr != "",
		"d":          conf.DataDir != "",
		"l":          conf.LogLevel != "",
		"json-log":   conf.LogJSON,
		"k":          conf.Key != 0,
		"c":          conf.Counter != 0,
		"auth":       conf.Auth != "",
		"sync-delay": conf.SyncDelay != 0,
		"nosync":     conf.NoSync,
		"tls-cert":   conf.TLSCertPath != "",
		"tls-key":    conf.TLSKeyPath != "",
	} {
		if ok {
			set[name] = true
		}
	}
	return set
}

// parseUint64 accepts decimal and 0x prefixed hex.
func parseUint64(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// configFileKeys maps JSON config file keys to the flag that overrides them.
var configFileKeys = []struct {
	path  string
	flag  string
	apply func(conf *Config, v gjson.Result) error
}{
	{"addr", "a", func(conf *Config, v gjson.Result) error {
		conf.Addr = v.String()
		return nil
	}},
	{"data_dir", "d", func(conf *Config, v gjson.Result) error {
		conf.DataDir = v.String()
		return nil
	}},
	{"log_level", "l", func(conf *Config, v gjson.Result) error {
		conf.LogLevel = v.String()
		return nil
	}},
	{"json_log", "json-log", func(conf *Config, v gjson.Result) error {
		conf.LogJSON = v.Bool()
		return nil
	}},
	{"key", "k", func(conf *Config, v gjson.Result) (err error) {
		conf.Key, err = parseUint64(v.String())
		return err
	}},
	{"counter", "c", func(conf *Config, v gjson.Result) (err error) {
		conf.Counter, err = parseUint64(v.String())
		return err
	}},
	{"auth", "auth", func(conf *Config, v gjson.Result) error {
		conf.Auth = v.String()
		return nil
	}},
	{"sync_delay", "sync-delay", func(conf *Config, v gjson.Result) (err error) {
		conf.SyncDelay, err = time.ParseDuration(v.String())
		return err
	}},
	{"nosync", "nosync", func(conf *Config, v gjson.Result) error {
		conf.NoSync = v.Bool()
		return nil
	}},
	{"tls_cert", "tls-cert", func(conf *Config, v gjson.Result) error {
		conf.TLSCertPath = v.String()
		return nil
	}},
	{"tls_key", "tls-key", func(conf *Config, v gjson.Result) error {
		conf.TLSKeyPath = v.String()
		return nil
	}},
}

// loadConfigFile applies the JSON file at path to conf, skipping keys whose
// flag is in set.
func loadConfigFile(conf *Config, path string, set map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("config %s: %w", path, ErrCorrupt)
	}
	doc := gjson.ParseBytes(data)
	for _, k := range configFileKeys {
		v := doc.Get(k.path)
		if !v.Exists() || set[k.flag] {
			continue
		}
		if err := k.apply(conf, v); err != nil {
			return fmt.Errorf("config %s: %s: %w", path, k.path, err)
		}
	}
	return nil
}

func (conf *Config) addCommand(kind byte, name string,
	fn func(m Machine, args []string) (interface{}, error),
) {
	name = strings.ToLower(name)
	if conf.cmds == nil {
		conf.cmds = make(map[string]command)
	}
	conf.cmds[name] = command{kind, fn}
}

// AddCatchallCommand adds a command that will execute for any input that
// was not previously defined.
func (conf *Config) AddCatchallCommand(
	fn func(m Machine, args []string) (interface{}, error),
) {
	conf.catchall = command{'s', fn}
}

// AddIntermediateCommand adds a command that is for performing client and
// system specific operations. It does not receive a Rand.
func (conf *Config) AddIntermediateCommand(name string,
	fn func(m Machine, args []string) (interface{}, error),
) {
	conf.addCommand('s', name, fn)
}

// AddReadCommand adds a command that inspects the generator without drawing
// from it.
func (conf *Config) AddReadCommand(name string,
	fn func(m Machine, args []string) (interface{}, error),
) {
	conf.addCommand('r', name, fn)
}

// AddWriteCommand adds a command that draws from the generator.
func (conf *Config) AddWriteCommand(name string,
	fn func(m Machine, args []string) (interface{}, error),
) {
	conf.addCommand('w', name, fn)
}
