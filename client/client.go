// Package client talks to a squaresd server over the Redis protocol.
package client

import (
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/moontrade/squares"
)

// Dial opens a single connection and authorizes it when auth is not empty.
func Dial(addr, auth string, tlscfg *tls.Config) (redis.Conn, error) {
	var conn redis.Conn
	var err error
	if tlscfg != nil {
		conn, err = redis.Dial("tcp", addr,
			redis.DialUseTLS(true), redis.DialTLSConfig(tlscfg))
	} else {
		conn, err = redis.Dial("tcp", addr)
	}
	if err != nil {
		return nil, err
	}
	if auth != "" {
		res, err := redis.String(conn.Do("auth", auth))
		if err != nil {
			conn.Close()
			return nil, err
		}
		if res != "OK" {
			conn.Close()
			return nil, fmt.Errorf("'OK', got '%s'", res)
		}
	}
	return conn, nil
}

type options struct {
	auth    string
	tlscfg  *tls.Config
	maxIdle int
}

// Option configures a Client.
type Option func(*options)

// WithAuth sets the password sent with AUTH on every new connection.
func WithAuth(auth string) Option {
	return func(o *options) { o.auth = auth }
}

// WithTLS dials with TLS.
func WithTLS(tlscfg *tls.Config) Option {
	return func(o *options) { o.tlscfg = tlscfg }
}

// WithMaxIdle sets the number of idle connections kept in the pool.
// Default 4.
func WithMaxIdle(n int) Option {
	return func(o *options) { o.maxIdle = n }
}

// Client is a pooled connection to a server. It is safe for concurrent use.
// Every draw advances the counter shared by all clients of the server.
type Client struct {
	pool *redis.Pool
}

// New returns a client for the server at addr. Connections are opened on
// first use.
func New(addr string, opts ...Option) *Client {
	o := options{maxIdle: 4}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{pool: &redis.Pool{
		MaxIdle:     o.maxIdle,
		IdleTimeout: time.Minute,
		Dial: func() (redis.Conn, error) {
			return Dial(addr, o.auth, o.tlscfg)
		},
	}}
}

// Close releases all pooled connections.
func (c *Client) Close() error {
	return c.pool.Close()
}

func (c *Client) do(cmd string, args ...interface{}) (interface{}, error) {
	conn := c.pool.Get()
	defer conn.Close()
	return conn.Do(cmd, args...)
}

// Ping checks the connection.
func (c *Client) Ping() error {
	res, err := redis.String(c.do("ping"))
	if err != nil {
		return err
	}
	if res != "PONG" {
		return fmt.Errorf("'PONG', got '%s'", res)
	}
	return nil
}

// Uint32 draws one uint32.
func (c *Client) Uint32() (uint32, error) {
	v, err := redis.Int64(c.do("u32"))
	return uint32(v), err
}

// Uint32s draws count uint32 values in one round trip.
func (c *Client) Uint32s(count int) ([]uint32, error) {
	vals, err := redis.Int64s(c.do("u32", count))
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(vals))
	for i, v := range vals {
		out[i] = uint32(v)
	}
	return out, nil
}

// Uint64 draws one uint64.
func (c *Client) Uint64() (uint64, error) {
	return redis.Uint64(c.do("u64"))
}

// Uint64s draws count uint64 values in one round trip.
func (c *Client) Uint64s(count int) ([]uint64, error) {
	return parseUints(redis.Strings(c.do("u64", count)))
}

// Uint32n draws a uniform value in [0, bound).
func (c *Client) Uint32n(bound uint32) (uint32, error) {
	v, err := redis.Int64(c.do("u32n", bound))
	return uint32(v), err
}

// Uint64n draws a uniform value in [0, bound).
func (c *Client) Uint64n(bound uint64) (uint64, error) {
	return redis.Uint64(c.do("u64n", strconv.FormatUint(bound, 10)))
}

// Full32 draws one uint32 along with the counter that produced it.
func (c *Client) Full32() (squares.Result[uint32], error) {
	vals, err := parseUints(redis.Strings(c.do("full32")))
	if err != nil {
		return squares.Result[uint32]{}, err
	}
	if len(vals) != 2 {
		return squares.Result[uint32]{}, fmt.Errorf("expected 2 values, got %d", len(vals))
	}
	return squares.Result[uint32]{Counter: vals[0], Value: uint32(vals[1])}, nil
}

// Full64 draws one uint64 along with the counter that produced it.
func (c *Client) Full64() (squares.Result[uint64], error) {
	vals, err := parseUints(redis.Strings(c.do("full64")))
	if err != nil {
		return squares.Result[uint64]{}, err
	}
	if len(vals) != 2 {
		return squares.Result[uint64]{}, fmt.Errorf("expected 2 values, got %d", len(vals))
	}
	return squares.Result[uint64]{Counter: vals[0], Value: vals[1]}, nil
}

// Float64 draws a float64 in [0, 1).
func (c *Client) Float64() (float64, error) {
	return redis.Float64(c.do("float"))
}

// Bytes returns n random bytes.
func (c *Client) Bytes(n int) ([]byte, error) {
	return redis.Bytes(c.do("bytes", n))
}

// Counter returns the counter the next draw will consume.
func (c *Client) Counter() (uint64, error) {
	return redis.Uint64(c.do("counter"))
}

// SetCounter replaces the server counter and returns the previous one.
func (c *Client) SetCounter(counter uint64) (uint64, error) {
	return redis.Uint64(c.do("setcounter", strconv.FormatUint(counter, 10)))
}

// Key returns the server key.
func (c *Client) Key() (uint64, error) {
	return redis.Uint64(c.do("key"))
}

// Mix32 runs the 32-bit mix on the server without drawing.
func (c *Client) Mix32(counter, key uint64) (uint32, error) {
	v, err := redis.Int64(c.do("mix32",
		strconv.FormatUint(counter, 10), strconv.FormatUint(key, 10)))
	return uint32(v), err
}

// Mix64 runs the 64-bit mix on the server without drawing.
func (c *Client) Mix64(counter, key uint64) (uint64, error) {
	return redis.Uint64(c.do("mix64",
		strconv.FormatUint(counter, 10), strconv.FormatUint(key, 10)))
}

// Save asks the server to write its state now.
func (c *Client) Save() error {
	_, err := redis.String(c.do("save"))
	return err
}

// Info returns the server stats with keys matching pattern.
func (c *Client) Info(pattern string) (map[string]string, error) {
	return redis.StringMap(c.do("info", pattern))
}

func parseUints(strs []string, err error) ([]uint64, error) {
	if err != nil {
		return nil, err
	}
	vals := make([]uint64, len(strs))
	for i, s := range strs {
		if vals[i], err = strconv.ParseUint(s, 10, 64); err != nil {
			return nil, err
		}
	}
	return vals, nil
}
