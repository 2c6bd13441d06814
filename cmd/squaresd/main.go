// Command squaresd serves a shared counter-based random number generator
// over the Redis protocol.
package main

import "github.com/moontrade/squares/app"

var (
	version = "0.1.0"
	gitsha  = ""
)

func main() {
	app.Main(app.Config{
		Name:    "squaresd",
		Version: version,
		GitSHA:  gitsha,
	})
}
