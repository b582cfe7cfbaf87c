/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
	"testing"
)

const (
	APIServer     = "api_server"
	Ingester      = "ingester"
	DropPublisher = "drop_publisher"
)

var (
	IsDevelopment *bool
	ServiceName   *string
	ByPassAuth    *bool
)

func init() {
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName = flag.String("service", APIServer, "'api_server', 'ingester' or 'drop_publisher'")
	ByPassAuth = flag.Bool("no_auth", false, "set to true to bypass the admin auth middleware, for local debugging only")
	// In test binaries the -test.* flags are not registered yet at package
	// init time, so parsing here would abort the run; the testing framework
	// parses flags itself before tests execute.
	if !testing.Testing() {
		flag.Parse()
	}
}
