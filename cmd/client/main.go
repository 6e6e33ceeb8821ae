// Package main is a command-line client: it builds a service.ClientContext from the client YAML
// (configured nodes, discoverer URLs, REDIS_ADDR), waits until a node reports the target module and
// performs one invocation or session open, printing the outcome and the elapsed time.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
