// Command ticketd serves the ticket mailbox over HTTP and load-tests it.
//
//	ticketd serve --config ticketbox.toml
//	ticketd loadtest --capacity 16 --clients 64 --inserts 1000
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
