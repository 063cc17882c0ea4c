// Command borders calls the BORDERS API from the shell.
//
//	export BORDERS_PUBLIC_KEY=... BORDERS_PRIVATE_KEY=...
//	borders get /regions -q country=NL -o yaml
//	borders post /orders --data '{"sku":"A-1","qty":2}'
//	borders sign get /regions -q country=NL
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := run(ctx, a, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// run executes one command line and flushes metrics whatever the outcome.
func run(ctx context.Context, a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if ferr := a.flushMetrics(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}
