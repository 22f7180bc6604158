// Command streetsearch queries a published street-level tag index.
//
//	streetsearch --url https://cdn.example.com/ search '"east", coffee'
//	streetsearch --path ./dataset suggest cof
//	streetsearch --config streetsearch.yaml select 4242 --query coffee
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

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
