package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/telekom/relaynotify/pkg/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := cmd.NewRootCommand(cmd.DefaultConfig())
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(root.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if !cmd.IsReported(err) {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
