package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/unigraph/internal/infrastructure/cli"
)

func main() {
	ctx := context.Background()
	opts := cli.Options{Verbose: isVerbose(os.Args[1:])}

	root, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// isVerbose is decided before cobra parses flags because the logger is
// built together with the container.
func isVerbose(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--verbose" {
			return true
		}
	}
	v := os.Getenv("UNIGRAPH_DEBUG")
	return v == "1" || strings.EqualFold(v, "true")
}
