package main

import (
	"context"
	"os"

	"github.com/bissquit/incident-console/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
