package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fabrica-p6f5/backoffice/internal/client/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
