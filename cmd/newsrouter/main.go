package main

import (
	"context"
	"fmt"
	"os"

	"github.com/techbeetle/news-router/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "newsrouter: %v\n", err)
		os.Exit(1)
	}
}
