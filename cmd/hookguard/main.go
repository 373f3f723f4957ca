package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/infrastructure/cli"
	"github.com/dbankscard/hookguard/internal/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	log := logger.FromEnv()
	defer log.Sync()

	root, rt := cli.NewRootCmd(cli.Options{Logger: log})
	defer rt.Close()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var violation *domain.PolicyViolation
	if errors.As(err, &violation) {
		fmt.Fprintln(os.Stderr, violation.Reason)
		return violation.ExitCode()
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return 2
}
