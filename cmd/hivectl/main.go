/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hivelab/hivectl/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args)
	stop()
	os.Exit(code)
}
