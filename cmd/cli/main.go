// cmd/cli/main.go
package main

import (
	"os"

	"github.com/keshon/server-roles/internal/logger"
)

func main() {
	if err := newApp().rootCommand().Execute(); err != nil {
		logger.Get().Error("command failed", "err", err)
		os.Exit(1)
	}
}
