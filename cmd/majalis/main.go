package main

import (
	"os"

	appLog "majalis/internal/log"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		appLog.Error("majalis failed", err)
		os.Exit(1)
	}
}
