// Package main is the entry point for the iotlab-device client.
package main

import (
	"os"

	"github.com/tamahiro5/iotlab-edge/cmd/iotlab-device/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
