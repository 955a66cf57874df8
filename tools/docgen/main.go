// Package main generates CLI reference documentation from the iotlab
// command trees.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	devicecmd "github.com/tamahiro5/iotlab-edge/cmd/iotlab-device/cmd"
	launchcmd "github.com/tamahiro5/iotlab-edge/cmd/iotlab-launch/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated markdown")
	flag.Parse()

	for _, root := range []*cobra.Command{launchcmd.Root(), devicecmd.Root()} {
		root.DisableAutoGenTag = true

		dir := filepath.Join(*output, root.Name())
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Fatalf("creating output directory: %v", err)
		}

		if err := doc.GenMarkdownTree(root, dir); err != nil {
			log.Fatalf("generating docs for %s: %v", root.Name(), err)
		}
	}

	fmt.Printf("CLI docs generated in %s/\n", *output)
}
