// isomesh meshes implicit solids into binary STL files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// An interrupted export is abandoned between stages.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "isomesh",
		Short: "Mesh signed distance fields into STL",
		Long: `isomesh - implicit solid to STL exporter

Two backends are available:
  dualcontour  whole-volume dual contouring, keeps sharp edges
  slicer       slice-by-slice contouring in bounded memory

Examples:
  isomesh export -o sphere.stl
  isomesh export -c part.yaml -b slicer --resolution 256
  isomesh info sphere.stl
  isomesh config > isomesh.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExportCmd(), newInfoCmd(), newConfigCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "isomesh %s\n", version)
		},
	}
}
