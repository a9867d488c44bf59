package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Faultbox/isomesh/pkg/stl"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.stl>",
		Short: "Show triangle count, bounds and volume of a binary STL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			mesh, err := stl.ParseFile(args[0])
			if err != nil {
				return err
			}
			lo, hi := mesh.Bounds()
			size := hi.Sub(lo)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:      %s\n", args[0])
			fmt.Fprintf(out, "Header:    %q\n", mesh.Header)
			fmt.Fprintf(out, "Triangles: %s\n", humanize.Comma(int64(len(mesh.Triangles))))
			fmt.Fprintf(out, "Size:      %s\n", humanize.Bytes(uint64(st.Size())))
			fmt.Fprintf(out, "Bounds:    (%.4g, %.4g, %.4g) - (%.4g, %.4g, %.4g)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
			fmt.Fprintf(out, "Extent:    %.4g x %.4g x %.4g\n", size.X, size.Y, size.Z)
			fmt.Fprintf(out, "Volume:    %.6g\n", mesh.Volume())
			return nil
		},
	}
}
