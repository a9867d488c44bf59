package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/isomesh/internal/config"
	"github.com/Faultbox/isomesh/internal/export"
	"github.com/Faultbox/isomesh/internal/logger"
	"github.com/Faultbox/isomesh/internal/metrics"
	"github.com/Faultbox/isomesh/internal/scene"
	"github.com/Faultbox/isomesh/pkg/stl"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Mesh the configured scene into an STL file",
		Args:  cobra.NoArgs,
	}
	flags := config.BindFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		// Load configuration
		cfg, err := config.Load(flags)
		if err != nil {
			return err
		}

		// Initialize logger
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
			return err
		}
		defer logger.Sync()
		logger.Sugar.Debugf("Config: %+v", cfg)

		field, err := scene.Build(cfg.Scene)
		if err != nil {
			return err
		}
		logger.Debug("scene built", zap.String("op", cfg.Scene.Op), zap.Int("shapes", len(cfg.Scene.Shapes)))

		opts := export.FromConfig(cfg)
		opts.Logger = logger.Named("export")
		opts.Metrics = metrics.New()

		res, err := export.ExportFile(cmd.Context(), opts, field, cfg.Export.Output)
		if cfg.Metrics.Textfile != "" {
			if merr := opts.Metrics.WriteTextfile(cfg.Metrics.Textfile); merr != nil {
				logger.Warn("metrics not written", zap.Error(merr))
			}
		}
		if err != nil {
			return err
		}
		logger.Info("mesh written", zap.String("output", cfg.Export.Output), zap.Uint32("triangles", res.Triangles))

		out := cmd.OutOrStdout()
		size := uint64(stl.HeaderSize+stl.CountSize) + uint64(res.Triangles)*stl.RecordSize
		fmt.Fprintf(out, "Output:    %s\n", cfg.Export.Output)
		fmt.Fprintf(out, "Backend:   %s\n", res.Backend)
		fmt.Fprintf(out, "Triangles: %s\n", humanize.Comma(int64(res.Triangles)))
		fmt.Fprintf(out, "Size:      %s\n", humanize.Bytes(size))
		switch res.Backend {
		case export.DualContour:
			fmt.Fprintf(out, "Cells:     %s active, %s vertices\n", humanize.Comma(int64(res.ActiveCells)), humanize.Comma(int64(res.Vertices)))
		case export.Slicer:
			fmt.Fprintf(out, "Contours:  %s segments, %s loops\n", humanize.Comma(int64(res.Segments)), humanize.Comma(int64(res.Loops)))
		}
		fmt.Fprintf(out, "Elapsed:   %s\n", res.Elapsed.Round(time.Millisecond))
		return nil
	}
	return cmd
}
