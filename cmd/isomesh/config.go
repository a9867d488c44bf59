package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/isomesh/internal/config"
)

func newConfigCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "config [path]",
		Short: "Print the effective configuration, or save it",
		Long: `Print the effective configuration as YAML.

With a path, write it there instead. With --save, write it to the user
config directory.`,
		Args: cobra.MaximumNArgs(1),
	}
	flags := config.BindFlags(cmd.Flags())
	cmd.Flags().BoolVar(&save, "save", false, "Write to the user config directory")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flags)
		if err != nil {
			return err
		}
		switch {
		case len(args) == 1:
			return cfg.SaveTo(args[0])
		case save:
			return cfg.Save()
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return cmd
}
