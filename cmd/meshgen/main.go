// Command meshgen builds meshes from TOML descriptions and inspects saved
// meshes.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/notargets/meshgrid/config"
	"github.com/notargets/meshgrid/logging"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/persist"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	rootCmd := &cobra.Command{
		Use:   "meshgen",
		Short: "Build and inspect structured, cylindrical, tree and curvilinear meshes",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := logging.InitLogger("meshgen", logLevel)
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newInfoCommand())
	return rootCmd
}

func newBuildCommand() *cobra.Command {
	var configPath, outPath string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a mesh from a TOML description and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			m, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("build %s mesh: %w", cfg.Kind, err)
			}
			if err := persist.SaveFile(outPath, m); err != nil {
				return fmt.Errorf("save mesh: %w", err)
			}
			g, err := m.Geometry()
			if err != nil {
				return err
			}
			log.Info().Str("kind", m.Kind().String()).Int("cells", g.NC).Str("out", outPath).Msg("mesh saved")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s mesh with %d cells to %s\n", m.Kind(), g.NC, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML mesh description")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the counts and measures of a saved mesh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := persist.LoadFile(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), mesh.Summary(m))
			return nil
		},
	}
}
