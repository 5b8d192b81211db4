package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ifabos/go-idlmap/config"
)

var configForce bool

// ConfigCmd groups the configuration commands
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the idlmap.toml configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.FileName
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path, configForce); err != nil {
			return err
		}
		pterm.Success.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(configRows(cfg)).Srender()
		if err != nil {
			return err
		}
		pterm.DefaultSection.Println("idlmap configuration")
		_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
		return err
	},
}

func configRows(cfg *config.Config) pterm.TableData {
	return pterm.TableData{
		{"key", "value"},
		{"output.dir", cfg.Output.Dir},
		{"output.go_package", cfg.Output.GoPackage},
		{"mapping.file", cfg.Mapping.File},
		{"mapping.wide_char_default", pterm.Sprint(cfg.Mapping.WideCharDefault)},
		{"mapping.anonymous_sequences", pterm.Sprint(cfg.Mapping.AnonymousSequences)},
		{"mapping.max_depth", pterm.Sprint(cfg.Mapping.MaxDepth)},
		{"compiler.ref_manifests", pterm.Sprint(cfg.Compiler.RefManifests)},
		{"compiler.include_dirs", pterm.Sprint(cfg.Compiler.IncludeDirs)},
	}
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Replace an existing file")
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}
