package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ifabos/go-idlmap/cmd/idlmap/commands"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/logger"
)

var rootCmd = &cobra.Command{
	Use:   "idlmap",
	Short: "Map between CLS type manifests and OMG IDL",
	Long: `idlmap maps CLS types to OMG IDL and IDL back to CLS types.

Available commands:
  gen     - Generate IDL files from CLS type manifests
  compile - Compile IDL files to a CLS type manifest and Go declarations
  config  - Manage the idlmap.toml configuration

Examples:
  idlmap gen types.yaml -o idl/
  idlmap compile service.idl -I include/
  idlmap config init`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			pterm.DisableStyling()
		}
		if err := logger.Initialize(jsonOutput, verbose); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: ./idlmap.toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log engine details")
	rootCmd.PersistentFlags().Bool("json", false, "Log as JSON")

	rootCmd.AddCommand(commands.GenCmd)
	rootCmd.AddCommand(commands.CompileCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
