// Package commands holds the idlmap subcommands
package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ifabos/go-idlmap/config"
)

// loadConfig loads the configuration named by the --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// printSummary renders a two column table of run statistics
func printSummary(title string, rows [][]string) error {
	pterm.DefaultSection.Println(title)
	data := pterm.TableData{{"", "count"}}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
