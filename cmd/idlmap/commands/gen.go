package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/generator"
	"github.com/ifabos/go-idlmap/logger"
	"github.com/ifabos/go-idlmap/mapping"
)

var genOutput string

// GenCmd generates IDL files from CLS type manifests
var GenCmd = &cobra.Command{
	Use:   "gen <manifest.yaml>...",
	Short: "Generate IDL files from CLS type manifests",
	Long: `Generate one IDL file per mapped type from CLS type manifests.

Every type of the manifests is mapped together with the types it depends on.
Types that refer to each other are forward declared; each file includes the
files of the types it needs.

Examples:
  idlmap gen types.yaml                 # write to the configured output dir
  idlmap gen base.yaml app.yaml -o idl/ # several manifests into one run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGen,
}

func init() {
	GenCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output directory (default: output.dir of the config)")
}

func runGen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	outDir := cfg.Output.Dir
	if genOutput != "" {
		outDir = genOutput
	}

	u := cls.NewUniverse()
	var types []*cls.Type
	for _, path := range args {
		loaded, err := cls.LoadManifestFile(path, u)
		if err != nil {
			return errors.Wrapf(err, "failed to load manifest %s", path)
		}
		logger.Logger.Infow("manifest loaded", logger.FieldFile, path, logger.FieldCount, len(loaded))
		types = append(types, loaded...)
	}

	plugin := mapping.NewPlugin()
	if cfg.Mapping.File != "" {
		if plugin, err = mapping.LoadPlugin(cfg.Mapping.File, u); err != nil {
			return err
		}
	}

	classifier := mapping.NewClassifier(u, plugin, cfg.Mapping.WideCharDefault)
	gen := generator.New(classifier, generator.NewDirWriter(outDir),
		generator.WithMaxDepth(cfg.Mapping.MaxDepth),
		generator.WithAnonymousSequences(cfg.Mapping.AnonymousSequences))
	if err := gen.MapTypes(types); err != nil {
		pterm.Error.Printf("Generation failed: %v\n", err)
		return err
	}

	stats := gen.Stats()
	pterm.Success.Printf("Generated %d IDL files in %s\n", stats.Artifacts, outDir)
	return printSummary("IDL generation", [][]string{
		{"types in manifests", strconv.Itoa(len(types))},
		{"custom mappings", strconv.Itoa(plugin.Len())},
		{"artifacts", strconv.Itoa(stats.Artifacts)},
		{"forward declarations", strconv.Itoa(stats.ForwardDecls)},
		{"includes", strconv.Itoa(stats.Includes)},
		{"max nesting depth", strconv.Itoa(stats.MaxDepth)},
	})
}
