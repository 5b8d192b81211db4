package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/compiler"
	"github.com/ifabos/go-idlmap/config"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/goemit"
	"github.com/ifabos/go-idlmap/logger"
)

var (
	compileOutput      string
	compileManifest    string
	compileIncludeDirs []string
	compileNoGo        bool
	compileWatch       bool
)

// CompileCmd compiles IDL files to CLS types
var CompileCmd = &cobra.Command{
	Use:   "compile <file.idl>...",
	Short: "Compile IDL files to a CLS type manifest and Go declarations",
	Long: `Compile IDL files to CLS types.

The files are compiled in order; a file may use the types of the files
before it. Types found in the referenced manifests of the config are used
instead of being built again.

The result is written as a YAML type manifest and, unless --no-go is given,
as Go declarations with one file per namespace.

With --watch the files are compiled again whenever one of them changes.

Examples:
  idlmap compile service.idl
  idlmap compile base.idl service.idl -I include/ --manifest service.yaml
  idlmap compile service.idl --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	CompileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Output directory (default: output.dir of the config)")
	CompileCmd.Flags().StringVar(&compileManifest, "manifest", "", "Manifest file to write (default: <output>/types.yaml)")
	CompileCmd.Flags().StringSliceVarP(&compileIncludeDirs, "include", "I", nil, "Directories searched for included IDL files")
	CompileCmd.Flags().BoolVar(&compileNoGo, "no-go", false, "Do not write Go declarations")
	CompileCmd.Flags().BoolVarP(&compileWatch, "watch", "w", false, "Compile again when an input file changes")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := compileUnits(cfg, args); err != nil {
		return err
	}
	if !compileWatch {
		return nil
	}

	fw, err := newFileWatcher(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	pterm.Info.Println("Watching for changes, press Ctrl+C to stop")
	return fw.Run(ctx, func() error {
		err := compileUnits(cfg, args)
		if err != nil {
			pterm.Warning.Println("Waiting for the next change")
		}
		return err
	})
}

// compileUnits compiles the files with a new session and writes the results
func compileUnits(cfg *config.Config, paths []string) error {
	outDir := cfg.Output.Dir
	if compileOutput != "" {
		outDir = compileOutput
	}
	includeDirs := append(append([]string(nil), cfg.Compiler.IncludeDirs...), compileIncludeDirs...)

	refs, err := compiler.LoadRefLibraries(cfg.Compiler.RefManifests...)
	if err != nil {
		return err
	}
	c := compiler.New(compiler.WithRefLibraries(refs))
	for _, path := range paths {
		types, err := c.CompileFile(path, includeDirs...)
		if err != nil {
			pterm.Error.Printf("Compilation of %s failed: %v\n", path, err)
			return err
		}
		logger.Logger.Infow("unit compiled", logger.FieldUnit, path, logger.FieldCount, len(types))
	}
	types := c.Types()

	manifest := compileManifest
	if manifest == "" {
		manifest = filepath.Join(outDir, "types.yaml")
	}
	if err := writeManifest(manifest, types); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %d types to %s\n", len(types), manifest)

	goFiles := 0
	if !compileNoGo {
		emitter := goemit.New(outDir)
		emitter.SetPackageName(cfg.Output.GoPackage)
		written, err := emitter.Emit(types)
		if err != nil {
			return err
		}
		goFiles = len(written)
		pterm.Success.Printf("Wrote %d Go files to %s\n", goFiles, outDir)
	}

	return printSummary("IDL compilation", [][]string{
		{"units", strconv.Itoa(len(paths))},
		{"referenced libraries", strconv.Itoa(refs.Len())},
		{"types", strconv.Itoa(len(types))},
		{"go files", strconv.Itoa(goFiles)},
	})
}

func writeManifest(path string, types []*cls.Type) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create manifest %s", path)
	}
	defer f.Close()
	return cls.SaveManifest(f, types)
}
