package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/mqbuild/display"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/logger"
)

// ErrStale is returned by generate check when files need regenerating
var ErrStale = errors.New("generated files are out of date")

// GenerateCmd writes the generated Go files
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the generated Go files",
	Long: `Resolve the build configuration and write it as Go source:

  version_gen.go  - ClientBuildVersion and ClientBuildVersionInt
  cgo_gen.go      - #cgo CFLAGS and LDFLAGS for the installation
  markers_gen.go  - one boolean constant per capability marker, plus BuildTags

A manifest (mqbuild-<arch>-<os>.<format>) is written next to them unless
output.manifest is false.

Examples:
  mqbuild generate
  mqbuild generate --output internal/mqc
  //go:generate go run github.com/teranos/mqbuild/cmd/mqbuild generate`,
	RunE: runGenerate,
}

// GenerateCheckCmd verifies generated files are up to date
var GenerateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check if generated files are up to date",
	Long: `Resolve the configuration and compare the result with the files on disk.
The manifest is not compared because it records a fresh run ID.

Exit codes:
  0 - Files are up to date
  1 - Files are missing or out of date, or the check failed`,
	RunE: runGenerateCheck,
}

func init() {
	addPipelineFlags(GenerateCmd)
	GenerateCmd.PersistentFlags().StringP("output", "o", "", "Output directory (default: output.dir)")
	GenerateCmd.PersistentFlags().String("package", "", "Package name of generated files (default: output.package)")
	GenerateCmd.AddCommand(GenerateCheckCmd)
	addPipelineFlags(GenerateCheckCmd)
}

// outputSettings applies --output and --package over the configuration
func outputSettings(cmd *cobra.Command, dir, pkg string) (string, string) {
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		dir = v
	}
	if v, _ := cmd.Flags().GetString("package"); v != "" {
		pkg = v
	}
	return dir, pkg
}

func runGenerate(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := *loaded.Config
	cfg.Output.Dir, cfg.Output.Package = outputSettings(cmd, cfg.Output.Dir, cfg.Output.Package)
	if err := cfg.Validate(); err != nil {
		return err
	}

	res, err := runPipeline(cmd, &cfg)
	if err != nil {
		return err
	}
	if err := res.Write(cfg.Output.Dir); err != nil {
		return err
	}

	names := make([]string, 0, len(res.Files)+1)
	for _, f := range res.Files {
		names = append(names, f.Name)
	}
	if res.Manifest != nil {
		names = append(names, res.Manifest.Name)
	}
	commandLogger(cmd).Infow("Generated files",
		logger.FieldPath, cfg.Output.Dir,
		logger.FieldCount, len(names))

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), map[string]interface{}{
			"dir":    cfg.Output.Dir,
			"files":  names,
			"run_id": res.Config.RunID,
		})
	}
	for _, n := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s/%s\n", cfg.Output.Dir, n)
	}
	return nil
}

func runGenerateCheck(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := *loaded.Config
	cfg.Output.Dir, cfg.Output.Package = outputSettings(cmd, cfg.Output.Dir, cfg.Output.Package)
	cfg.Output.Manifest = false

	res, err := runPipeline(cmd, &cfg)
	if err != nil {
		return err
	}
	stale, err := res.Check(cfg.Output.Dir)
	if err != nil {
		return errors.Wrap(err, "failed to compare generated files")
	}

	if display.ShouldOutputJSON(cmd) {
		if err := display.OutputJSON(cmd.OutOrStdout(), map[string]interface{}{
			"dir":        cfg.Output.Dir,
			"up_to_date": len(stale) == 0,
			"stale":      stale,
		}); err != nil {
			return err
		}
	} else if len(stale) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Generated files are up to date")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "✗ Generated files are out of date:")
		for _, name := range stale {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", name)
		}
	}

	if len(stale) > 0 {
		return errors.WithHint(ErrStale, "run 'mqbuild generate' to update")
	}
	return nil
}
