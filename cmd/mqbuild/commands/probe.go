package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/mqbuild/capability"
	"github.com/teranos/mqbuild/display"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/mqhome"
	"github.com/teranos/mqbuild/pipeline"
	"github.com/teranos/mqbuild/probe"
)

// ProbeCmd runs the compile probes of the capability table
var ProbeCmd = &cobra.Command{
	Use:   "probe [CAPABILITY...]",
	Short: "Run the compile probes",
	Long: `Compile each probe-gated capability's snippet against the MQ headers
and report which compile. Any compiler diagnostic counts as absent.

Examples:
  mqbuild probe
  mqbuild probe mqcsp_token -vv
  CC="zig cc -target x86_64-linux-gnu" mqbuild probe`,
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	ctx, cancel := signalContext(cmd)
	defer cancel()

	log := commandLogger(cmd)
	tables, err := pipeline.Tables(ctx, cfg.Table, log)
	if err != nil {
		return err
	}
	layout := mqhome.Resolve(cfg.Install.Home, cfg.Install.TargetOS)
	runner, err := pipeline.NewRunner(cfg, layout, nil, log)
	if err != nil {
		return err
	}

	probes := make(map[string]probe.Snippet)
	var order []string
	for _, c := range tables.Capabilities {
		if gate, ok := c.Gate.(capability.Probe); ok {
			probes[c.Name] = gate.Snippet
			order = append(order, c.Name)
		}
	}
	if len(args) > 0 {
		for _, name := range args {
			if _, ok := probes[name]; !ok {
				return errors.NewNotFoundError("no probe-gated capability %q", name)
			}
		}
		order = args
	}

	results := make([]probe.Result, 0, len(order))
	for _, name := range order {
		results = append(results, runner.Run(ctx, probes[name]))
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), results)
	}
	return display.Probes(cmd.OutOrStdout(), results)
}
