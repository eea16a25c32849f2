package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"

	"github.com/teranos/mqbuild/display"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/mqhome"
	"github.com/teranos/mqbuild/pipeline"
	"github.com/teranos/mqbuild/version"
)

// DoctorCmd inspects the host and the MQ installation
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Inspect the host and MQ installation",
	Long: `Report the host platform, the resolved MQ installation layout and whether
each piece a build needs is present: headers, libraries, dspmqver and the C
compiler. Exits non-zero when a check fails.`,
	RunE: runDoctor,
}

// doctorCheck is one pass/fail line of the report
type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// doctorReport is the full doctor output
type doctorReport struct {
	Tool   version.Info   `json:"tool"`
	Host   *host.InfoStat `json:"host,omitempty"`
	Layout mqhome.Layout  `json:"layout"`
	Files  []string       `json:"config_files"`
	Checks []doctorCheck  `json:"checks"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	ctx, cancel := signalContext(cmd)
	defer cancel()

	report := doctorReport{
		Tool:   version.Get(),
		Layout: mqhome.Resolve(cfg.Install.Home, cfg.Install.TargetOS),
		Files:  loaded.Files,
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		report.Host = info
	} else {
		report.Checks = append(report.Checks, doctorCheck{Name: "host", Detail: err.Error()})
	}

	report.Checks = append(report.Checks,
		pathCheck("include dir", report.Layout.IncludeDir),
		pathCheck("cmqc.h", report.Layout.Header("cmqc.h")),
		pathCheck("lib dir", report.Layout.LibDir),
		pathCheck("dspmqver", report.Layout.VersionTool),
		versionCheck(ctx, report.Layout),
	)

	if cfg.Probe.Disabled {
		report.Checks = append(report.Checks, doctorCheck{Name: "compiler", OK: true, Detail: "probing disabled"})
	} else if runner, err := pipeline.NewRunner(cfg, report.Layout, nil, nil); err != nil {
		report.Checks = append(report.Checks, doctorCheck{Name: "compiler", Detail: err.Error()})
	} else {
		report.Checks = append(report.Checks, compilerCheck(runner.Compiler()[0]))
	}

	failed := 0
	for _, c := range report.Checks {
		if !c.OK {
			failed++
		}
	}

	if display.ShouldOutputJSON(cmd) {
		if err := display.OutputJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else if err := renderDoctor(cmd, report); err != nil {
		return err
	}

	if failed > 0 {
		return errors.WithHint(errors.Newf("%d of %d checks failed", failed, len(report.Checks)),
			"set MQ_HOME to the MQ client installation, or install the MQ client SDK")
	}
	return nil
}

func renderDoctor(cmd *cobra.Command, report doctorReport) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.Tool.String())
	if h := report.Host; h != nil {
		fmt.Fprintf(out, "Host: %s %s %s (%s, kernel %s)\n", h.OS, h.Platform, h.PlatformVersion, h.KernelArch, h.KernelVersion)
	}
	fmt.Fprintf(out, "MQ_HOME: %s (target %s)\n\n", report.Layout.Home, report.Layout.TargetOS)

	rows := make([][]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		status := "✓"
		if !c.OK {
			status = "✗"
		}
		rows = append(rows, []string{status, c.Name, c.Detail})
	}
	return display.Table(out, []string{"", "Check", "Detail"}, rows)
}

func pathCheck(name, path string) doctorCheck {
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{Name: name, Detail: "missing: " + path}
	}
	return doctorCheck{Name: name, OK: true, Detail: path}
}

func versionCheck(ctx context.Context, layout mqhome.Layout) doctorCheck {
	v, _, err := mqhome.Querier{Layout: layout}.Installed(ctx)
	if err != nil {
		return doctorCheck{Name: "client version", Detail: err.Error()}
	}
	return doctorCheck{Name: "client version", OK: true, Detail: v.String()}
}

func compilerCheck(compiler string) doctorCheck {
	path, err := exec.LookPath(compiler)
	if err != nil {
		return doctorCheck{Name: "compiler", Detail: compiler + " not found in PATH"}
	}
	return doctorCheck{Name: "compiler", OK: true, Detail: path}
}
