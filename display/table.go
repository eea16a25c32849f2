package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/mqbuild/am"
	"github.com/teranos/mqbuild/capability"
	"github.com/teranos/mqbuild/classify"
	"github.com/teranos/mqbuild/probe"
	"github.com/teranos/mqbuild/resolve"
)

// Table renders rows under a header row
func Table(w io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Outcomes renders capability outcomes
func Outcomes(w io.Writer, outcomes []capability.Outcome) error {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []string{o.Name, o.Gate, yesNo(o.Active)})
	}
	return Table(w, []string{"Capability", "Gate", "Active"}, rows)
}

// Resolved renders the summary of a resolved configuration
func Resolved(w io.Writer, cfg *resolve.Config) error {
	fmt.Fprintf(w, "%s %s (%s)\n", pterm.Bold.Sprint("MQ client"), cfg.Version, cfg.VersionInt)
	fmt.Fprintf(w, "%s %s\n", pterm.Bold.Sprint("Features "), listOrNone(cfg.Features))
	fmt.Fprintf(w, "%s %d headers, %d functions, %d types, %d sources\n",
		pterm.Bold.Sprint("Surface  "), len(cfg.Headers), len(cfg.Functions), len(cfg.Types), len(cfg.Sources))
	fmt.Fprintln(w)
	if err := Outcomes(w, cfg.Outcomes); err != nil {
		return err
	}

	rows := make([][]string, 0, len(cfg.Markers.Declared))
	for _, m := range cfg.Markers.Declared {
		rows = append(rows, []string{m, yesNo(cfg.Markers.IsSet(m))})
	}
	return Table(w, []string{"Marker", "Set"}, rows)
}

// Constants renders classified constants. Unclassified ones show "-".
func Constants(w io.Writer, constants []classify.Classified) error {
	rows := make([][]string, 0, len(constants))
	for _, c := range constants {
		kind := "-"
		if c.Rule >= 0 {
			kind = c.Kind.String()
		}
		rows = append(rows, []string{c.Name, c.Value, kind})
	}
	return Table(w, []string{"Constant", "Value", "Kind"}, rows)
}

// Probes renders probe results
func Probes(w io.Writer, results []probe.Result) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Name, yesNo(r.Present), r.Duration.Round(time.Millisecond).String(), r.Reason})
	}
	return Table(w, []string{"Probe", "Present", "Took", "Reason"}, rows)
}

// Settings renders configuration settings with their sources
func Settings(w io.Writer, settings []am.SettingInfo) error {
	rows := make([][]string, 0, len(settings))
	for _, s := range settings {
		value := fmt.Sprintf("%v", s.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		source := string(s.Source)
		if s.SourcePath != "" && s.Source != am.SourceDefault {
			source += " (" + s.SourcePath + ")"
		}
		rows = append(rows, []string{s.Key, value, source})
	}
	return Table(w, []string{"Key", "Value", "Source"}, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
