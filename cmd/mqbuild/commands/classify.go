package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/mqbuild/classify"
	"github.com/teranos/mqbuild/display"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/logger"
	"github.com/teranos/mqbuild/pipeline"
)

// ClassifyCmd assigns integer types to constant names
var ClassifyCmd = &cobra.Command{
	Use:   "classify [NAME...]",
	Short: "Assign integer types to MQ constants",
	Long: `Classify constant names with the ordered constant rules. The first rule
with a matching pattern wins; names no rule matches are shown as "-" and keep
the binding generator's default type.

With --header every integer #define in the header is classified.

Examples:
  mqbuild classify MQCC_OK MQHO_NONE MQOO_INPUT_SHARED
  mqbuild classify --header /opt/mqm/inc/cmqc.h --json`,
	RunE: runClassify,
}

func init() {
	ClassifyCmd.Flags().StringArray("header", nil, "C header to scan for #define constants (repeatable)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	headers, _ := cmd.Flags().GetStringArray("header")
	if len(args) == 0 && len(headers) == 0 {
		return errors.WithHint(errors.NewInvalidInputError("nothing to classify"),
			"pass constant names or --header")
	}

	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	log := commandLogger(cmd)
	tables, err := pipeline.Tables(ctx, loaded.Config.Table, log)
	if err != nil {
		return err
	}
	classifier, err := classify.New(tables.Rules)
	if err != nil {
		return errors.Wrapf(err, "constant rules from %s", tables.Origin)
	}

	defs := make([]classify.Define, 0, len(args))
	for _, name := range args {
		defs = append(defs, classify.Define{Name: name})
	}
	for _, path := range headers {
		scanned, err := scanHeader(path)
		if err != nil {
			return err
		}
		log.Debugw("Scanned header", logger.FieldFile, path, logger.FieldCount, len(scanned))
		defs = append(defs, scanned...)
	}

	results := classifier.ClassifyAll(defs)
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), results)
	}
	return display.Constants(cmd.OutOrStdout(), results)
}

func scanHeader(path string) ([]classify.Define, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open header %s", path)
	}
	defer f.Close()

	defs, err := classify.ScanDefines(f)
	if err != nil {
		return nil, errors.Wrapf(err, "scan header %s", path)
	}
	return defs, nil
}
