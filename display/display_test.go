package display

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mqbuild/am"
	"github.com/teranos/mqbuild/capability"
	"github.com/teranos/mqbuild/classify"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func TestShouldOutputJSON(t *testing.T) {
	root := &cobra.Command{Use: "mqbuild"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "resolve", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)

	assert.False(t, ShouldOutputJSON(nil))
	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, root.PersistentFlags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, OutputJSON(&buf, map[string]int{"count": 2}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got["count"])
	assert.Contains(t, buf.String(), "\n  \"count\"")
}

func TestOutcomesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Outcomes(&buf, []capability.Outcome{
		{Name: "mqbno", Gate: ">= 9.3.0.0", Active: true},
		{Name: "mqcno_balance", Gate: "probe mqcno_balance"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Capability")
	assert.Contains(t, out, "mqbno")
	assert.Contains(t, out, "probe mqcno_balance")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "no")
}

func TestConstantsTableMarksUnclassified(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Constants(&buf, []classify.Classified{
		{Define: classify.Define{Name: "MQCC_OK", Value: "0"}, Kind: classify.MQLONG, Rule: 6},
		{Define: classify.Define{Name: "MQ_Q_MGR_NAME", Value: "48"}, Rule: -1},
	}))

	out := buf.String()
	assert.Contains(t, out, "MQLONG")
	assert.Contains(t, out, "MQ_Q_MGR_NAME")
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "MQ_Q_MGR_NAME") {
			assert.True(t, strings.HasSuffix(strings.TrimSpace(line), "-"), line)
		}
	}
}

func TestSettingsTableTruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	require.NoError(t, Settings(&buf, []am.SettingInfo{
		{Key: "table.source", Value: long, Source: am.SourceProject, SourcePath: "/repo/mqbuild.toml"},
		{Key: "probe.compiler", Value: "cc", Source: am.SourceDefault, SourcePath: "built-in default"},
	}))

	out := buf.String()
	assert.Contains(t, out, long[:47]+"...")
	assert.Contains(t, out, "project (/repo/mqbuild.toml)")
	assert.NotContains(t, out, "built-in default")
}
