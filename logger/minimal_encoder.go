package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

type palette struct {
	time      string
	component string
	key       string
	value     string
	number    string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

// Gruvbox Dark (warm, muted)
var gruvbox = palette{
	time:      "\x1b[38;5;108m",
	component: "\x1b[38;5;208m",
	key:       "\x1b[38;5;245m",
	value:     "\x1b[38;5;109m",
	number:    "\x1b[38;5;175m",
	warn:      "\x1b[38;5;214m",
	warnBg:    "\x1b[48;5;58m",
	err:       "\x1b[38;5;167m",
	errBg:     "\x1b[48;5;88m",
}

// Everforest Dark (natural greens)
var everforest = palette{
	time:      "\x1b[38;5;107m",
	component: "\x1b[38;5;208m",
	key:       "\x1b[38;5;65m",
	value:     "\x1b[38;5;109m",
	number:    "\x1b[38;5;108m",
	warn:      "\x1b[38;5;179m",
	warnBg:    "\x1b[48;5;58m",
	err:       "\x1b[38;5;167m",
	errBg:     "\x1b[48;5;52m",
}

// plain disables colors, used when MQBUILD_LOG_THEME=none
var plain = palette{}

var currentTheme = "everforest"

// SetTheme configures the color scheme for console log output.
// Unknown names are ignored.
func SetTheme(theme string) {
	switch theme {
	case "everforest", "gruvbox", "none":
		currentTheme = theme
	}
}

func colors() palette {
	switch currentTheme {
	case "gruvbox":
		return gruvbox
	case "none":
		return plain
	default:
		return everforest
	}
}

func paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + colorReset
}

// minimalEncoder is a compact console encoder.
// Format: "13:04:35  WARN  capability  probe failed  capability=mqbno compiler=cc"
//
// Context fields from With() are kept in the embedded map encoder and rendered
// before per-entry fields.
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := newMinimalEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return clone
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := buffer.NewPool().Get()

	final.AppendString(paint(c.time, ent.Time.Format("15:04:05")))

	// Level: only shown for WARN and above
	if lvl := levelString(ent.Level, c); lvl != "" {
		final.AppendString("  ")
		final.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(paint(c.component, ent.LoggerName))
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	if rendered := renderFields(enc.Fields, fields, c); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

func levelString(level zapcore.Level, c palette) string {
	switch level {
	case zapcore.DebugLevel, zapcore.InfoLevel:
		return ""
	case zapcore.WarnLevel:
		return colorBoldIf(c) + paint(c.warnBg+c.warn, "WARN")
	default:
		return colorBoldIf(c) + paint(c.errBg+c.err, level.CapitalString())
	}
}

func colorBoldIf(c palette) string {
	if c == plain {
		return ""
	}
	return colorBold
}

// renderFields writes key=value pairs: context fields in key order, then entry
// fields in call order. Every field is rendered.
func renderFields(context map[string]interface{}, fields []zapcore.Field, c palette) string {
	var parts []string

	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, renderPair(k, context[k], c))
	}

	if len(fields) > 0 {
		entry := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(entry)
			parts = append(parts, renderPair(f.Key, entry.Fields[f.Key], c))
		}
	}

	return strings.Join(parts, " ")
}

func renderPair(key string, value interface{}, c palette) string {
	color := c.value
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		color = c.number
	}
	s := fmt.Sprintf("%v", value)
	if key == FieldDurationMS {
		s += "ms"
	}
	return paint(c.key, key+"=") + paint(color, s)
}
