// Package exposition renders the metric store in the pull-based,
// line-oriented text format understood by scrape-style collectors.
package exposition

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vigilops/vigil/internal/store"
)

// ContentType is the content type served with the rendered document.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Render produces the full exposition document: one HELP/TYPE comment
// pair per metric name followed by one line per label combination.
func Render(families []store.Family) string {
	var b strings.Builder
	for _, fam := range families {
		writeFamily(&b, fam)
	}
	return b.String()
}

func writeFamily(b *strings.Builder, fam store.Family) {
	b.WriteString("# HELP ")
	b.WriteString(fam.Name)
	if fam.Help != "" {
		b.WriteByte(' ')
		b.WriteString(escapeHelp(fam.Help))
	}
	b.WriteByte('\n')

	b.WriteString("# TYPE ")
	b.WriteString(fam.Name)
	b.WriteByte(' ')
	b.WriteString(string(fam.Type))
	b.WriteByte('\n')

	for _, point := range fam.Series {
		b.WriteString(fam.Name)
		writeLabels(b, point.Labels)
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(point.Value, 'f', -1, 64))
		if !point.Timestamp.IsZero() {
			b.WriteByte(' ')
			b.WriteString(strconv.FormatInt(point.Timestamp.UnixMilli(), 10))
		}
		b.WriteByte('\n')
	}
}

func writeLabels(b *strings.Builder, labels map[string]string) {
	if len(labels) == 0 {
		return
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(labels[k]))
		b.WriteByte('"')
	}
	b.WriteByte('}')
}

func escapeLabelValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	return v
}

func escapeHelp(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	return v
}
