package types

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

const maskedValue = "••••••••"

// FormatReview renders the collected values as a markdown table for the
// review step. Sensitive values are masked and empty values render as "-".
func FormatReview(infos []FieldInfo, fields Fields) string {
	if len(infos) == 0 {
		return ""
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	for _, info := range infos {
		_ = table.Append(info.DisplayName, displayValue(info, fields))
	}
	_ = table.Render()
	return buf.String()
}

func displayValue(info FieldInfo, fields Fields) string {
	raw, ok := fields[info.Name]
	if !ok || raw == nil {
		return "-"
	}
	if b, isBool := raw.(bool); isBool {
		if b {
			return "yes"
		}
		return "no"
	}
	value := strings.TrimSpace(fmt.Sprint(raw))
	if value == "" {
		return "-"
	}
	if info.Sensitive {
		return maskedValue
	}
	return value
}
