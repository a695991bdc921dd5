package validation

import "strings"

// FormatError renders a failed outcome for the caller.
func FormatError(o Outcome) string {
	var b strings.Builder
	b.WriteString("❌ Parameter validation failed:\n\n")
	b.WriteString(o.Error)
	if len(o.Suggestions) > 0 {
		b.WriteString("\n\n💡 Suggestions:\n")
		for _, s := range o.Suggestions {
			b.WriteString("• " + s + "\n")
		}
	}
	return b.String()
}

// FormatWarnings returns "" for no warnings.
func FormatWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("⚠️ Parameter notices:\n")
	for _, w := range warnings {
		b.WriteString("• " + w + "\n")
	}
	return b.String()
}
