package util

import (
	"strings"
	"time"
)

// dateTplTokens is ordered so longer tokens are replaced before their prefixes.
var dateTplTokens = []struct{ tpl, layout string }{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"hh", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// FormatDateTpl formats t using a template with placeholders
// YYYY, YY, MM, DD, hh, mm, ss. A zero time yields "".
//
//	FormatDateTpl(t, "YYYY-MM-DD hh:mm") // "2023-11-10 00:00"
func FormatDateTpl(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	goTpl := tpl
	for _, r := range dateTplTokens {
		goTpl = strings.ReplaceAll(goTpl, r.tpl, r.layout)
	}
	return t.Format(goTpl)
}
