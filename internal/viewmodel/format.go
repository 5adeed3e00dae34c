package viewmodel

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// groupInt renders n with thousands separators ("1,000,000").
func groupInt(n int64) string {
	return printer.Sprintf("%d", n)
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
