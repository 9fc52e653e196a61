// Package locale formats numbers and currency amounts for a language tag.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultTag is used when no locale is configured.
const DefaultTag = "id"

// Formatter renders integers with the thousands separators of its locale.
type Formatter struct {
	printer *message.Printer
}

// New returns a Formatter for tag. Unknown or malformed tags fall back to
// DefaultTag.
func New(tag string) *Formatter {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.MustParse(DefaultTag)
	}
	return &Formatter{printer: message.NewPrinter(t)}
}

// Number formats n with grouping, e.g. 1500000 -> "1.500.000" for "id".
func (f *Formatter) Number(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// Rupiah formats n as an amount in rupiah, e.g. "Rp 1.500.000".
func (f *Formatter) Rupiah(n int64) string {
	return "Rp " + f.Number(n)
}

// Capital renders an optional capital amount; zero means unspecified.
func (f *Formatter) Capital(n int64, unspecified string) string {
	if n <= 0 {
		return unspecified
	}
	return f.Rupiah(n)
}
