// Package export renders a completed wizard session as a PDF document or an
// XLSX workbook.
package export

import (
	"fmt"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/locale"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/wizard"
)

const (
	DefaultTitle = "Product Idea Report"

	PDFFilename  = "product_idea_report.pdf"
	XLSXFilename = "product_idea_report.xlsx"

	PDFContentType  = "application/pdf"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	notSpecified = "Not specified"
)

// Section headings, in stage order. The workbook uses them as sheet names.
var sectionTitles = [...]string{
	"1. Market Analysis",
	"2. Product Recommendations",
	"3. MVP Guide",
	"4. Promotion Strategy",
}

var (
	mvpColumns   = []string{"Phase", "Activity", "Time", "Cost (Rp)"}
	promoColumns = []string{"Timeline", "Activity", "Tools", "Cost (Rp)", "Deadline"}
)

type Renderer struct {
	title string
	money *locale.Formatter
}

func New(title string, money *locale.Formatter) *Renderer {
	if title == "" {
		title = DefaultTitle
	}
	if money == nil {
		money = locale.New(locale.DefaultTag)
	}
	return &Renderer{title: title, money: money}
}

func (r *Renderer) Title() string { return r.title }

// marketParams are the key/value rows describing the market inputs.
func (r *Renderer) marketParams(in models.MarketInputs) [][2]string {
	return [][2]string{
		{"Location", orUnspecified(in.Location)},
		{"Industry", orUnspecified(in.Industry())},
		{"Target Audience", orUnspecified(in.Audience)},
		{"Business Scale", orUnspecified(in.Scale)},
		{"Capital", r.money.Capital(in.Capital, notSpecified)},
	}
}

func checkComplete(st wizard.State) error {
	if !st.Complete() {
		return fmt.Errorf("%w: session %s", wizard.ErrReportIncomplete, st.ID)
	}
	return nil
}

func orUnspecified(s string) string {
	if s == "" {
		return notSpecified
	}
	return s
}
