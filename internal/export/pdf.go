package export

import (
	"bytes"
	"fmt"
	"strconv"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/wizard"
)

const (
	pdfMargin  = 40.0
	keyWidth   = 120.0
	lineHeight = 12.0
	cellPad    = 4.0
	bodySize   = 10.0
)

// Document is a rendered PDF report.
type Document struct {
	Data  []byte
	Pages int
}

// PDF renders a completed session as an A4 report with one section per
// stage.
func (r *Renderer) PDF(st wizard.State) (*Document, error) {
	if err := checkComplete(st); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(r.title, true)
	pdf.SetCreator("idea-wizard-agent", true)

	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	w.pageW, w.pageH = pdf.GetPageSize()
	pdf.AddPage()

	w.title(r.title)
	r.marketSection(w, st)
	r.recommendationSection(w, st)
	r.guideSection(w, st)
	r.promoSection(w, st)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	data := buf.Bytes()
	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("count pdf pages: %w", err)
	}

	return &Document{Data: data, Pages: pages}, nil
}

func (r *Renderer) marketSection(w *pdfWriter, st wizard.State) {
	w.section(sectionTitles[0])
	for _, kv := range r.marketParams(st.Market.Inputs) {
		w.keyValue(kv[0]+":", kv[1])
	}
	w.space(10)

	result := st.Market.Result
	w.text(result.Summary)
	w.space(10)

	w.subheading("Identified Market Needs:")
	for _, need := range result.MarketNeeds {
		w.keyValue(fmt.Sprintf("- %s (Score: %d)", need.Need, need.Score), need.Description)
	}

	if len(result.Sources) > 0 {
		w.space(10)
		w.subheading("Sources:")
		for _, src := range result.Sources {
			label := src.Title
			if label == "" {
				label = src.URI
			}
			w.text("- " + label + " (" + src.URI + ")")
		}
	}
}

func (r *Renderer) recommendationSection(w *pdfWriter, st wizard.State) {
	w.section(sectionTitles[1])
	need := st.Market.SelectedNeed
	w.keyValue("Selected Need:", need.Need+" - "+need.Description)
	w.space(10)

	w.subheading("In-Depth Analysis:")
	if st.Recommendation.Analysis != nil {
		w.text(PlainText(st.Recommendation.Analysis.Content))
	}
	w.space(10)

	w.subheading("Recommended Products:")
	for _, p := range st.Recommendation.Products {
		w.keyValue(fmt.Sprintf("- %s (Score: %d)", p.Name, p.Score),
			"Benefits: "+p.Benefits+"\nWeaknesses: "+p.Weaknesses)
	}
}

func (r *Renderer) guideSection(w *pdfWriter, st wizard.State) {
	w.section(sectionTitles[2])
	w.keyValue("Selected Product:", st.Recommendation.SelectedProduct.Name)
	w.space(15)

	guide := st.Guide.Guide
	rows := make([][]string, 0, len(guide.Steps)+1)
	for _, s := range guide.Steps {
		rows = append(rows, []string{strconv.Itoa(s.Phase), s.Activity, s.EstimatedTime, r.money.Number(s.EstimatedCost)})
	}
	rows = append(rows, []string{"", "Total", "", r.money.Number(guide.TotalCost())})
	w.table(mvpColumns, []float64{0.1, 0.5, 0.2, 0.2}, rows)
}

func (r *Renderer) promoSection(w *pdfWriter, st wizard.State) {
	w.section(sectionTitles[3])
	in := st.Promo.Inputs
	w.keyValue("Promotion Period:", in.StartDate+" to "+in.EndDate)
	w.space(15)

	strategy := st.Promo.Strategy
	rows := make([][]string, 0, len(strategy.Plan)+1)
	for _, p := range strategy.Plan {
		rows = append(rows, []string{p.Timeline, p.Activity, p.Tools, r.money.Number(p.EstimatedCost), p.Deadline})
	}
	rows = append(rows, []string{"", "Total", "", r.money.Number(strategy.TotalCost()), ""})
	w.table(promoColumns, []float64{0.15, 0.35, 0.2, 0.15, 0.15}, rows)
}

// pdfWriter lays out blocks top to bottom, breaking pages before a block
// would cross the bottom margin. Text is encoded for the core fonts, which
// address glyphs by single byte.
type pdfWriter struct {
	pdf          *fpdf.Fpdf
	tr           func(string) string
	pageW, pageH float64
}

func (w *pdfWriter) contentWidth() float64 { return w.pageW - 2*pdfMargin }

func (w *pdfWriter) ensure(h float64) {
	if w.pdf.GetY()+h > w.pageH-pdfMargin {
		w.pdf.AddPage()
	}
}

func (w *pdfWriter) space(h float64) {
	w.pdf.SetY(w.pdf.GetY() + h)
}

func (w *pdfWriter) title(s string) {
	w.pdf.SetFont("Helvetica", "B", 24)
	w.pdf.SetTextColor(15, 23, 42)
	w.pdf.CellFormat(0, 30, w.tr(s), "", 1, "C", false, 0, "")
	w.space(10)
}

func (w *pdfWriter) section(s string) {
	w.ensure(40)
	w.pdf.SetFont("Helvetica", "B", 16)
	w.pdf.SetTextColor(0, 188, 212)
	w.pdf.CellFormat(0, 20, w.tr(s), "", 1, "L", false, 0, "")

	y := w.pdf.GetY() + 2
	w.pdf.SetDrawColor(226, 232, 240)
	w.pdf.Line(pdfMargin, y, w.pageW-pdfMargin, y)
	w.pdf.SetY(y + 8)
	w.pdf.SetTextColor(45, 55, 72)
}

func (w *pdfWriter) subheading(s string) {
	w.ensure(20)
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.CellFormat(0, 15, w.tr(s), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) text(s string) {
	w.pdf.SetFont("Helvetica", "", bodySize)
	for _, line := range w.split(s, w.contentWidth()) {
		w.ensure(lineHeight)
		w.pdf.CellFormat(0, lineHeight, line, "", 1, "L", false, 0, "")
	}
}

func (w *pdfWriter) keyValue(key, value string) {
	valueW := w.contentWidth() - keyWidth
	w.pdf.SetFont("Helvetica", "", bodySize)
	lines := w.split(value, valueW)
	w.pdf.SetFont("Helvetica", "B", bodySize)
	keyLines := w.split(key, keyWidth)

	n := max(len(lines), len(keyLines), 1)
	// Short pairs stay together; longer ones break wherever the page ends.
	if n <= w.pageLines() {
		w.ensure(float64(n) * lineHeight)
	}

	for i := range n {
		w.ensure(lineHeight)
		y := w.pdf.GetY()
		if i < len(keyLines) {
			w.pdf.SetFont("Helvetica", "B", bodySize)
			w.pdf.SetXY(pdfMargin, y)
			w.pdf.CellFormat(keyWidth, lineHeight, keyLines[i], "", 0, "L", false, 0, "")
		}
		if i < len(lines) {
			w.pdf.SetFont("Helvetica", "", bodySize)
			w.pdf.SetXY(pdfMargin+keyWidth, y)
			w.pdf.CellFormat(valueW, lineHeight, lines[i], "", 0, "L", false, 0, "")
		}
		w.pdf.SetXY(pdfMargin, y+lineHeight)
	}
	w.space(5)
}

// pageLines is how many body lines fit between the margins of one page.
func (w *pdfWriter) pageLines() int {
	return int((w.pageH - 2*pdfMargin - 2*cellPad) / lineHeight)
}

// table draws a grid with a shaded header row. ratios split the content
// width between columns.
func (w *pdfWriter) table(header []string, ratios []float64, rows [][]string) {
	widths := make([]float64, len(ratios))
	for i, r := range ratios {
		widths[i] = r * w.contentWidth()
	}

	w.pdf.SetDrawColor(180, 180, 180)
	w.pdf.SetFillColor(41, 128, 185)
	w.row(header, widths, true)
	for _, row := range rows {
		w.row(row, widths, false)
	}
	w.space(20)
}

// row draws one table row. A row taller than the space left on the page
// moves to the next page when it fits there whole; otherwise it is split
// across pages with each part drawn as its own cell box.
func (w *pdfWriter) row(cells []string, widths []float64, header bool) {
	style, fill := "", "D"
	if header {
		style, fill = "B", "FD"
		w.pdf.SetTextColor(255, 255, 255)
	} else {
		w.pdf.SetTextColor(45, 55, 72)
	}
	w.pdf.SetFont("Helvetica", style, 9)

	lines := make([][]string, len(cells))
	n := 1
	for i, c := range cells {
		lines[i] = w.split(c, widths[i]-2*cellPad)
		n = max(n, len(lines[i]))
	}

	for start := 0; start < n; {
		fit := int((w.pageH - pdfMargin - w.pdf.GetY() - 2*cellPad) / lineHeight)
		if fit < 1 || (fit < n-start && n-start <= w.pageLines()) {
			w.pdf.AddPage()
			continue
		}
		chunk := min(fit, n-start)
		h := float64(chunk)*lineHeight + 2*cellPad

		x, y := pdfMargin, w.pdf.GetY()
		for i := range cells {
			w.pdf.Rect(x, y, widths[i], h, fill)
			for j := start; j < start+chunk && j < len(lines[i]); j++ {
				w.pdf.SetXY(x+cellPad, y+cellPad+float64(j-start)*lineHeight)
				w.pdf.CellFormat(widths[i]-2*cellPad, lineHeight, lines[i][j], "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		w.pdf.SetXY(pdfMargin, y+h)
		start += chunk
	}
	w.pdf.SetTextColor(45, 55, 72)
}

// split wraps s to width in the current font and returns encoded lines.
func (w *pdfWriter) split(s string, width float64) []string {
	if s == "" {
		return nil
	}
	wrapped := w.pdf.SplitText(widen(w.tr(s)), width)
	out := make([]string, len(wrapped))
	for i, line := range wrapped {
		out[i] = narrow(line)
	}
	return out
}

// widen maps each byte of an encoded string to the rune of the same value,
// the form the font width tables are indexed by.
func widen(encoded string) string {
	rs := make([]rune, len(encoded))
	for i := 0; i < len(encoded); i++ {
		rs[i] = rune(encoded[i])
	}
	return string(rs)
}

func narrow(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		b = append(b, byte(r))
	}
	return string(b)
}
