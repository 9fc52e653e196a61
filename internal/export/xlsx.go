package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/wizard"
)

var (
	mvpSheetColumns   = []string{"Phase", "Activity", "Detail", "Estimated Time", "Estimated Cost (Rp)"}
	promoSheetColumns = []string{"Timeline", "Activity", "Notes", "Tools", "Estimated Time", "Estimated Cost (Rp)", "Deadline"}
)

// XLSX renders a completed session as a workbook with one sheet per stage.
func (r *Renderer) XLSX(st wizard.State) ([]byte, error) {
	if err := checkComplete(st); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, fmt.Errorf("create wrap style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sectionTitles[0]); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range sectionTitles[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	builders := []func(*sheet, wizard.State){
		r.marketSheet,
		r.recommendationSheet,
		r.guideSheet,
		r.promoSheet,
	}
	for i, build := range builders {
		s := &sheet{f: f, name: sectionTitles[i], bold: bold, wrap: wrap}
		build(s, st)
		if s.err != nil {
			return nil, fmt.Errorf("write sheet %q: %w", s.name, s.err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) marketSheet(s *sheet, st wizard.State) {
	result := st.Market.Result

	s.add(true, "Market Analysis")
	s.add(false)
	s.add(true, "Parameter", "Value")
	for _, kv := range r.marketParams(st.Market.Inputs) {
		s.add(false, kv[0], kv[1])
	}
	s.add(false)
	s.add(true, "Analysis Summary")
	s.add(false, result.Summary)
	s.add(false)
	s.add(true, "Identified Market Needs")
	s.add(true, "Need", "Description", "Score")
	for _, n := range result.MarketNeeds {
		s.add(false, n.Need, n.Description, n.Score)
	}

	if len(result.Sources) > 0 {
		s.add(false)
		s.add(true, "Sources")
		s.add(true, "Title", "URI")
		for _, src := range result.Sources {
			s.add(false, src.Title, src.URI)
		}
	}

	s.fixedWidths(25, 60, 10)
}

func (r *Renderer) recommendationSheet(s *sheet, st wizard.State) {
	need := st.Market.SelectedNeed

	s.add(true, "Product Recommendations")
	s.add(false)
	s.add(false, "Selected Market Need", need.Need)
	s.add(false, "Description", need.Description)
	s.add(false)
	s.add(true, "In-Depth Analysis")
	if st.Recommendation.Analysis != nil {
		s.add(false, PlainText(st.Recommendation.Analysis.Content))
	}
	s.add(false)
	s.add(true, "Recommended Products")
	s.add(true, "Product Name", "Score", "Benefits", "Weaknesses")
	for _, p := range st.Recommendation.Products {
		s.add(false, p.Name, p.Score, p.Benefits, p.Weaknesses)
	}

	s.fixedWidths(30, 10, 50, 50)
}

func (r *Renderer) guideSheet(s *sheet, st wizard.State) {
	s.add(true, toCells(mvpSheetColumns)...)
	for _, step := range st.Guide.Guide.Steps {
		s.add(false, step.Phase, step.Activity, step.Detail, step.EstimatedTime, r.money.Number(step.EstimatedCost))
	}
	s.autoWidths()
}

func (r *Renderer) promoSheet(s *sheet, st wizard.State) {
	s.add(true, toCells(promoSheetColumns)...)
	for _, p := range st.Promo.Strategy.Plan {
		s.add(false, p.Timeline, p.Activity, p.Notes, p.Tools, p.EstimatedTime, r.money.Number(p.EstimatedCost), p.Deadline)
	}
	s.autoWidths()
}

// maxCellWidth is the widest a column is sized to. Longer cells wrap.
const maxCellWidth = excelize.MaxColumnWidth

// sheet appends rows to one worksheet and remembers the first error.
type sheet struct {
	f      *excelize.File
	name   string
	bold   int
	wrap   int
	row    int
	widths []int
	err    error
}

func (s *sheet) add(bold bool, cells ...any) {
	s.row++
	if s.err != nil || len(cells) == 0 {
		return
	}

	start, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		s.err = err
		return
	}
	if s.err = s.f.SetSheetRow(s.name, start, &cells); s.err != nil {
		return
	}

	for i, c := range cells {
		n := utf8.RuneCountInString(fmt.Sprint(c))
		if i >= len(s.widths) {
			s.widths = append(s.widths, n)
		} else {
			s.widths[i] = max(s.widths[i], n)
		}
	}

	if bold {
		end, err := excelize.CoordinatesToCellName(len(cells), s.row)
		if err != nil {
			s.err = err
			return
		}
		s.err = s.f.SetCellStyle(s.name, start, end, s.bold)
		return
	}

	for i, c := range cells {
		if utf8.RuneCountInString(fmt.Sprint(c))+2 <= maxCellWidth {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			s.err = err
			return
		}
		if s.err = s.f.SetCellStyle(s.name, cell, cell, s.wrap); s.err != nil {
			return
		}
	}
}

func (s *sheet) fixedWidths(widths ...float64) {
	for i, w := range widths {
		s.setWidth(i+1, w)
	}
}

// autoWidths sizes every column to its longest cell plus two characters,
// up to maxCellWidth.
func (s *sheet) autoWidths() {
	for i, n := range s.widths {
		s.setWidth(i+1, min(float64(n+2), maxCellWidth))
	}
}

func (s *sheet) setWidth(col int, width float64) {
	if s.err != nil {
		return
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetColWidth(s.name, name, name, width)
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
