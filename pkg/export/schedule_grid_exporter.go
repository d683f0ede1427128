package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/sma-adp-api/internal/engine"
)

// gridDays is the fixed weekday order a schedule grid renders in.
// Friday never appears.
var gridDays = []engine.Day{
	engine.Saturday, engine.Sunday, engine.Monday,
	engine.Tuesday, engine.Wednesday, engine.Thursday,
}

// ScheduleGridExporter renders an engine.Result as a weekly day-by-slot
// grid PDF, one cell per (day, slot number) holding every TA/course
// assignment occupying it.
type ScheduleGridExporter struct{}

// NewScheduleGridExporter builds a schedule grid exporter.
func NewScheduleGridExporter() *ScheduleGridExporter {
	return &ScheduleGridExporter{}
}

// Render lays result's assignments out on a grid with one row per slot
// number present in the schedule and one column per weekday.
func (e *ScheduleGridExporter) Render(result *engine.Result, title string) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("schedule grid requires a result")
	}

	maxSlot := 0
	cells := make(map[engine.DaySlot][]engine.Assignment)
	for _, a := range result.Schedule.Assignments {
		ds := a.Slot.DaySlot()
		cells[ds] = append(cells[ds], a)
		if ds.SlotNumber > maxSlot {
			maxSlot = ds.SlotNumber
		}
	}
	if maxSlot == 0 {
		maxSlot = 1
	}

	courseNames := make(map[string]string, len(result.Schedule.Courses))
	for _, c := range result.Schedule.Courses {
		courseNames[c.ID] = c.Name
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	timeColWidth := 22.0
	dayColWidth := (277.0 - timeColWidth) / float64(len(gridDays))

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(timeColWidth, 8, "Slot", "1", 0, "C", false, 0, "")
	for _, day := range gridDays {
		pdf.CellFormat(dayColWidth, 8, dayTitle(day), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for slotNum := 1; slotNum <= maxSlot; slotNum++ {
		pdf.CellFormat(timeColWidth, 18, fmt.Sprintf("Slot %d", slotNum), "1", 0, "C", false, 0, "")
		for _, day := range gridDays {
			ds := engine.DaySlot{Day: day, SlotNumber: slotNum}
			pdf.CellFormat(dayColWidth, 18, gridCellText(cells[ds], courseNames), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render schedule grid: %w", err)
	}
	return buf.Bytes(), nil
}

func gridCellText(assignments []engine.Assignment, courseNames map[string]string) string {
	if len(assignments) == 0 {
		return "-"
	}
	text := ""
	limit := assignments
	truncated := false
	if len(limit) > 3 {
		limit = limit[:3]
		truncated = true
	}
	for i, a := range limit {
		if i > 0 {
			text += "; "
		}
		name := courseNames[a.CourseID]
		if name == "" {
			name = a.CourseID
		}
		text += fmt.Sprintf("%s(%s)", a.TAID, name)
	}
	if truncated {
		text += "..."
	}
	return text
}

func dayTitle(day engine.Day) string {
	switch day {
	case engine.Saturday:
		return "Saturday"
	case engine.Sunday:
		return "Sunday"
	case engine.Monday:
		return "Monday"
	case engine.Tuesday:
		return "Tuesday"
	case engine.Wednesday:
		return "Wednesday"
	case engine.Thursday:
		return "Thursday"
	default:
		return string(day)
	}
}
