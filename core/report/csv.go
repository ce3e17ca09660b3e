package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/trezcool/sajili/core/course"
)

var csvHeader = []string{
	"Matric Number", "Name", "Department", "Level", "Total Sessions", "Attended", "Percentage", "Status",
}

// Filename is the name of the CSV export of a course report, e.g. "COM_101_attendance_report.csv".
func Filename(crs course.Course) string {
	return strings.ReplaceAll(crs.Code, " ", "_") + "_attendance_report.csv"
}

// WriteCSV exports the rows of a course report.
func WriteCSV(w io.Writer, rep CourseReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rep.Rows {
		status := "Disqualified"
		if row.Stats.Qualifies {
			status = "Qualified"
		}
		if err := cw.Write([]string{
			row.Student.MatricNumber,
			row.Student.FullName(),
			row.Student.Department,
			row.Student.Level,
			strconv.Itoa(row.Stats.TotalSessions),
			strconv.Itoa(row.Stats.AttendedSessions),
			fmt.Sprintf("%.1f%%", row.Stats.Percentage),
			status,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
