package attendance

// QualifyingPercentage is the attendance required to sit the course exams.
const QualifyingPercentage = 75.0

// ComputeStats summarizes the attendance of a student in a course.
// TotalSessions counts the course sessions, not the student's records:
// a student without records has a 0% attendance.
func ComputeStats(records []Record, sessions []Session, studentID, courseID string) Stats {
	courseSessions := make(map[string]struct{})
	for _, s := range sessions {
		if s.CourseID == courseID {
			courseSessions[s.ID] = struct{}{}
		}
	}

	attended := make(map[string]struct{})
	for _, r := range records {
		if r.StudentID != studentID || !r.Status.Attended() {
			continue
		}
		if _, ok := courseSessions[r.SessionID]; ok {
			attended[r.SessionID] = struct{}{}
		}
	}

	stats := Stats{
		CourseID:         courseID,
		StudentID:        studentID,
		TotalSessions:    len(courseSessions),
		AttendedSessions: len(attended),
	}
	if stats.TotalSessions > 0 {
		stats.Percentage = float64(stats.AttendedSessions) / float64(stats.TotalSessions) * 100
	}
	stats.Qualifies = stats.Percentage >= QualifyingPercentage
	return stats
}

// ComputeWeeklyBreakdown returns one WeekSummary per session of the course, in the order of sessions.
func ComputeWeeklyBreakdown(records []Record, sessions []Session, courseID string) []WeekSummary {
	bySession := make(map[string][]Record)
	for _, r := range records {
		bySession[r.SessionID] = append(bySession[r.SessionID], r)
	}

	weeks := make([]WeekSummary, 0, len(sessions))
	for _, s := range sessions {
		if s.CourseID != courseID {
			continue
		}
		ws := WeekSummary{SessionID: s.ID, Week: s.Week, Date: s.Date}
		for _, r := range bySession[s.ID] {
			switch r.Status {
			case StatusPresent:
				ws.Present++
			case StatusLate:
				ws.Late++
			case StatusAbsent:
				ws.Absent++
			}
		}
		ws.Total = ws.Present + ws.Late + ws.Absent
		weeks = append(weeks, ws)
	}
	return weeks
}
