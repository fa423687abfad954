package models

// Criterion selects the value a leaderboard is ordered by.
type Criterion string

const (
	CriterionPoints         Criterion = "points"
	CriterionAvgGrade       Criterion = "avg_grade"
	CriterionAttendanceRate Criterion = "attendance_rate"
)

func (c Criterion) Valid() bool {
	return c == CriterionPoints || c == CriterionAvgGrade || c == CriterionAttendanceRate
}

type RankEntry struct {
	StudentID string `json:"student_id"`
	Value     int64  `json:"value"`
	Position  int    `json:"position"`
}
