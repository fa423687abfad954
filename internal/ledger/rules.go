// Package ledger holds the point rules shared by every workflow that touches a
// student's balance. Nothing here reads or writes state.
package ledger

import "github.com/classpoints/backend/internal/models"

const (
	MinGrade = 0
	MaxGrade = 100

	// RemarkPenalty is the fixed cost of a disciplinary remark.
	RemarkPenalty int64 = -5
)

// gradeTiers is ordered from the highest threshold down.
var gradeTiers = []struct {
	threshold int
	points    int64
}{
	{80, 5},
	{60, 4},
	{40, 3},
	{20, 2},
	{1, 1},
}

// PointsForGrade maps a grade in [0,100] to a tier in [0,5]. Range checking is
// the caller's job.
func PointsForGrade(grade int) int64 {
	for _, tier := range gradeTiers {
		if grade >= tier.threshold {
			return tier.points
		}
	}
	return 0
}

// ValidGrade reports whether grade can be tiered.
func ValidGrade(grade int) bool {
	return grade >= MinGrade && grade <= MaxGrade
}

// AttendanceDelta is the award for a present mark. An absent mark earns nothing;
// withdrawing an earlier award goes through AttendanceRevokeDelta.
func AttendanceDelta(present bool) int64 {
	if present {
		return 1
	}
	return 0
}

func AttendanceRevokeDelta() int64 {
	return -AttendanceDelta(true)
}

func RemarkPenaltyDelta() int64 {
	return RemarkPenalty
}

// Adjustment is a delta proposed by a rule, not yet applied.
type Adjustment struct {
	Delta     int64
	Source    models.Source
	SourceRef string
	Note      string
}

// RegradeAdjustments returns the ordered adjustments that move a homework answer
// from its applied tier to the tier of newGrade: revoke whatever is applied, then
// award the new tier. Zero-valued steps are omitted, so equal tiers yield nothing.
func RegradeAdjustments(sourceRef string, appliedTier int64, newGrade int) []Adjustment {
	newTier := PointsForGrade(newGrade)
	if appliedTier == newTier {
		return nil
	}

	var adjustments []Adjustment
	if appliedTier != 0 {
		adjustments = append(adjustments, Adjustment{
			Delta:     -appliedTier,
			Source:    models.SourceHomeworkRegradeRevoke,
			SourceRef: sourceRef,
		})
	}
	if newTier != 0 {
		adjustments = append(adjustments, Adjustment{
			Delta:     newTier,
			Source:    models.SourceHomeworkGrade,
			SourceRef: sourceRef,
		})
	}
	return adjustments
}

// Clamp applies delta to balance with a floor of zero. The second result reports
// whether the floor was hit.
func Clamp(balance, delta int64) (int64, bool) {
	next := balance + delta
	if next < 0 {
		return 0, true
	}
	return next, false
}

// Replay folds records in creation order with the clamp rule.
func Replay(records []models.AdjustmentRecord) int64 {
	var balance int64
	for _, rec := range records {
		balance, _ = Clamp(balance, rec.Delta)
	}
	return balance
}
