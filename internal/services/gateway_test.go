package services

import (
	"context"
	"testing"

	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func gradeReq(answerID string, oldGrade *int, newGrade int) AdjustRequest {
	return AdjustRequest{Kind: KindGrade, HomeworkAnswerID: answerID, OldGrade: oldGrade, NewGrade: intPtr(newGrade)}
}

func TestGateway_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryLedger("stu-1")
	gw := NewGateway(svc, 1000)
	catalog := NewStaticPrizeCatalog(
		models.Prize{ID: "sticker", Name: "Sticker", Cost: 0, Active: true},
		models.Prize{ID: "pencil", Name: "Pencil", Cost: 1, Active: true},
	)
	redemptions := NewRedemptionService(svc, catalog, quietAudit())

	res, err := gw.Submit(ctx, "stu-1", AdjustRequest{Kind: KindAttendance, LessonID: "lesson-1", Present: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.NewBalance)

	res, err = gw.Submit(ctx, "stu-1", gradeReq("hw-1", nil, 85))
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.NewBalance)

	res, err = gw.Submit(ctx, "stu-1", gradeReq("hw-1", intPtr(85), 45))
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.NewBalance)
	require.Len(t, res.Records, 2)
	assert.Equal(t, models.SourceHomeworkRegradeRevoke, res.Records[0].Source)
	assert.Equal(t, int64(-5), res.Records[0].Delta)
	assert.Equal(t, models.SourceHomeworkGrade, res.Records[1].Source)
	assert.Equal(t, int64(3), res.Records[1].Delta)
	assert.Equal(t, res.Records[1].ID, res.RecordID)

	res, err = gw.Submit(ctx, "stu-1", AdjustRequest{Kind: KindRemark, RemarkID: "rem-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.NewBalance)
	assert.True(t, res.Records[0].Clamped)

	rec, err := redemptions.Redeem(ctx, "stu-1", "sticker")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.CostAtRedemption)

	_, err = redemptions.Redeem(ctx, "stu-1", "pencil")
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	balance, _ := svc.GetBalance(ctx, "stu-1")
	replayed, _ := svc.Replay(ctx, "stu-1")
	assert.Equal(t, int64(0), balance)
	assert.Equal(t, balance, replayed)
}

func TestGateway_Regrade(t *testing.T) {
	ctx := context.Background()

	t.Run("repeated regrades never double count", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		gw := NewGateway(svc, 1000)

		grades := []int{85, 45, 45, 100, 10, 0, 79, 80, 80}
		for _, g := range grades {
			res, err := gw.SubmitGrade(ctx, "stu-1", GradeEvent{HomeworkAnswerID: "hw-1", NewGrade: intPtr(g)})
			require.NoError(t, err)
			assert.Equal(t, ledger.PointsForGrade(g), res.NewBalance, "grade %d", g)
		}
	})

	t.Run("equal tier is a no-op", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		gw := NewGateway(svc, 1000)

		_, err := gw.SubmitGrade(ctx, "stu-1", GradeEvent{HomeworkAnswerID: "hw-1", NewGrade: intPtr(81)})
		require.NoError(t, err)
		res, err := gw.SubmitGrade(ctx, "stu-1", GradeEvent{HomeworkAnswerID: "hw-1", OldGrade: intPtr(81), NewGrade: intPtr(95)})
		require.NoError(t, err)
		assert.Empty(t, res.Records)
		assert.Equal(t, "", res.RecordID)
		assert.Equal(t, int64(5), res.NewBalance)
	})

	t.Run("stale old grade from caller is ignored", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		gw := NewGateway(svc, 1000)

		_, err := gw.SubmitGrade(ctx, "stu-1", GradeEvent{HomeworkAnswerID: "hw-1", NewGrade: intPtr(90)})
		require.NoError(t, err)
		res, err := gw.SubmitGrade(ctx, "stu-1", GradeEvent{HomeworkAnswerID: "hw-1", OldGrade: intPtr(10), NewGrade: intPtr(65)})
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.NewBalance)
	})

	t.Run("answers are tracked separately", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		gw := NewGateway(svc, 1000)

		_, _ = gw.SubmitGrade(ctx, "stu-1", GradeEvent{HomeworkAnswerID: "hw-1", NewGrade: intPtr(90)})
		res, err := gw.SubmitGrade(ctx, "stu-1", GradeEvent{HomeworkAnswerID: "hw-2", NewGrade: intPtr(50)})
		require.NoError(t, err)
		assert.Equal(t, int64(8), res.NewBalance)
	})

	t.Run("grades outside range are rejected", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		gw := NewGateway(svc, 1000)

		_, err := gw.Submit(ctx, "stu-1", gradeReq("hw-1", nil, 101))
		assert.ErrorIs(t, err, ledger.ErrInvalidDelta)
		_, err = gw.Submit(ctx, "stu-1", gradeReq("hw-1", intPtr(-1), 50))
		assert.ErrorIs(t, err, ledger.ErrInvalidDelta)
		_, err = gw.Submit(ctx, "stu-1", AdjustRequest{Kind: KindGrade, HomeworkAnswerID: "hw-1"})
		assert.ErrorIs(t, err, ledger.ErrInvalidDelta)

		history, _ := svc.History(ctx, "stu-1", 0)
		assert.Empty(t, history)
	})
}

func TestGateway_Attendance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryLedger("stu-1")
	gw := NewGateway(svc, 1000)

	steps := []struct {
		name       string
		ev         AttendanceEvent
		balance    int64
		recordsLen int
	}{
		{"present", AttendanceEvent{LessonID: "l-1", Present: true}, 1, 1},
		{"repeated present", AttendanceEvent{LessonID: "l-1", Present: true}, 1, 0},
		{"other lesson", AttendanceEvent{LessonID: "l-2", Present: true}, 2, 1},
		{"corrected to absent", AttendanceEvent{LessonID: "l-1", Present: false, IsCorrection: true}, 1, 1},
		{"absent again", AttendanceEvent{LessonID: "l-1", Present: false}, 1, 0},
		{"present again", AttendanceEvent{LessonID: "l-1", Present: true}, 2, 1},
		{"absent never present", AttendanceEvent{LessonID: "l-3", Present: false}, 2, 0},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			res, err := gw.SubmitAttendance(ctx, "stu-1", step.ev)
			require.NoError(t, err)
			assert.Equal(t, step.balance, res.NewBalance)
			assert.Len(t, res.Records, step.recordsLen)
		})
	}

	history, _ := svc.History(ctx, "stu-1", 0)
	assert.Equal(t, models.SourceAttendanceRevoke, history[2].Source)
	assert.Equal(t, "correction", history[2].Note)
}

func TestGateway_Remark(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryLedger("stu-1")
	gw := NewGateway(svc, 1000)
	_, _, _ = svc.Apply(ctx, "stu-1", 12, models.SourceManualAdmin, "m-1")

	res, err := gw.SubmitRemark(ctx, "stu-1", RemarkEvent{RemarkID: "rem-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.NewBalance)

	res, err = gw.SubmitRemark(ctx, "stu-1", RemarkEvent{RemarkID: "rem-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.NewBalance)
	assert.Empty(t, res.Records)

	_, err = gw.SubmitRemark(ctx, "stu-1", RemarkEvent{})
	assert.ErrorIs(t, err, ledger.ErrInvalidDelta)
}

func TestGateway_Manual(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryLedger("stu-1")
	gw := NewGateway(svc, 100)

	res, err := gw.Submit(ctx, "stu-1", AdjustRequest{Kind: KindManual, Delta: 40, Reason: "science fair"})
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.NewBalance)
	assert.Equal(t, "science fair", res.Records[0].Note)
	assert.NotEmpty(t, res.Records[0].SourceRef)

	res, err = gw.Submit(ctx, "stu-1", AdjustRequest{Kind: KindManual, Delta: 40, Reason: "science fair"})
	require.NoError(t, err)
	assert.Equal(t, int64(80), res.NewBalance, "each manual call is a distinct event")

	_, err = gw.Submit(ctx, "stu-1", AdjustRequest{Kind: KindManual, Delta: 0, Reason: "nothing"})
	assert.ErrorIs(t, err, ledger.ErrInvalidDelta)
	_, err = gw.Submit(ctx, "stu-1", AdjustRequest{Kind: KindManual, Delta: -101, Reason: "too much"})
	assert.ErrorIs(t, err, ledger.ErrInvalidDelta)
	_, err = gw.Submit(ctx, "stu-1", AdjustRequest{Kind: KindManual, Delta: 5})
	assert.ErrorIs(t, err, ledger.ErrInvalidDelta)
}

func TestGateway_UnknownKind(t *testing.T) {
	svc, _ := newMemoryLedger("stu-1")
	gw := NewGateway(svc, 100)

	_, err := gw.Submit(context.Background(), "stu-1", AdjustRequest{Kind: "bonus"})
	assert.ErrorIs(t, err, ledger.ErrInvalidDelta)
}
