package services

import (
	"context"
	"fmt"
	"log"

	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/classpoints/backend/internal/store"
	"github.com/google/uuid"
)

// Kinds accepted by the adjustment gateway.
const (
	KindGrade      = "grade"
	KindAttendance = "attendance"
	KindRemark     = "remark"
	KindManual     = "manual"
)

type GradeEvent struct {
	HomeworkAnswerID string `json:"homework_answer_id" validate:"required,max=128"`
	OldGrade         *int   `json:"old_grade"`
	NewGrade         *int   `json:"new_grade" validate:"required"`
}

type AttendanceEvent struct {
	LessonID     string `json:"lesson_id" validate:"required,max=128"`
	Present      bool   `json:"present"`
	IsCorrection bool   `json:"is_correction"`
}

type RemarkEvent struct {
	RemarkID string `json:"remark_id" validate:"required,max=128"`
}

type ManualEvent struct {
	Delta  int64  `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// AdjustRequest is the tagged-variant body of an adjustment call. Only the
// fields belonging to Kind are read.
type AdjustRequest struct {
	Kind string `json:"kind" validate:"required,oneof=grade attendance remark manual"`

	HomeworkAnswerID string `json:"homework_answer_id,omitempty"`
	OldGrade         *int   `json:"old_grade,omitempty"`
	NewGrade         *int   `json:"new_grade,omitempty"`

	LessonID     string `json:"lesson_id,omitempty"`
	Present      bool   `json:"present,omitempty"`
	IsCorrection bool   `json:"is_correction,omitempty"`

	RemarkID string `json:"remark_id,omitempty"`

	Delta  int64  `json:"delta,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type AdjustResponse struct {
	StudentID  string                    `json:"student_id"`
	NewBalance int64                     `json:"new_balance"`
	RecordID   string                    `json:"record_id"`
	Records    []models.AdjustmentRecord `json:"records"`
}

// Gateway turns collaborator events into ledger adjustments. Every decision that
// depends on what was applied before is made inside the account's critical
// section, from the log itself.
type Gateway struct {
	ledger         *LedgerService
	validator      *ValidationHelper
	maxManualDelta int64
}

func NewGateway(ledgerService *LedgerService, maxManualDelta int64) *Gateway {
	return &Gateway{
		ledger:         ledgerService,
		validator:      NewValidationHelper(),
		maxManualDelta: maxManualDelta,
	}
}

func (g *Gateway) Submit(ctx context.Context, studentID string, req AdjustRequest) (*AdjustResponse, error) {
	if err := g.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrInvalidDelta, err)
	}

	switch req.Kind {
	case KindGrade:
		return g.SubmitGrade(ctx, studentID, GradeEvent{
			HomeworkAnswerID: req.HomeworkAnswerID,
			OldGrade:         req.OldGrade,
			NewGrade:         req.NewGrade,
		})
	case KindAttendance:
		return g.SubmitAttendance(ctx, studentID, AttendanceEvent{
			LessonID:     req.LessonID,
			Present:      req.Present,
			IsCorrection: req.IsCorrection,
		})
	case KindRemark:
		return g.SubmitRemark(ctx, studentID, RemarkEvent{RemarkID: req.RemarkID})
	default:
		return g.SubmitManual(ctx, studentID, ManualEvent{Delta: req.Delta, Reason: req.Reason})
	}
}

// SubmitGrade moves a homework answer to the tier of its new grade. The applied
// tier is the net of grade and revoke records for the answer, so repeated or
// out-of-date submissions never double count.
func (g *Gateway) SubmitGrade(ctx context.Context, studentID string, ev GradeEvent) (*AdjustResponse, error) {
	if err := g.validator.ValidateStruct(ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrInvalidDelta, err)
	}
	if !ledger.ValidGrade(*ev.NewGrade) {
		return nil, fmt.Errorf("%w: grade %d outside [%d,%d]", ledger.ErrInvalidDelta, *ev.NewGrade, ledger.MinGrade, ledger.MaxGrade)
	}
	if ev.OldGrade != nil && !ledger.ValidGrade(*ev.OldGrade) {
		return nil, fmt.Errorf("%w: old grade %d outside [%d,%d]", ledger.ErrInvalidDelta, *ev.OldGrade, ledger.MinGrade, ledger.MaxGrade)
	}

	ref := ev.HomeworkAnswerID
	return g.submit(ctx, studentID, func(ctx context.Context, view store.AccountView) (*store.Mutation, error) {
		applied, err := view.NetDelta(ctx, ref, models.SourceHomeworkGrade, models.SourceHomeworkRegradeRevoke)
		if err != nil {
			return nil, err
		}
		if ev.OldGrade != nil && ledger.PointsForGrade(*ev.OldGrade) != applied {
			log.Printf("[GATEWAY] %s/%s: caller old grade %d implies tier %d, ledger has %d applied",
				studentID, ref, *ev.OldGrade, ledger.PointsForGrade(*ev.OldGrade), applied)
		}
		return &store.Mutation{Adjustments: ledger.RegradeAdjustments(ref, applied, *ev.NewGrade)}, nil
	})
}

// SubmitAttendance awards one point per lesson attended and revokes it when the
// mark is corrected away from present. Repeated marks are no-ops.
func (g *Gateway) SubmitAttendance(ctx context.Context, studentID string, ev AttendanceEvent) (*AdjustResponse, error) {
	if err := g.validator.ValidateStruct(ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrInvalidDelta, err)
	}

	note := ""
	if ev.IsCorrection {
		note = "correction"
	}
	ref := ev.LessonID
	return g.submit(ctx, studentID, func(ctx context.Context, view store.AccountView) (*store.Mutation, error) {
		net, err := view.NetDelta(ctx, ref, models.SourceAttendance, models.SourceAttendanceRevoke)
		if err != nil {
			return nil, err
		}
		switch {
		case ev.Present && net <= 0:
			return &store.Mutation{Adjustments: []ledger.Adjustment{{
				Delta: ledger.AttendanceDelta(true), Source: models.SourceAttendance, SourceRef: ref, Note: note,
			}}}, nil
		case !ev.Present && net > 0:
			return &store.Mutation{Adjustments: []ledger.Adjustment{{
				Delta: ledger.AttendanceRevokeDelta(), Source: models.SourceAttendanceRevoke, SourceRef: ref, Note: note,
			}}}, nil
		}
		return nil, nil
	})
}

func (g *Gateway) SubmitRemark(ctx context.Context, studentID string, ev RemarkEvent) (*AdjustResponse, error) {
	if err := g.validator.ValidateStruct(ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrInvalidDelta, err)
	}

	ref := ev.RemarkID
	return g.submit(ctx, studentID, func(ctx context.Context, view store.AccountView) (*store.Mutation, error) {
		net, err := view.NetDelta(ctx, ref, models.SourceRemarkPenalty)
		if err != nil {
			return nil, err
		}
		if net != 0 {
			return nil, nil
		}
		return &store.Mutation{Adjustments: []ledger.Adjustment{{
			Delta: ledger.RemarkPenaltyDelta(), Source: models.SourceRemarkPenalty, SourceRef: ref,
		}}}, nil
	})
}

// SubmitManual applies an admin correction as-is. Each call is its own event.
func (g *Gateway) SubmitManual(ctx context.Context, studentID string, ev ManualEvent) (*AdjustResponse, error) {
	if err := g.validator.ValidateStruct(ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrInvalidDelta, err)
	}
	if ev.Delta > g.maxManualDelta || ev.Delta < -g.maxManualDelta {
		return nil, fmt.Errorf("%w: manual delta %d exceeds %d", ledger.ErrInvalidDelta, ev.Delta, g.maxManualDelta)
	}

	adj := ledger.Adjustment{
		Delta:     ev.Delta,
		Source:    models.SourceManualAdmin,
		SourceRef: uuid.NewString(),
		Note:      ev.Reason,
	}
	return g.submit(ctx, studentID, func(ctx context.Context, view store.AccountView) (*store.Mutation, error) {
		return &store.Mutation{Adjustments: []ledger.Adjustment{adj}}, nil
	})
}

func (g *Gateway) submit(ctx context.Context, studentID string, plan store.PlanFunc) (*AdjustResponse, error) {
	res, err := g.ledger.Mutate(ctx, studentID, plan)
	if err != nil {
		return nil, err
	}
	records := res.Records
	if records == nil {
		records = []models.AdjustmentRecord{}
	}
	return &AdjustResponse{
		StudentID:  studentID,
		NewBalance: res.Balance,
		RecordID:   res.LastRecordID(),
		Records:    records,
	}, nil
}
