package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/classpoints/backend/internal/models"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	StudentID string    `json:"student_id"`
	RecordID  string    `json:"record_id,omitempty"`
	Delta     int64     `json:"delta"`
	Balance   int64     `json:"balance"`
	Status    string    `json:"status"`
	Details   any       `json:"details"`
}

type AuditLogger struct {
	logger *log.Logger
}

// NewAuditLogger writes through the standard logger when l is nil.
func NewAuditLogger(l *log.Logger) *AuditLogger {
	if l == nil {
		l = log.Default()
	}
	return &AuditLogger{logger: l}
}

func (a *AuditLogger) LogAdjustment(rec models.AdjustmentRecord) {
	status := "APPLIED"
	if rec.Clamped {
		status = "CLAMPED"
	}
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "ADJUSTMENT",
		StudentID: rec.StudentID,
		RecordID:  rec.ID,
		Delta:     rec.Delta,
		Balance:   rec.BalanceAfter,
		Status:    status,
		Details: map[string]string{
			"source":     string(rec.Source),
			"source_ref": rec.SourceRef,
			"note":       rec.Note,
		},
	})
}

func (a *AuditLogger) LogRedemption(rec models.RedemptionRecord, balance int64) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "REDEMPTION",
		StudentID: rec.StudentID,
		RecordID:  rec.ID,
		Delta:     -rec.CostAtRedemption,
		Balance:   balance,
		Status:    "SUCCESS",
		Details:   map[string]string{"prize_id": rec.PrizeID},
	})
}

func (a *AuditLogger) LogRejectedRedemption(studentID, prizeID string, err error) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "REDEMPTION",
		StudentID: studentID,
		Status:    "REJECTED",
		Details: map[string]string{
			"prize_id": prizeID,
			"error":    err.Error(),
		},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	a.logger.Printf("AUDIT: %s", string(data))
}
