// Package events publishes committed attendance transitions over Watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/alanbarret/wallet-attendance-system/core"
)

const (
	// CheckInTopic carries events for freshly created records.
	CheckInTopic = "attendance.checkin"

	// CheckOutTopic carries events for completed days.
	CheckOutTopic = "attendance.checkout"
)

// AttendanceEvent is the published payload. Times are the record's display
// fields; the persisted record remains the source of truth.
type AttendanceEvent struct {
	EmployeeID   string `json:"emp_id"`
	EmployeeName string `json:"employee_name"`
	Date         string `json:"date"`
	InTime       string `json:"in_time"`
	OutTime      string `json:"out_time,omitempty"`
}

// WatermillPublisher implements ports.EventPublisher over any Watermill
// publisher (Redis streams in production, gochannel in single-process
// deployments).
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher wraps an existing Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishCheckIn publishes a check-in event.
func (p *WatermillPublisher) PublishCheckIn(ctx context.Context, record core.AttendanceRecord) error {
	return p.publish(CheckInTopic, record)
}

// PublishCheckOut publishes a check-out event.
func (p *WatermillPublisher) PublishCheckOut(ctx context.Context, record core.AttendanceRecord) error {
	return p.publish(CheckOutTopic, record)
}

func (p *WatermillPublisher) publish(topic string, record core.AttendanceRecord) error {
	payload, err := json.Marshal(AttendanceEvent{
		EmployeeID:   record.EmployeeID,
		EmployeeName: record.EmployeeName,
		Date:         record.Date,
		InTime:       record.InTime,
		OutTime:      record.OutTime,
	})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	msg := message.NewMessage(record.ID, payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}
