package models

import "time"

// DigitInput is one key press, recorded against the menu it was made in.
type DigitInput struct {
	MenuID    string    `json:"menu_id"`
	Digit     string    `json:"digit"`
	Timestamp time.Time `json:"timestamp"`
}

// CallRecord is written once per call when the hangup webhook arrives.
type CallRecord struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CallUUID    string       `gorm:"size:255;uniqueIndex;not null" json:"call_uuid"`
	FromNumber  string       `gorm:"size:20;index;not null" json:"from_number"`
	ToNumber    string       `gorm:"size:20;not null" json:"to_number"`
	StartTime   time.Time    `gorm:"index;not null" json:"start_time"`
	AnswerTime  *time.Time   `json:"answer_time,omitempty"`
	EndTime     *time.Time   `json:"end_time,omitempty"`
	Duration    int          `json:"duration"` // seconds
	CallStatus  string       `gorm:"size:50;not null;default:active" json:"call_status"`
	HangupCause string       `gorm:"size:100" json:"hangup_cause,omitempty"`
	MenuPath    []string     `gorm:"serializer:json" json:"menu_path"`
	UserInputs  []DigitInput `gorm:"serializer:json" json:"user_inputs"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"-"`
}

func (CallRecord) TableName() string {
	return "call_logs"
}

// CallerProfile aggregates every finished call from one number.
type CallerProfile struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	PhoneNumber       string    `gorm:"size:20;uniqueIndex;not null" json:"phone_number"`
	FirstCallAt       time.Time `gorm:"not null" json:"first_call_at"`
	LastCallAt        time.Time `gorm:"not null" json:"last_call_at"`
	TotalCalls        int       `gorm:"not null;default:1" json:"total_calls"`
	TotalDuration     int       `gorm:"not null;default:0" json:"total_duration"` // seconds
	PreferredLanguage string    `gorm:"size:10;default:en" json:"preferred_language"`
	LastMenuCompleted string    `gorm:"size:100" json:"last_menu_completed,omitempty"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}

func (CallerProfile) TableName() string {
	return "caller_history"
}

func (p *CallerProfile) AverageDuration() float64 {
	if p.TotalCalls <= 0 {
		return 0
	}
	return float64(p.TotalDuration) / float64(p.TotalCalls)
}

func (p *CallerProfile) IsReturningCaller() bool {
	return p.TotalCalls > 1
}
