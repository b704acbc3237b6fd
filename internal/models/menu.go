package models

import "time"

// Menu action types.
const (
	ActionMenu     = "menu"
	ActionTransfer = "transfer"
	ActionHangup   = "hangup"
)

// ActionConfig is only meaningful on transfer nodes.
type ActionConfig struct {
	TransferNumber string `json:"transfer_number,omitempty" yaml:"transfer_number"`
	Timeout        int    `json:"timeout,omitempty" yaml:"timeout"` // seconds, 0 means default
}

// MenuNode is one vertex of the IVR menu graph.
type MenuNode struct {
	ID                 uint              `gorm:"primaryKey" json:"-"`
	MenuID             string            `gorm:"size:100;uniqueIndex;not null" json:"menu_id"`
	ParentMenuID       string            `gorm:"size:100;index" json:"parent_menu_id,omitempty"` // informational only
	MenuType           string            `gorm:"size:50;not null;default:menu" json:"menu_type"`
	Title              string            `gorm:"size:255;not null" json:"title"`
	Message            string            `gorm:"type:text;not null" json:"message"`
	AudioURL           string            `gorm:"size:500" json:"audio_url,omitempty"`
	Language           string            `gorm:"size:10;not null;default:en-US" json:"language"`
	Voice              string            `gorm:"size:50;not null;default:WOMAN" json:"voice"`
	MaxDigits          int               `gorm:"not null;default:1" json:"max_digits"`
	Timeout            int               `gorm:"not null;default:5" json:"timeout"` // seconds
	DigitActions       map[string]string `gorm:"serializer:json" json:"digit_actions,omitempty"`
	InvalidInputMenuID string            `gorm:"size:100" json:"invalid_input_menu_id,omitempty"`
	TimeoutMenuID      string            `gorm:"size:100" json:"timeout_menu_id,omitempty"`
	ActionType         string            `gorm:"size:50" json:"action_type"`
	ActionConfig       *ActionConfig     `gorm:"serializer:json" json:"action_config,omitempty"`
	IsActive           bool              `gorm:"not null;index" json:"is_active"`
	Priority           int               `gorm:"not null;default:0" json:"priority"`
	CreatedAt          time.Time         `json:"-"`
	UpdatedAt          time.Time         `json:"-"`
}

func (MenuNode) TableName() string {
	return "menu_configurations"
}

// Target returns the menu a digit leads to. ok is false when the digit is
// not offered by this node.
func (m *MenuNode) Target(digit string) (menuID string, ok bool) {
	if m.DigitActions == nil {
		return "", false
	}
	menuID, ok = m.DigitActions[digit]
	return menuID, ok
}

// TransferNumber returns the configured destination, or "" when missing.
func (m *MenuNode) TransferNumber() string {
	if m.ActionConfig == nil {
		return ""
	}
	return m.ActionConfig.TransferNumber
}

// TransferTimeout falls back to def when the node does not set one.
func (m *MenuNode) TransferTimeout(def int) int {
	if m.ActionConfig == nil || m.ActionConfig.Timeout <= 0 {
		return def
	}
	return m.ActionConfig.Timeout
}
