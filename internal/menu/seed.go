package menu

import (
	"context"
	"fmt"
	"os"
	"sort"

	"ivr-flow/internal/config"
	"ivr-flow/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

const fallbackTransferNumber = "+1234567890"

// seedNode mirrors models.MenuNode in the YAML seed file. IsActive is a
// pointer so an omitted flag means active.
type seedNode struct {
	MenuID             string               `yaml:"menu_id"`
	ParentMenuID       string               `yaml:"parent_menu_id"`
	MenuType           string               `yaml:"menu_type"`
	Title              string               `yaml:"title"`
	Message            string               `yaml:"message"`
	AudioURL           string               `yaml:"audio_url"`
	Language           string               `yaml:"language"`
	Voice              string               `yaml:"voice"`
	MaxDigits          int                  `yaml:"max_digits"`
	Timeout            int                  `yaml:"timeout"`
	DigitActions       map[string]string    `yaml:"digit_actions"`
	InvalidInputMenuID string               `yaml:"invalid_input_menu_id"`
	TimeoutMenuID      string               `yaml:"timeout_menu_id"`
	ActionType         string               `yaml:"action_type"`
	ActionConfig       *models.ActionConfig `yaml:"action_config"`
	IsActive           *bool                `yaml:"is_active"`
	Priority           int                  `yaml:"priority"`
}

type seedFile struct {
	Menus []seedNode `yaml:"menus"`
}

// ParseSeed decodes a YAML document of the form `menus: [...]`.
func ParseSeed(data []byte) ([]models.MenuNode, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse menu seed: %w", err)
	}
	nodes := make([]models.MenuNode, 0, len(f.Menus))
	for i, s := range f.Menus {
		if s.MenuID == "" {
			return nil, fmt.Errorf("parse menu seed: entry %d has no menu_id", i)
		}
		active := true
		if s.IsActive != nil {
			active = *s.IsActive
		}
		title := s.Title
		if title == "" {
			title = s.MenuID
		}
		nodes = append(nodes, models.MenuNode{
			MenuID:             s.MenuID,
			ParentMenuID:       s.ParentMenuID,
			MenuType:           s.MenuType,
			Title:              title,
			Message:            s.Message,
			AudioURL:           s.AudioURL,
			Language:           s.Language,
			Voice:              s.Voice,
			MaxDigits:          s.MaxDigits,
			Timeout:            s.Timeout,
			DigitActions:       s.DigitActions,
			InvalidInputMenuID: s.InvalidInputMenuID,
			TimeoutMenuID:      s.TimeoutMenuID,
			ActionType:         s.ActionType,
			ActionConfig:       s.ActionConfig,
			IsActive:           active,
			Priority:           s.Priority,
		})
	}
	return nodes, nil
}

// LoadSeedFile reads and parses a YAML seed file.
func LoadSeedFile(path string) ([]models.MenuNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu seed: %w", err)
	}
	return ParseSeed(data)
}

// DefaultMenus is the stock graph: a main menu offering sales and support
// transfers, and an invalid-input re-prompt.
func DefaultMenus(cfg config.IVRConfig) []models.MenuNode {
	sales := cfg.SalesTransferNumber
	if sales == "" {
		sales = fallbackTransferNumber
	}
	support := cfg.SupportTransferNumber
	if support == "" {
		support = fallbackTransferNumber
	}
	root := cfg.RootMenuID
	if root == "" {
		root = "main_menu"
	}
	choices := map[string]string{"1": "sales_transfer", "2": "support_transfer"}

	return []models.MenuNode{
		{
			MenuID:             root,
			Title:              "Main Menu",
			Message:            "Welcome. Press 1 for Sales, or Press 2 for Support.",
			DigitActions:       choices,
			InvalidInputMenuID: "invalid_input",
			ActionType:         models.ActionMenu,
			IsActive:           true,
			Priority:           10,
		},
		{
			MenuID:       "sales_transfer",
			ParentMenuID: root,
			Title:        "Sales Transfer",
			Message:      "Connecting you to Sales. Please hold.",
			ActionType:   models.ActionTransfer,
			ActionConfig: &models.ActionConfig{TransferNumber: sales},
			IsActive:     true,
		},
		{
			MenuID:       "support_transfer",
			ParentMenuID: root,
			Title:        "Support Transfer",
			Message:      "Connecting you to Support. Please hold.",
			ActionType:   models.ActionTransfer,
			ActionConfig: &models.ActionConfig{TransferNumber: support},
			IsActive:     true,
		},
		{
			MenuID:       "invalid_input",
			ParentMenuID: root,
			Title:        "Invalid Input",
			Message:      "Invalid input. Press 1 for Sales, or Press 2 for Support.",
			DigitActions: map[string]string{"1": "sales_transfer", "2": "support_transfer"},
			ActionType:   models.ActionMenu,
			IsActive:     true,
		},
	}
}

// Seed replaces every menu row with nodes in one transaction.
func Seed(ctx context.Context, db *gorm.DB, nodes []models.MenuNode) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.MenuNode{}).Error; err != nil {
			return fmt.Errorf("clear menus: %w", err)
		}
		for i := range nodes {
			n := nodes[i]
			n.ID = 0
			if err := tx.Create(&n).Error; err != nil {
				return fmt.Errorf("insert menu %s: %w", n.MenuID, err)
			}
		}
		return nil
	})
}

// ValidateGraph lists integrity problems the call flow would hit at
// runtime: dangling targets and transfer nodes without a destination.
func ValidateGraph(nodes []models.MenuNode) []string {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.IsActive {
			known[n.MenuID] = true
		}
	}

	var problems []string
	for _, n := range nodes {
		if !n.IsActive {
			continue
		}
		digits := make([]string, 0, len(n.DigitActions))
		for d := range n.DigitActions {
			digits = append(digits, d)
		}
		sort.Strings(digits)
		for _, d := range digits {
			target := n.DigitActions[d]
			if target != "" && !known[target] {
				problems = append(problems, fmt.Sprintf("%s: digit %s points to unknown menu %q", n.MenuID, d, target))
			}
		}
		if n.InvalidInputMenuID != "" && !known[n.InvalidInputMenuID] {
			problems = append(problems, fmt.Sprintf("%s: invalid_input_menu_id %q not found", n.MenuID, n.InvalidInputMenuID))
		}
		if n.ActionType == models.ActionTransfer && n.TransferNumber() == "" {
			problems = append(problems, fmt.Sprintf("%s: transfer node has no transfer_number", n.MenuID))
		}
	}
	return problems
}
