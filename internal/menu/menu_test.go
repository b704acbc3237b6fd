package menu

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ivr-flow/internal/config"
	"ivr-flow/internal/models"
	"ivr-flow/internal/testutil"
)

func TestGormRepository_Get(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateMenus(t, db,
		models.MenuNode{
			MenuID:       "main_menu",
			Title:        "Main",
			Message:      "Press 1",
			DigitActions: map[string]string{"1": "billing"},
			ActionType:   models.ActionMenu,
			IsActive:     true,
		},
		models.MenuNode{
			MenuID:       "billing",
			Title:        "Billing",
			Message:      "Transferring",
			ActionType:   models.ActionTransfer,
			ActionConfig: &models.ActionConfig{TransferNumber: "+15550000001", Timeout: 45},
			IsActive:     true,
		},
		models.MenuNode{
			MenuID:   "retired",
			Title:    "Retired",
			Message:  "old",
			IsActive: false,
		},
	)
	repo := NewGormRepository(db)
	ctx := context.Background()

	root, err := repo.Get(ctx, "main_menu")
	if err != nil {
		t.Fatalf("Get(main_menu) error = %v", err)
	}
	if target, ok := root.Target("1"); !ok || target != "billing" {
		t.Errorf("Target(1) = %q, %v", target, ok)
	}
	if _, ok := root.Target("9"); ok {
		t.Error("Target(9) ok = true, want false")
	}
	// column defaults apply when a seed leaves them empty
	if root.MaxDigits != 1 || root.Timeout != 5 || root.Language != "en-US" {
		t.Errorf("defaults = digits %d timeout %d lang %q", root.MaxDigits, root.Timeout, root.Language)
	}

	billing, err := repo.Get(ctx, "billing")
	if err != nil {
		t.Fatalf("Get(billing) error = %v", err)
	}
	if billing.TransferNumber() != "+15550000001" || billing.TransferTimeout(30) != 45 {
		t.Errorf("action config = %+v", billing.ActionConfig)
	}

	if _, err := repo.Get(ctx, "retired"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(retired) error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSeed_DefaultMenus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	cfg := config.Defaults().IVR
	cfg.SalesTransferNumber = "+15551112222"

	// seeding twice replaces rather than duplicates
	for i := 0; i < 2; i++ {
		if err := Seed(ctx, db, DefaultMenus(cfg)); err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
	}

	repo := NewGormRepository(db)
	nodes, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("len(nodes) = %d, want 4", len(nodes))
	}
	if nodes[0].MenuID != "main_menu" {
		t.Errorf("first node = %q, want main_menu (highest priority)", nodes[0].MenuID)
	}

	sales, err := repo.Get(ctx, "sales_transfer")
	if err != nil {
		t.Fatalf("Get(sales_transfer) error = %v", err)
	}
	if sales.TransferNumber() != "+15551112222" {
		t.Errorf("sales number = %q", sales.TransferNumber())
	}
	support, _ := repo.Get(ctx, "support_transfer")
	if support.TransferNumber() != fallbackTransferNumber {
		t.Errorf("support number = %q, want fallback", support.TransferNumber())
	}

	if problems := ValidateGraph(DefaultMenus(cfg)); len(problems) != 0 {
		t.Errorf("default graph problems: %v", problems)
	}
}

func TestParseSeed(t *testing.T) {
	doc := `
menus:
  - menu_id: main_menu
    message: "Press 1 for hours"
    digit_actions:
      "1": hours
      "2": ghost
    action_type: menu
  - menu_id: hours
    message: "We are open nine to five. Goodbye."
    action_type: hangup
  - menu_id: desk
    action_type: transfer
  - menu_id: old
    is_active: false
`
	nodes, err := ParseSeed([]byte(doc))
	if err != nil {
		t.Fatalf("ParseSeed() error = %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("len(nodes) = %d, want 4", len(nodes))
	}
	if !nodes[0].IsActive || nodes[3].IsActive {
		t.Errorf("is_active defaults wrong: %v %v", nodes[0].IsActive, nodes[3].IsActive)
	}
	if nodes[1].Title != "hours" {
		t.Errorf("Title = %q, want menu_id fallback", nodes[1].Title)
	}

	problems := ValidateGraph(nodes)
	if len(problems) != 2 {
		t.Fatalf("ValidateGraph() = %v, want 2 problems", problems)
	}
	if !strings.Contains(problems[0], `"ghost"`) || !strings.Contains(problems[1], "desk") {
		t.Errorf("problems = %v", problems)
	}
}

func TestParseSeed_MissingID(t *testing.T) {
	if _, err := ParseSeed([]byte("menus:\n  - message: hi\n")); err == nil {
		t.Error("ParseSeed() error = nil, want error")
	}
}

func TestLoadSeedFile_Example(t *testing.T) {
	nodes, err := LoadSeedFile("../../menus.example.yaml")
	if err != nil {
		t.Fatalf("LoadSeedFile() error = %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(nodes))
	}
	if problems := ValidateGraph(nodes); len(problems) != 0 {
		t.Errorf("ValidateGraph() = %v", problems)
	}
	if nodes[1].TransferTimeout(30) != 25 {
		t.Errorf("sales TransferTimeout = %d, want 25", nodes[1].TransferTimeout(30))
	}
}
