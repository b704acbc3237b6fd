package cli

import (
	"fmt"
	"log"

	"ivr-flow/internal/database"
	"ivr-flow/internal/menu"
	"ivr-flow/internal/models"

	"github.com/spf13/cobra"
)

var seedFile string

var seedMenusCmd = &cobra.Command{
	Use:   "seed-menus",
	Short: "Replace the menu graph with the default or a YAML-defined one",
	Long: `Replace every menu row in one transaction.

Without --file the built-in graph is used: a main menu offering sales (1)
and support (2), both transfers, plus an invalid-input re-prompt.`,
	RunE: runSeedMenus,
}

func init() {
	seedMenusCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file with a list of menu nodes")
}

func runSeedMenus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var nodes []models.MenuNode
	if seedFile != "" {
		nodes, err = menu.LoadSeedFile(seedFile)
		if err != nil {
			return err
		}
	} else {
		nodes = menu.DefaultMenus(cfg.IVR)
	}

	for _, problem := range menu.ValidateGraph(nodes) {
		log.Printf("seed-menus: warning: %s", problem)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	if err := menu.Seed(cmd.Context(), db, nodes); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d menu nodes\n", len(nodes))
	return nil
}
