package cli

import (
	"fmt"
	"log"

	"ivr-flow/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the menu, call log and caller tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Init(cfg.Database)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer database.Close(db)

		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		log.Printf("migrated %s database", cfg.Database.Driver)
		return nil
	},
}
