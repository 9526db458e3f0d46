package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/mfatlas/pkg/database"
	"github.com/wonny/mfatlas/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 마이그레이션",
	Long: `바이너리에 포함된 SQL 마이그레이션 중 적용되지 않은 파일을 순서대로 실행합니다.

Example:
  go run ./cmd/atlas migrate
  go run ./cmd/atlas migrate --list`,
	RunE: runMigrate,
}

var migrateList bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "포함된 마이그레이션 목록만 출력")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateList {
		migrations, err := database.Migrations()
		if err != nil {
			return err
		}
		fmt.Println("📋 Embedded migrations:")
		for _, m := range migrations {
			fmt.Printf("   • %s\n", m.Version)
		}
		return nil
	}

	cfg, _, _, err := loadSettings()
	if err != nil {
		return err
	}
	log := logger.New(cfg).WithField("module", "migrate")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	applied, err := db.Migrate(cmd.Context())
	if err != nil {
		return err
	}

	log.WithField("applied", len(applied)).Info("Migrations applied")
	if len(applied) == 0 {
		PrintInfo("Schema is up to date")
		return nil
	}
	for _, v := range applied {
		PrintSuccess("Applied " + v)
	}
	return nil
}
