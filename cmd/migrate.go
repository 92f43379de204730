package cmd

import (
	"context"
	"fmt"

	auditlogDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/auditlog"
	calendarDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/calendar"
	notificationDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/notification"
	proxyDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/proxy"
	requestDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/request"
	settingDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/setting"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateAuto     bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().BoolVar(&migrateAuto, "auto", false, "create tables from the gorm models instead of sql files (mysql, sqlite, local development)")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

// models lists every table owned by the service, parents first.
func models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&userDatamodel.PushSubscription{},
		&requestDatamodel.Request{},
		&auditlogDatamodel.Log{},
		&notificationDatamodel.Notification{},
		&proxyDatamodel.ProxySetting{},
		&settingDatamodel.Setting{},
		&calendarDatamodel.Event{},
	}
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models()...)
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}

	sqlDB, gdb, _, err := openDatabase(cfg.Database, lg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if migrateAuto || cfg.Database.DriverName() != "postgres" {
		if err := autoMigrate(gdb); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		lg.Info("schema synchronised from models", "driver", cfg.Database.DriverName())
		return nil
	}

	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: %w", err)
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, sqlDB, migrateDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
