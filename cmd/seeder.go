package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/gatepass/internal/setting"
	settingPostgres "github.com/frahmantamala/gatepass/internal/setting/postgres"
	"github.com/frahmantamala/gatepass/internal/user"
	userPostgres "github.com/frahmantamala/gatepass/internal/user/postgres"
	"github.com/spf13/cobra"
)

var (
	seedDemo      bool
	adminEmail    string
	adminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with an administrator and default settings",
	Long:  `Seed the database with the bootstrap administrator, the default workflow settings and, with --demo, one account per role.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd.Context())
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also create one demo account per role")
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "admin@gatepass.local", "administrator email")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "change-me-now", "administrator password")
}

var defaultSettings = map[string]string{
	setting.KeyTrustScoreMin:   "0",
	setting.KeyTrustScoreMax:   "100",
	setting.KeyMaintenanceMode: "false",
}

func demoUsers() []user.CreateUserDTO {
	dept := int64(1)
	return []user.CreateUserDTO{
		{Name: "Demo Student", Email: "student@gatepass.local", Password: "password123", Role: "student", DepartmentID: &dept, StudentType: "hostel", RegisterNumber: "REG-0001"},
		{Name: "Demo Day Scholar", Email: "scholar@gatepass.local", Password: "password123", Role: "student", DepartmentID: &dept, StudentType: "day_scholar", RegisterNumber: "REG-0002"},
		{Name: "Demo Staff", Email: "staff@gatepass.local", Password: "password123", Role: "staff", DepartmentID: &dept},
		{Name: "Demo HOD", Email: "hod@gatepass.local", Password: "password123", Role: "hod", DepartmentID: &dept},
		{Name: "Demo Warden", Email: "warden@gatepass.local", Password: "password123", Role: "warden"},
		{Name: "Demo Gatekeeper", Email: "gate@gatepass.local", Password: "password123", Role: "gatekeeper"},
		{Name: "Demo Principal", Email: "principal@gatepass.local", Password: "password123", Role: "principal"},
	}
}

func runSeed(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}

	sqlDB, gdb, _, err := openDatabase(cfg.Database, lg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	settingRepo := settingPostgres.NewSettingRepository(gdb)
	existing, err := settingRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list settings: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, s := range existing {
		present[s.Key] = true
	}
	for key, value := range defaultSettings {
		if present[key] {
			continue
		}
		if _, err := settingRepo.Upsert(ctx, key, value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
		lg.Info("seeded setting", "key", key, "value", value)
	}

	settings := setting.NewService(settingRepo, cfg.Workflow.SettingsCacheTTL, lg)
	users := user.NewService(userPostgres.NewUserRepository(gdb), settings, cfg.Security.BCryptCost, lg)

	accounts := []user.CreateUserDTO{{Name: "Administrator", Email: adminEmail, Password: adminPassword, Role: "admin"}}
	if seedDemo {
		accounts = append(accounts, demoUsers()...)
	}
	for _, dto := range accounts {
		created, err := users.Create(ctx, dto)
		if errors.Is(err, userPostgres.ErrEmailTaken) {
			lg.Info("user already exists, skipping", "email", dto.Email)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", dto.Email, err)
		}
		lg.Info("seeded user", "email", created.Email, "role", created.Role)
	}
	return nil
}
