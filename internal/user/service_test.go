package user_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/frahmantamala/gatepass/internal"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/user"
	userPostgres "github.com/frahmantamala/gatepass/internal/user/postgres"
	"github.com/frahmantamala/gatepass/internal/workflow"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

type fixedBounds struct{ min, max int }

func (b fixedBounds) TrustScoreBounds(ctx context.Context) (int, int) { return b.min, b.max }

var _ = Describe("User Service", func() {
	var (
		db   *gorm.DB
		repo *userPostgres.UserRepository
		svc  *user.Service
		ctx  context.Context
		dept int64
	)

	studentDTO := func(email, reg string) user.CreateUserDTO {
		return user.CreateUserDTO{
			Name:           "Asha",
			Email:          email,
			Password:       "correct-horse",
			Role:           "student",
			DepartmentID:   &dept,
			StudentType:    "hostel",
			RegisterNumber: reg,
		}
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dept = 3
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		repo = userPostgres.NewUserRepository(db)
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = user.NewService(repo, fixedBounds{min: 0, max: 100}, bcrypt.MinCost, lg)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create", func() {
		It("hashes the password and stores a lower-cased email", func() {
			u, err := svc.Create(ctx, studentDTO("  Asha@Example.com ", "REG-9"))
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).NotTo(BeZero())
			Expect(u.Email).To(Equal("asha@example.com"))
			Expect(u.Role).To(Equal(workflow.RoleStudent))
			Expect(u.Status).To(Equal(user.StatusActive))

			row, err := repo.FindByEmail(ctx, "asha@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte("correct-horse"))).To(Succeed())
		})

		It("requires a register number for students", func() {
			dto := studentDTO("a@example.com", "")
			_, err := svc.Create(ctx, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("refuses a student type on staff accounts", func() {
			dto := user.CreateUserDTO{Name: "W", Email: "w@example.com", Password: "long-enough", Role: "warden", StudentType: "hostel"}
			_, err := svc.Create(ctx, dto)
			Expect(err).To(HaveOccurred())
		})

		It("reports duplicates as a conflict", func() {
			_, err := svc.Create(ctx, studentDTO("a@example.com", "REG-1"))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Create(ctx, studentDTO("a@example.com", "REG-2"))
			Expect(errors.Is(err, userPostgres.ErrEmailTaken)).To(BeTrue())
		})
	})

	Describe("SetTrustScore", func() {
		It("clamps into the configured bounds", func() {
			u, err := svc.Create(ctx, studentDTO("t@example.com", "REG-3"))
			Expect(err).NotTo(HaveOccurred())

			high := 250
			updated, err := svc.SetTrustScore(ctx, u.ID, user.TrustScoreDTO{TrustScore: &high})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.TrustScore).To(Equal(100))

			low := -5
			updated, err = svc.SetTrustScore(ctx, u.ID, user.TrustScoreDTO{TrustScore: &low})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.TrustScore).To(Equal(0))
		})

		It("returns not found for unknown users", func() {
			v := 50
			_, err := svc.SetTrustScore(ctx, 999, user.TrustScoreDTO{TrustScore: &v})
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("SetStatus", func() {
		It("deactivates an account", func() {
			u, err := svc.Create(ctx, studentDTO("s@example.com", "REG-4"))
			Expect(err).NotTo(HaveOccurred())

			updated, err := svc.SetStatus(ctx, u.ID, user.UpdateStatusDTO{Status: user.StatusInactive})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsActive()).To(BeFalse())
		})

		It("rejects unknown statuses", func() {
			_, err := svc.SetStatus(ctx, 1, user.UpdateStatusDTO{Status: "suspended"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ActiveIDsByRole", func() {
		It("filters by department and skips inactive users", func() {
			other := int64(4)
			rows := []*userDatamodel.User{
				{Name: "H1", Email: "h1@example.com", PasswordHash: "x", Role: "hod", DepartmentID: &dept, Status: "active"},
				{Name: "H2", Email: "h2@example.com", PasswordHash: "x", Role: "hod", DepartmentID: &other, Status: "active"},
				{Name: "H3", Email: "h3@example.com", PasswordHash: "x", Role: "hod", DepartmentID: &dept, Status: "inactive"},
			}
			Expect(db.Create(&rows).Error).To(Succeed())

			ids, err := repo.ActiveIDsByRole(ctx, "hod", &dept)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]int64{rows[0].ID}))

			all, err := repo.ActiveIDsByRole(ctx, "hod", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})
	})
})
