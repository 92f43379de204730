package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/auth"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/transport"
	userPostgres "github.com/frahmantamala/gatepass/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Module Suite")
}

type memoryBlacklist struct {
	revoked map[string]time.Duration
	fail    bool
}

func (m *memoryBlacklist) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *memoryBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if m.fail {
		return false, errors.New("redis down")
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

type fixedSession time.Duration

func (f fixedSession) SessionTimeout(ctx context.Context) time.Duration { return time.Duration(f) }

func testSecurity() internal.SecurityConfig {
	return internal.SecurityConfig{
		JWTSecret:            strings.Repeat("a", 32),
		JWTRefreshSecret:     strings.Repeat("b", 32),
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
		BCryptCost:           bcrypt.MinCost,
	}
}

var _ = Describe("JWTTokenGenerator", func() {
	var gen *auth.JWTTokenGenerator

	BeforeEach(func() {
		gen = auth.NewJWTTokenGenerator(testSecurity())
	})

	It("round trips claims", func() {
		token, exp, err := gen.Generate(auth.AccessToken, 42, "hod", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(exp).To(BeTemporally("~", time.Now().Add(15*time.Minute), time.Second))

		claims, err := gen.Validate(auth.AccessToken, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(42)))
		Expect(claims.Role).To(Equal("hod"))
		Expect(claims.ID).NotTo(BeEmpty())
	})

	It("will not accept a refresh token as an access token", func() {
		token, _, err := gen.Generate(auth.RefreshToken, 42, "hod", 0)
		Expect(err).NotTo(HaveOccurred())
		_, err = gen.Validate(auth.AccessToken, token)
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})

	It("reports expiry", func() {
		token, _, err := gen.Generate(auth.AccessToken, 42, "hod", time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		time.Sleep(1100 * time.Millisecond)
		_, err = gen.Validate(auth.AccessToken, token)
		Expect(errors.Is(err, internal.ErrTokenExpired)).To(BeTrue())
	})

	It("rejects garbage", func() {
		_, err := gen.Validate(auth.AccessToken, "not.a.token")
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})
})

var _ = Describe("Auth Service", func() {
	var (
		db        *gorm.DB
		svc       *auth.Service
		blacklist *memoryBlacklist
		ctx       context.Context
	)

	seed := func(email, status string) {
		hash, err := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Create(&userDatamodel.User{
			Name:         "Ravi",
			Email:        email,
			PasswordHash: string(hash),
			Role:         "warden",
			Status:       status,
		}).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		seed("warden@example.com", "active")
		seed("gone@example.com", "inactive")

		blacklist = &memoryBlacklist{revoked: map[string]time.Duration{}}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = auth.NewService(userPostgres.NewUserRepository(db), auth.NewJWTTokenGenerator(testSecurity()), fixedSession(0), blacklist, lg)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Authenticate", func() {
		It("issues tokens carrying the role", func() {
			tokens, err := svc.Authenticate(ctx, auth.LoginDTO{Email: " Warden@Example.com ", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())

			claims, err := svc.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Role).To(Equal("warden"))
		})

		It("rejects a wrong password", func() {
			_, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "warden@example.com", Password: "nope"})
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})

		It("does not reveal unknown emails", func() {
			_, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "who@example.com", Password: "correct_password"})
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})

		It("refuses inactive users", func() {
			_, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "gone@example.com", Password: "correct_password"})
			Expect(errors.Is(err, internal.ErrUserInactive)).To(BeTrue())
		})

		It("validates input", func() {
			_, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "not-an-email"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("uses the session timeout as access lifetime", func() {
			lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			svc = auth.NewService(userPostgres.NewUserRepository(db), auth.NewJWTTokenGenerator(testSecurity()), fixedSession(90*time.Minute), nil, lg)
			tokens, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "warden@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.ExpiresAt).To(BeTemporally("~", time.Now().Add(90*time.Minute), time.Second))
		})
	})

	Describe("RefreshTokens", func() {
		It("rotates and revokes the old refresh token", func() {
			tokens, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "warden@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())

			next, err := svc.RefreshTokens(ctx, auth.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
			Expect(err).NotTo(HaveOccurred())
			Expect(next.AccessToken).NotTo(BeEmpty())

			_, err = svc.RefreshTokens(ctx, auth.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
			Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
		})

		It("rejects access tokens", func() {
			tokens, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "warden@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.RefreshTokens(ctx, auth.RefreshTokenDTO{RefreshToken: tokens.AccessToken})
			Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
		})
	})

	Describe("Logout", func() {
		It("revokes both tokens", func() {
			tokens, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "warden@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Logout(ctx, tokens.AccessToken, auth.LogoutDTO{RefreshToken: tokens.RefreshToken})).To(Succeed())
			Expect(blacklist.revoked).To(HaveLen(2))

			_, err = svc.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
			_, err = svc.RefreshTokens(ctx, auth.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
			Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
		})

		It("keeps working when the blacklist is unreachable", func() {
			tokens, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "warden@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())
			blacklist.fail = true
			_, err = svc.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Middleware", func() {
		var h *auth.Handler

		BeforeEach(func() {
			lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			h = auth.NewHandler(transport.NewBaseHandler(lg), svc)
		})

		protected := func() http.Handler {
			return h.AuthMiddleware(h.RequireRoles("warden", "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(internal.UserIDFromContext(r.Context())).NotTo(BeZero())
				w.WriteHeader(http.StatusTeapot)
			})))
		}

		It("lets an allowed role through", func() {
			tokens, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "warden@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusTeapot))
		})

		It("returns 401 without a token", func() {
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns 403 for other roles", func() {
			gen := auth.NewJWTTokenGenerator(testSecurity())
			token, _, err := gen.Generate(auth.AccessToken, 9, "student", 0)
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("logs out through the handler", func() {
			tokens, err := svc.Authenticate(ctx, auth.LoginDTO{Email: "warden@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rec := httptest.NewRecorder()
			h.Logout(rec, req)
			Expect(rec.Code).To(Equal(http.StatusNoContent))
		})
	})
})
