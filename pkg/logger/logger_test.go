package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/frahmantamala/gatepass/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("context fields", func() {
	var (
		buf  *bytes.Buffer
		base *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		base = slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	It("returns base unchanged when nothing was recorded", func() {
		logger.From(context.Background(), base).Info("hello")
		Expect(buf.String()).To(ContainSubstring("msg=hello"))
		Expect(buf.String()).NotTo(ContainSubstring("traceID"))
	})

	It("accumulates fields across calls", func() {
		ctx := logger.With(context.Background(), "traceID", "t-1")
		ctx = logger.With(ctx, "userID", int64(7))

		logger.From(ctx, base).Info("scoped")
		Expect(buf.String()).To(ContainSubstring("traceID=t-1"))
		Expect(buf.String()).To(ContainSubstring("userID=7"))
	})

	It("does not leak fields into the parent context", func() {
		parent := logger.With(context.Background(), "traceID", "t-1")
		_ = logger.With(parent, "userID", int64(7))

		logger.From(parent, base).Info("parent")
		Expect(buf.String()).NotTo(ContainSubstring("userID"))
	})
})
