package upload_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/upload"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUpload(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Upload Suite")
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

var _ = Describe("Store", func() {
	var (
		dir   string
		store *upload.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		store, err = upload.NewStore(internal.UploadConfig{Dir: dir, MaxBytes: 1024}, lg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("stores a pdf under the role folder", func() {
		path, err := store.Save(ctx, "student", "CS-2021/042", 7, strings.NewReader("%PDF-1.4\n%fake"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "student", "cs-2021_042-7.pdf")))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(HavePrefix("%PDF"))
	})

	It("keeps an earlier attachment of another type until pruned", func() {
		first, err := store.Save(ctx, "student", "reg1", 3, strings.NewReader("%PDF-1.4\n"))
		Expect(err).NotTo(HaveOccurred())

		second, err := store.Save(ctx, "student", "reg1", 3, bytes.NewReader(pngHeader))
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(HaveSuffix("reg1-3.png"))
		Expect(first).To(BeAnExistingFile())

		store.Prune(second)
		_, err = os.Stat(first)
		Expect(os.IsNotExist(err)).To(BeTrue())
		Expect(second).To(BeAnExistingFile())
	})

	It("discards a file that was never recorded", func() {
		path, err := store.Save(ctx, "student", "reg1", 4, bytes.NewReader(pngHeader))
		Expect(err).NotTo(HaveOccurred())
		store.Discard(path)
		_, err = os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())

		store.Discard(path)
	})

	It("rejects other content types", func() {
		_, err := store.Save(ctx, "student", "reg1", 3, strings.NewReader("just some text"))
		Expect(errors.Is(err, upload.ErrUnsupportedFile)).To(BeTrue())
	})

	It("rejects files over the limit", func() {
		big := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 2048)...)
		_, err := store.Save(ctx, "student", "reg1", 3, bytes.NewReader(big))
		Expect(errors.Is(err, upload.ErrFileTooLarge)).To(BeTrue())
	})
})

var _ = DescribeTable("Sanitize",
	func(in, want string) {
		Expect(upload.Sanitize(in)).To(Equal(want))
	},
	Entry("keeps allowed characters", "abc_1-2", "abc_1-2"),
	Entry("lower-cases", "REG42", "reg42"),
	Entry("replaces separators", "../etc/passwd", "___etc_passwd"),
	Entry("never returns empty", "  ", "unknown"),
)
