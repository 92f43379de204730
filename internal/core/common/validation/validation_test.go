package validation_test

import (
	"testing"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

type sample struct {
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=leave outing"`
	Day  string `json:"day" validate:"omitempty,date"`
}

var _ = Describe("Validation", func() {
	It("accepts a valid struct", func() {
		Expect(validation.Struct(sample{Name: "a", Kind: "leave", Day: "2024-01-02"})).To(Succeed())
	})

	It("reports every failing field by its json name", func() {
		err := validation.Struct(sample{Kind: "holiday", Day: "02/01/2024"})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(400))

		details := appErr.Details.(internal.ValidationErrors)
		fields := []string{}
		for _, e := range details.Errors {
			fields = append(fields, e.Field)
		}
		Expect(fields).To(ConsistOf("name", "kind", "day"))
		Expect(appErr.GetDetailedMessage()).To(ContainSubstring("name is required"))
	})

	It("rejects inverted date ranges", func() {
		_, _, err := validation.DateRange("from_date", "2024-01-05", "to_date", "2024-01-01")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("to_date"))
	})

	It("parses ordered date ranges", func() {
		from, to, err := validation.DateRange("from_date", "2024-01-01", "to_date", "2024-01-01")
		Expect(err).NotTo(HaveOccurred())
		Expect(from).To(Equal(to))
	})
})
