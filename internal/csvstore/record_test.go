package csvstore_test

import (
	"encoding/csv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/solar-site/internal/csvstore"
)

var _ = Describe("Sanitize", func() {
	DescribeTable("encodes a single field",
		func(input, expected string) {
			Expect(csvstore.Sanitize(input)).To(Equal(expected))
		},
		Entry("plain text", "Jane Doe", "Jane Doe"),
		Entry("empty", "", ""),
		Entry("surrounding whitespace", "  padded\t", "padded"),
		Entry("lf", "line one\nline two", "line one line two"),
		Entry("crlf collapses to one space", "line one\r\nline two", "line one line two"),
		Entry("lone cr", "line one\rline two", "line one line two"),
		Entry("consecutive breaks", "a\n\nb", "a  b"),
		Entry("comma", "Casablanca, Morocco", `"Casablanca, Morocco"`),
		Entry("quote", `say "salam"`, `"say ""salam"""`),
		Entry("comma, quote and trailing newline", "Hello, \"World\"\n", `"Hello, ""World"""`),
		Entry("arabic text", "مرحبا بكم", "مرحبا بكم"),
		Entry("whitespace only", "   ", ""),
	)

	It("should re-parse to the trimmed text under a CSV reader", func() {
		field := csvstore.Sanitize("Hello, \"World\"\n")
		rec, err := csv.NewReader(strings.NewReader(field + "\n")).Read()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(Equal([]string{`Hello, "World"`}))
	})
})

var _ = Describe("Record", func() {
	Describe("Line", func() {
		It("should render timestamp and sanitised fields", func() {
			r := csvstore.Record{
				Timestamp: time.Date(2024, 3, 9, 14, 5, 7, 123_456_789, time.UTC),
				Name:      "Youssef",
				Email:     "y@example.ma",
				Phone:     "",
				Message:   "Panels for a villa, please\nThanks",
			}
			Expect(r.Line()).To(Equal(
				"2024-03-09T14:05:07.123Z,Youssef,y@example.ma,,\"Panels for a villa, please Thanks\"\n"))
		})

		It("should convert the timestamp to UTC", func() {
			loc := time.FixedZone("WEST", 3600)
			r := csvstore.Record{Timestamp: time.Date(2024, 1, 1, 1, 0, 0, 0, loc)}
			Expect(r.Line()).To(HavePrefix("2024-01-01T00:00:00.000Z,"))
		})

		It("should match the header column count", func() {
			r := csvstore.Record{Timestamp: time.Now(), Name: "a,b", Email: `"e"`, Phone: "1", Message: "m"}
			rec, err := csv.NewReader(strings.NewReader(r.Line())).Read()
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(HaveLen(len(strings.Split(strings.TrimSpace(csvstore.Header), ","))))
			Expect(rec[1]).To(Equal("a,b"))
			Expect(rec[2]).To(Equal(`"e"`))
		})
	})
})
