package sheet_test

import (
	"github.com/frahmantamala/school-records/internal/sheet"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Range", func() {
	DescribeTable("A1 notation",
		func(r sheet.Range, expected string) {
			Expect(r.A1()).To(Equal(expected))
		},
		Entry("whole table", sheet.Range{Table: "logs"}, "'logs'"),
		Entry("header row", sheet.Row("usuarios", 1, 4), "'usuarios'!A1:D1"),
		Entry("open ended data rows", sheet.Rows("Escuela 1", 2, 10), "'Escuela 1'!A2:J"),
		Entry("quote in name", sheet.Row("O'Higgins", 3, 2), "'O''Higgins'!A3:B3"),
		Entry("open columns", sheet.Range{Table: "t", FromRow: 2, ToRow: 2}, "'t'!A2:ZZZ2"),
	)

	DescribeTable("column names",
		func(n int, expected string) {
			Expect(sheet.ColumnName(n)).To(Equal(expected))
		},
		Entry("first", 1, "A"),
		Entry("last single letter", 26, "Z"),
		Entry("first double letter", 27, "AA"),
		Entry("52", 52, "AZ"),
		Entry("max", sheet.MaxColumn, "ZZZ"),
	)

	It("parses the first row of an updated range", func() {
		n, err := sheet.ParseRowNumber("'Escuela 1'!A17:J17")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(17))

		n, err = sheet.ParseRowNumber("logs!B4")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(4))
	})

	It("rejects ranges without a row", func() {
		_, err := sheet.ParseRowNumber("'logs'!A:F")
		Expect(err).To(HaveOccurred())
	})

	It("checks cell containment", func() {
		r := sheet.Rows("t", 2, 3)
		Expect(r.Contains(1, 1)).To(BeFalse())
		Expect(r.Contains(2, 3)).To(BeTrue())
		Expect(r.Contains(500, 4)).To(BeFalse())
	})
})
