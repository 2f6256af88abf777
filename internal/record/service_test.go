package record_test

import (
	"context"
	"time"

	"github.com/frahmantamala/school-records/internal"
	recordDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/record"
	"github.com/frahmantamala/school-records/internal/record"
	"github.com/frahmantamala/school-records/internal/record/tabular"
	"github.com/frahmantamala/school-records/internal/sheet"
	"github.com/frahmantamala/school-records/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Record Service", func() {
	var (
		ctx       context.Context
		store     *spyStore
		publisher *recordingPublisher
		clock     *internal.Clock
		service   *record.Service
		admin     *internal.Identity
		ana       *internal.Identity
	)

	newService := func(orgs ...string) *record.Service {
		reconciler := sheet.NewReconciler(store, logger.Discard())
		repo := tabular.NewRecordRepository(reconciler)
		return record.NewService(repo, staticDirectory(orgs), publisher, clock, logger.Discard(), record.Options{SearchConcurrency: 2})
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = newSpyStore()
		publisher = &recordingPublisher{}
		clock = internal.FixedClock(time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC))
		service = newService("Escuela A", "Escuela B")
		admin = &internal.Identity{Username: "root", Role: internal.RoleAdmin}
		ana = &internal.Identity{Username: "ana", Role: internal.RoleUser, Organizations: []string{"Escuela A"}}
	})

	appendRecord := func(identity *internal.Identity, org, student, nationalID string) *record.Record {
		rec, err := service.Append(ctx, identity, record.CreateRecordDTO{
			Organization: org,
			Fields:       record.Fields{Student: student, NationalID: nationalID, Term: "I"},
		})
		Expect(err).NotTo(HaveOccurred())
		return rec
	}

	Describe("authorization", func() {
		It("rejects an unassigned organization before touching the store", func() {
			_, err := service.List(ctx, ana, "Escuela B")
			Expect(err).To(MatchError(internal.ErrOrganizationForbidden))
			Expect(store.calls.Load()).To(BeZero())
		})

		It("rejects an unassigned organization even when its table exists", func() {
			appendRecord(admin, "Escuela B", "Luis", "8-1-1")
			before := store.calls.Load()

			_, err := service.List(ctx, ana, "Escuela B")
			Expect(err).To(MatchError(internal.ErrOrganizationForbidden))
			Expect(store.calls.Load()).To(Equal(before))
		})

		It("requires an organization", func() {
			_, err := service.List(ctx, ana, " ")
			Expect(err).To(MatchError(internal.ErrMissingOrganization))
		})

		It("matches assignments case-insensitively and uses the assigned spelling", func() {
			rec, err := service.Append(ctx, ana, record.CreateRecordDTO{
				Organization: " escuela a ",
				Fields:       record.Fields{Student: "Ana", NationalID: "8-2-2"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Organization).To(Equal("Escuela A"))
			Expect(store.Snapshot("Escuela A")).To(HaveLen(2))
		})
	})

	Describe("Append and List", func() {
		It("stamps uploader, server date and id", func() {
			rec := appendRecord(ana, "Escuela A", "Pedro", "8-123-456")
			Expect(rec.Row).To(Equal(2))
			Expect(rec.ID).NotTo(BeEmpty())

			records, err := service.List(ctx, ana, "Escuela A")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].UploadedBy).To(Equal("ana"))
			Expect(records[0].Date).To(Equal("2024-05-10"))
			Expect(records[0].ID).To(Equal(rec.ID))
			Expect(records[0].Row).To(Equal(2))
			Expect(records[0].Term).To(Equal("I"))
		})

		It("writes the header row and stores the document flag as SI/NO", func() {
			delivered := record.FlexBool(true)
			_, err := service.Append(ctx, ana, record.CreateRecordDTO{
				Organization: "Escuela A",
				Fields:       record.Fields{Student: "Pedro", NationalID: "8-1-1", DocumentDelivered: &delivered},
			})
			Expect(err).NotTo(HaveOccurred())

			rows := store.Snapshot("Escuela A")
			Expect(rows[0]).To(Equal(recordDatamodel.Headers))
			Expect(rows[1][recordDatamodel.ColDocument]).To(Equal("SI"))
		})

		It("requires organization, student and national id", func() {
			_, err := service.Append(ctx, ana, record.CreateRecordDTO{Organization: "Escuela A", Fields: record.Fields{Student: "Pedro"}})
			Expect(err).To(MatchError(internal.ErrMissingRecordFields))
			Expect(store.calls.Load()).To(BeZero())
		})

		It("skips blank rows when listing", func() {
			appendRecord(ana, "Escuela A", "Pedro", "8-1-1")
			Expect(store.Update(ctx, sheet.Row("Escuela A", 4, 10), [][]string{{"2024-01-01", "Rosa", "8-3-3"}})).To(Succeed())

			records, err := service.List(ctx, ana, "Escuela A")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[1].Row).To(Equal(4))
			Expect(records[1].ID).To(BeEmpty())
		})

		It("publishes an audit event", func() {
			appendRecord(ana, "Escuela A", "Pedro", "8-1-1")
			recorded := publisher.recorded()
			Expect(recorded).To(HaveLen(1))
			Expect(recorded[0].Action).To(Equal(record.ActionAppendRecord))
			Expect(recorded[0].Organization).To(Equal("Escuela A"))
			Expect(recorded[0].Detail).To(Equal("Estudiante: Pedro, Cédula: 8-1-1"))
		})
	})

	Describe("Update", func() {
		var original *record.Record

		BeforeEach(func() {
			original = appendRecord(admin, "Escuela A", "Pedro", "8-1-1")
			clock = internal.FixedClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
			service = newService("Escuela A", "Escuela B")
		})

		It("keeps the creation date and id and overwrites the rest", func() {
			updated, err := service.Update(ctx, ana, record.UpdateRecordDTO{
				Organization: "Escuela A",
				Row:          record.FlexInt(original.Row),
				Fields:       record.Fields{Student: "Pedro P.", NationalID: "8-1-1", Grade: "4.5"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Date).To(Equal("2024-05-10"))
			Expect(updated.ID).To(Equal(original.ID))

			records, err := service.List(ctx, ana, "Escuela A")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Date).To(Equal("2024-05-10"))
			Expect(records[0].Student).To(Equal("Pedro P."))
			Expect(records[0].Grade).To(Equal("4.5"))
			Expect(records[0].Term).To(BeEmpty())
			Expect(records[0].UploadedBy).To(Equal("ana"))
		})

		It("locates the record by id", func() {
			appendRecord(admin, "Escuela A", "Maria", "8-2-2")

			updated, err := service.Update(ctx, admin, record.UpdateRecordDTO{
				Organization: "Escuela A",
				ID:           original.ID,
				Fields:       record.Fields{Student: "Pedro", NationalID: "8-1-9"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Row).To(Equal(2))
			Expect(store.Snapshot("Escuela A")[2][recordDatamodel.ColStudent]).To(Equal("Maria"))
		})

		It("backfills a missing id and date", func() {
			Expect(store.Update(ctx, sheet.Row("Escuela A", 3, 10), [][]string{{"", "Rosa", "8-3-3"}})).To(Succeed())

			updated, err := service.Update(ctx, admin, record.UpdateRecordDTO{
				Organization: "Escuela A", Row: 3,
				Fields: record.Fields{Student: "Rosa", NationalID: "8-3-3"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ID).NotTo(BeEmpty())
			Expect(updated.Date).To(Equal("2024-06-01"))
		})

		It("returns not found for an unknown id or an empty row", func() {
			_, err := service.Update(ctx, admin, record.UpdateRecordDTO{Organization: "Escuela A", ID: "nope"})
			Expect(err).To(MatchError(internal.ErrRecordNotFound))

			_, err = service.Update(ctx, admin, record.UpdateRecordDTO{Organization: "Escuela A", Row: 40})
			Expect(err).To(MatchError(internal.ErrRecordNotFound))
		})

		It("validates the row reference", func() {
			_, err := service.Update(ctx, admin, record.UpdateRecordDTO{Organization: "Escuela A"})
			Expect(err).To(MatchError(internal.ErrMissingRowReference))

			_, err = service.Update(ctx, admin, record.UpdateRecordDTO{Organization: "Escuela A", Row: 1})
			Expect(err).To(MatchError(internal.ErrInvalidRow))
		})

		It("refuses other organizations", func() {
			_, err := service.Update(ctx, ana, record.UpdateRecordDTO{Organization: "Escuela B", Row: 2})
			Expect(err).To(MatchError(internal.ErrOrganizationForbidden))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			appendRecord(admin, "Escuela A", "Pedro", "8-1-1")
			appendRecord(admin, "Escuela A", "Maria", "8-2-2")
			appendRecord(admin, "Escuela B", "Pedro", "8-1-1")
		})

		It("finds an id in every organization for admins", func() {
			results, err := service.Search(ctx, admin, " 8-1-1 ")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Organization).To(Equal("Escuela A"))
			Expect(results[0].Row).To(Equal(2))
			Expect(results[1].Organization).To(Equal("Escuela B"))
			Expect(results[1].Row).To(Equal(2))
		})

		It("limits regular users to their organizations", func() {
			results, err := service.Search(ctx, ana, "8-1-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Organization).To(Equal("Escuela A"))
		})

		It("returns an empty list without hits", func() {
			results, err := service.Search(ctx, admin, "0-0-0")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
			Expect(results).NotTo(BeNil())
		})

		It("requires a national id", func() {
			_, err := service.Search(ctx, admin, "")
			Expect(err).To(MatchError(internal.ErrMissingNationalID))
		})

		It("fails when any table fails", func() {
			store.failTable = "Escuela B"
			_, err := service.Search(ctx, admin, "8-1-1")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
		})
	})

	Describe("Organizations", func() {
		It("lists everything for admins and assignments for users", func() {
			orgs, err := service.Organizations(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(orgs).To(Equal([]string{"Escuela A", "Escuela B"}))

			orgs, err = service.Organizations(ctx, ana)
			Expect(err).NotTo(HaveOccurred())
			Expect(orgs).To(Equal([]string{"Escuela A"}))
		})
	})

	Describe("Summarize", func() {
		It("counts rows, delivered documents and terms", func() {
			delivered := record.FlexBool(true)
			_, err := service.Append(ctx, admin, record.CreateRecordDTO{
				Organization: "Escuela A",
				Fields:       record.Fields{Student: "Pedro", NationalID: "8-1-1", Term: "I", DocumentDelivered: &delivered},
			})
			Expect(err).NotTo(HaveOccurred())
			appendRecord(admin, "Escuela A", "Maria", "8-2-2")

			summary, err := service.Summarize(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary).To(HaveLen(2))
			Expect(summary[0]).To(Equal(&record.Summary{
				Organization:       "Escuela A",
				Total:              2,
				DocumentsDelivered: 1,
				ByTerm:             map[string]int{"I": 2},
			}))
			Expect(summary[1].Total).To(BeZero())
		})

		It("skips organizations that fail", func() {
			store.failTable = "Escuela B"
			summary, err := service.Summarize(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary).To(HaveLen(1))
			Expect(summary[0].Organization).To(Equal("Escuela A"))
		})

		It("is admin only", func() {
			_, err := service.Summarize(ctx, ana)
			Expect(err).To(MatchError(internal.ErrAdminRequired))
		})
	})
})
