package repository_test

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/repository"
)

var _ = Describe("EventRepo", func() {
	var (
		mock sqlmock.Sqlmock
		repo *repository.EventRepo
		ctx  context.Context
		ict  *time.Location
	)

	BeforeEach(func() {
		db, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		mock = m
		repo = repository.New(sqlx.NewDb(db, "pgx"), "bin-001")
		ctx = context.Background()
		ict = time.FixedZone("ICT", 7*3600)
		DeferCleanup(db.Close)
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("should create the table and indexes", func() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS trash_logs").WillReturnResult(sqlmock.NewResult(0, 0))
		Expect(repo.EnsureSchema(ctx)).To(Succeed())
	})

	Describe("Append", func() {
		It("should insert with a generated id and return the server timestamp", func() {
			ts := time.Date(2026, 10, 17, 10, 0, 0, 0, ict)
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO trash_logs (id, bin_id, event) VALUES ($1, $2, $3) RETURNING id, bin_id, event, ts`)).
				WithArgs(sqlmock.AnyArg(), "bin-001", "emptied").
				WillReturnRows(sqlmock.NewRows([]string{"id", "bin_id", "event", "ts"}).
					AddRow("0b7c", "bin-001", "emptied", ts))

			doc, err := repo.Append(ctx, "emptied")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.ID).To(Equal("0b7c"))
			Expect(doc.Event).To(Equal("emptied"))
			Expect(doc.TS.Location()).To(Equal(time.UTC))
			Expect(doc.TS.Equal(ts)).To(BeTrue())
		})

		It("should wrap database errors", func() {
			mock.ExpectQuery("INSERT INTO trash_logs").WillReturnError(errors.New("connection reset"))
			_, err := repo.Append(ctx, "emptied")
			Expect(err).To(MatchError(ContainSubstring("insert event")))
		})
	})

	Describe("CountBetween", func() {
		It("should count with an inclusive range in UTC", func() {
			from := time.Date(2026, 10, 17, 0, 0, 0, 0, ict)
			to := time.Date(2026, 10, 17, 23, 59, 59, 999000000, ict)
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM trash_logs WHERE bin_id = $1 AND event = $2 AND ts >= $3 AND ts <= $4`)).
				WithArgs("bin-001", "emptied", from.UTC(), to.UTC()).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

			n, err := repo.CountBetween(ctx, "emptied", from, to)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(4))
		})

		It("should return the error so callers can fall back", func() {
			mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("timeout"))
			_, err := repo.CountBetween(ctx, "emptied", time.Now(), time.Now())
			Expect(err).To(HaveOccurred())
		})
	})

	It("should list one event type newest first", func() {
		rows := sqlmock.NewRows([]string{"id", "bin_id", "event", "ts"}).
			AddRow("b", "bin-001", "emptied", time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)).
			AddRow("a", "bin-001", "emptied", time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, bin_id, event, ts FROM trash_logs WHERE bin_id = $1 AND event = $2 ORDER BY ts DESC`)).
			WithArgs("bin-001", "emptied").
			WillReturnRows(rows)

		docs, err := repo.ListByEvent(ctx, "emptied")
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
		Expect(docs[0].ID).To(Equal("b"))
	})

	It("should list everything since a point in time", func() {
		from := time.Date(2026, 10, 12, 0, 0, 0, 0, ict)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, bin_id, event, ts FROM trash_logs WHERE bin_id = $1 AND ts >= $2 ORDER BY ts ASC`)).
			WithArgs("bin-001", from.UTC()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "bin_id", "event", "ts"}))

		docs, err := repo.ListSince(ctx, from)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(BeEmpty())
	})

	It("should page recent events with a limit", func() {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, bin_id, event, ts FROM trash_logs WHERE bin_id = $1 ORDER BY ts DESC LIMIT $2`)).
			WithArgs("bin-001", 50).
			WillReturnRows(sqlmock.NewRows([]string{"id", "bin_id", "event", "ts"}).
				AddRow("x", "bin-001", "emptied", time.Now()))

		docs, err := repo.Recent(ctx, 50)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
	})
})
