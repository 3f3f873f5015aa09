package service

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/metrics"
)

var _ = Describe("StatsService", func() {
	var (
		store *fakeStore
		svc   *StatsService
		ctx   context.Context
		now   time.Time
	)

	BeforeEach(func() {
		// Saturday morning in Ho Chi Minh City.
		now = time.Date(2026, 10, 17, 10, 0, 0, 0, ict)
		store = &fakeStore{clock: func() time.Time { return now }}
		svc = NewStatsService(store, ict)
		svc.now = func() time.Time { return now }
		ctx = context.Background()

		store.add(domain.EventEmptied, time.Date(2026, 10, 17, 6, 30, 0, 0, ict))
		store.add(domain.EventEmptied, time.Date(2026, 10, 17, 0, 0, 0, 0, ict))
		store.add(domain.EventEmptied, time.Date(2026, 10, 16, 23, 59, 59, 0, ict))
		store.add(domain.EventEmptied, time.Date(2026, 10, 16, 8, 0, 0, 0, ict))
		store.add(domain.EventEmptied, time.Date(2026, 10, 16, 9, 0, 0, 0, ict))
		store.add(domain.EventEmptied, time.Date(2026, 10, 12, 9, 0, 0, 0, ict))
		store.add(domain.EventEmptied, time.Date(2026, 10, 11, 22, 0, 0, 0, ict))
	})

	Describe("TodayCount", func() {
		It("should count events on the local calendar day", func() {
			Expect(svc.TodayCount(ctx)).To(Equal(2))
		})

		It("should fall back to scanning when the range query fails", func() {
			store.countErr = errors.New("missing index")
			before := testutil.ToFloat64(metrics.StoreFallbacks)
			Expect(svc.TodayCount(ctx)).To(Equal(2))
			Expect(testutil.ToFloat64(metrics.StoreFallbacks)).To(Equal(before + 1))
		})

		It("should report zero when both queries fail", func() {
			store.countErr = errors.New("missing index")
			store.listErr = errors.New("offline")
			Expect(svc.TodayCount(ctx)).To(Equal(0))
		})
	})

	It("should compare today with yesterday", func() {
		Expect(svc.TodayVsYesterday(ctx)).To(Equal(domain.TodayVsYesterday{Today: 2, Yesterday: 3, Diff: -1}))
	})

	Describe("Weekly", func() {
		It("should bucket this week's events from Monday", func() {
			days, err := svc.Weekly(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(days).To(Equal([]domain.DayCount{
				{Name: "T2", Amount: 1},
				{Name: "T3", Amount: 0},
				{Name: "T4", Amount: 0},
				{Name: "T5", Amount: 0},
				{Name: "T6", Amount: 3},
				{Name: "T7", Amount: 2},
				{Name: "CN", Amount: 0},
			}))
		})

		It("should return store errors", func() {
			store.sinceErr = errors.New("timeout")
			_, err := svc.Weekly(ctx)
			Expect(err).To(MatchError("timeout"))
		})
	})

	Describe("History", func() {
		It("should map events to usage logs, newest first", func() {
			store.add("opened", time.Date(2026, 10, 17, 9, 15, 0, 0, ict))

			logs, err := svc.History(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(8))
			Expect(logs[0].Type).To(Equal(domain.LogOpen))
			Expect(logs[0].Details).To(Equal("Activity"))
			Expect(logs[0].Timestamp).To(Equal("09:15 17/10/2026"))
			Expect(logs[1].Type).To(Equal(domain.LogEmpty))
			Expect(logs[1].Details).To(Equal("Trash emptied"))
			Expect(logs[1].Timestamp).To(Equal("06:30 17/10/2026"))
		})

		It("should cap the page at fifty entries", func() {
			for i := 0; i < 60; i++ {
				store.add(domain.EventEmptied, now.Add(-time.Duration(i)*time.Minute))
			}
			logs, err := svc.History(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(HistoryLimit))
		})
	})

	It("should find the last emptied time", func() {
		store.add("opened", now)
		ts, ok, err := svc.LastEmptied(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(ts.Equal(time.Date(2026, 10, 17, 6, 30, 0, 0, ict))).To(BeTrue())
	})
})
