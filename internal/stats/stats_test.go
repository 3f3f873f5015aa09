package stats_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/stats"
)

var _ = Describe("Stats", func() {
	var ict *time.Location

	BeforeEach(func() {
		ict = time.FixedZone("ICT", 7*3600)
	})

	Describe("DayBounds", func() {
		It("should cover the whole local day to the millisecond", func() {
			t := time.Date(2026, 10, 17, 13, 45, 0, 0, ict)
			start, end := stats.DayBounds(t, ict)
			Expect(start).To(Equal(time.Date(2026, 10, 17, 0, 0, 0, 0, ict)))
			Expect(end).To(Equal(time.Date(2026, 10, 17, 23, 59, 59, 999000000, ict)))
		})

		It("should use the local calendar day for UTC input", func() {
			// 18:30 UTC is already the next day at GMT+7.
			t := time.Date(2026, 10, 17, 18, 30, 0, 0, time.UTC)
			start, _ := stats.DayBounds(t, ict)
			Expect(start.Day()).To(Equal(18))
		})
	})

	Describe("YesterdayBounds", func() {
		It("should shift both bounds by one day across a month boundary", func() {
			now := time.Date(2026, 11, 1, 9, 0, 0, 0, ict)
			start, end := stats.YesterdayBounds(now, ict)
			Expect(start).To(Equal(time.Date(2026, 10, 31, 0, 0, 0, 0, ict)))
			Expect(end.Day()).To(Equal(31))
			Expect(end.Hour()).To(Equal(23))
		})
	})

	Describe("ISOWeekday", func() {
		It("should number Monday as 1 and Sunday as 7", func() {
			Expect(stats.ISOWeekday(time.Date(2026, 10, 12, 0, 0, 0, 0, ict))).To(Equal(1))
			Expect(stats.ISOWeekday(time.Date(2026, 10, 17, 0, 0, 0, 0, ict))).To(Equal(6))
			Expect(stats.ISOWeekday(time.Date(2026, 10, 18, 0, 0, 0, 0, ict))).To(Equal(7))
		})
	})

	Describe("WeekStart", func() {
		It("should return Monday midnight for a Saturday", func() {
			now := time.Date(2026, 10, 17, 15, 0, 0, 0, ict)
			Expect(stats.WeekStart(now, ict)).To(Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, ict)))
		})

		It("should treat Sunday as the last day of the week", func() {
			now := time.Date(2026, 10, 18, 23, 0, 0, 0, ict)
			Expect(stats.WeekStart(now, ict)).To(Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, ict)))
		})

		It("should return the same day on a Monday", func() {
			now := time.Date(2026, 10, 12, 0, 0, 1, 0, ict)
			Expect(stats.WeekStart(now, ict)).To(Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, ict)))
		})
	})

	Describe("BucketWeekly", func() {
		It("should return seven labelled buckets even without data", func() {
			out := stats.BucketWeekly(nil, ict)
			Expect(out).To(HaveLen(7))
			Expect(out[0].Name).To(Equal("T2"))
			Expect(out[6].Name).To(Equal("CN"))
			for _, d := range out {
				Expect(d.Amount).To(BeZero())
			}
		})

		It("should bucket by weekday in the configured zone", func() {
			ts := []time.Time{
				time.Date(2026, 10, 12, 8, 0, 0, 0, ict),
				time.Date(2026, 10, 12, 20, 0, 0, 0, ict),
				// Saturday 18:00 UTC is Sunday 01:00 at GMT+7.
				time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC),
			}
			out := stats.BucketWeekly(ts, ict)
			Expect(out[0].Amount).To(Equal(2))
			Expect(out[5].Amount).To(Equal(0))
			Expect(out[6].Amount).To(Equal(1))
		})
	})

	Describe("CountInDay", func() {
		It("should include both bounds", func() {
			day := time.Date(2026, 10, 17, 12, 0, 0, 0, ict)
			start, end := stats.DayBounds(day, ict)
			ts := []time.Time{start, end, start.Add(-time.Millisecond), end.Add(time.Millisecond)}
			Expect(stats.CountInDay(ts, day, ict)).To(Equal(2))
		})
	})

	Describe("Compare", func() {
		It("should report a negative diff when today is behind", func() {
			c := stats.Compare(2, 5)
			Expect(c.Today).To(Equal(2))
			Expect(c.Yesterday).To(Equal(5))
			Expect(c.Diff).To(Equal(-3))
		})
	})
})
