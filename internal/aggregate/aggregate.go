package aggregate

import (
	"sort"
	"time"

	"github.com/tbourn/welder-tracker/internal/domain"
)

// MonthGroup holds the records of one calendar month.
type MonthGroup struct {
	Key     string          `json:"monthKey"`
	Label   string          `json:"month"`
	Records []domain.Record `json:"records"`
}

// ArticleAggregate is the total quantity of one article together with the
// records that contributed to it.
type ArticleAggregate struct {
	Article  string          `json:"article"`
	Quantity float64         `json:"quantity"`
	LatestAt time.Time       `json:"latestDate"`
	Records  []domain.Record `json:"records"`
}

// bucket is a month partition of any record-like value.
type bucket[R any] struct {
	key   string
	label string
	title string
	items []R
}

// groupMonths partitions items by month key, newest month first. Items in a
// bucket are ordered by date descending, ties by id ascending.
func groupMonths[R any](c Calendar, items []R, date func(R) time.Time, id func(R) uint) []bucket[R] {
	byKey := make(map[string]*bucket[R])
	for _, it := range items {
		d := date(it)
		k := c.MonthKey(d)
		b, ok := byKey[k]
		if !ok {
			b = &bucket[R]{key: k, label: c.MonthLabel(d), title: c.TitleLabel(d)}
			byKey[k] = b
		}
		b.items = append(b.items, it)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	out := make([]bucket[R], 0, len(keys))
	for _, k := range keys {
		b := byKey[k]
		sortNewestFirst(b.items, date, id)
		out = append(out, *b)
	}
	return out
}

func sortNewestFirst[R any](items []R, date func(R) time.Time, id func(R) uint) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := date(items[i]), date(items[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return id(items[i]) < id(items[j])
	})
}

func recordDate(r domain.Record) time.Time { return r.Date }
func recordID(r domain.Record) uint        { return r.ID }

// GroupByMonth partitions records by calendar month, most recent month first.
func (c Calendar) GroupByMonth(records []domain.Record) []MonthGroup {
	buckets := groupMonths(c, records, recordDate, recordID)
	out := make([]MonthGroup, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, MonthGroup{Key: b.key, Label: b.label, Records: b.items})
	}
	return out
}

// AggregateByArticle sums quantities per distinct article (exact,
// case-sensitive match). The running total is rounded to two decimals after
// every addition. Aggregates are ordered by their latest contributing record,
// most recent first, ties by article.
func AggregateByArticle(records []domain.Record) []ArticleAggregate {
	sorted := make([]domain.Record, len(records))
	copy(sorted, records)
	sortNewestFirst(sorted, recordDate, recordID)

	byArticle := make(map[string]*ArticleAggregate)
	order := make([]string, 0)
	for _, r := range sorted {
		a, ok := byArticle[r.Article]
		if !ok {
			a = &ArticleAggregate{Article: r.Article, LatestAt: r.Date}
			byArticle[r.Article] = a
			order = append(order, r.Article)
		}
		a.Quantity = Round2(a.Quantity + r.Quantity)
		a.Records = append(a.Records, r)
		if r.Date.After(a.LatestAt) {
			a.LatestAt = r.Date
		}
	}

	out := make([]ArticleAggregate, 0, len(order))
	for _, art := range order {
		out = append(out, *byArticle[art])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LatestAt.Equal(out[j].LatestAt) {
			return out[i].LatestAt.After(out[j].LatestAt)
		}
		return out[i].Article < out[j].Article
	})
	return out
}
