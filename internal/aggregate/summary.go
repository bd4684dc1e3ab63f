package aggregate

import (
	"sort"
	"time"

	"github.com/tbourn/welder-tracker/internal/domain"
)

// CardMonth is one month of a single welder's card: per-article totals,
// most recently touched article first.
type CardMonth struct {
	Key      string             `json:"monthKey"`
	Label    string             `json:"month"`
	Articles []ArticleAggregate `json:"articles"`
}

// WelderCard groups one welder's records by month and aggregates each month
// by article.
func (c Calendar) WelderCard(records []domain.Record) []CardMonth {
	groups := c.GroupByMonth(records)
	out := make([]CardMonth, 0, len(groups))
	for _, g := range groups {
		out = append(out, CardMonth{
			Key:      g.Key,
			Label:    g.Label,
			Articles: AggregateByArticle(g.Records),
		})
	}
	return out
}

// AttributedRecord is a record tagged with its welder's name.
type AttributedRecord struct {
	domain.Record
	WelderName string `json:"welderName"`
}

// ArticleSummary is the cross-welder total for one article in one month,
// with a subtotal per welder name and the records that contributed.
type ArticleSummary struct {
	Article       string             `json:"article"`
	TotalQuantity float64            `json:"totalQuantity"`
	WelderDetails map[string]float64 `json:"welderDetails"`
	Records       []domain.Record    `json:"records"`
}

// WelderNames returns the keys of WelderDetails in sorted order.
func (a ArticleSummary) WelderNames() []string {
	names := make([]string, 0, len(a.WelderDetails))
	for n := range a.WelderDetails {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MonthSummary is one month of the cross-welder summary view.
type MonthSummary struct {
	Key   string `json:"monthKey"`
	Label string `json:"month"`
	// Title is Label capitalised for headings.
	Title    string           `json:"title"`
	Articles []ArticleSummary `json:"articles"`
}

func attributedDate(r AttributedRecord) time.Time { return r.Date }
func attributedID(r AttributedRecord) uint        { return r.ID }

// Summarize builds the cross-welder view: months newest first, articles in
// order of their most recent record, totals and per-welder subtotals rounded
// to two decimals after every addition.
func (c Calendar) Summarize(records []AttributedRecord) []MonthSummary {
	buckets := groupMonths(c, records, attributedDate, attributedID)
	out := make([]MonthSummary, 0, len(buckets))
	for _, b := range buckets {
		byArticle := make(map[string]*ArticleSummary)
		var order []string
		for _, r := range b.items {
			a, ok := byArticle[r.Article]
			if !ok {
				a = &ArticleSummary{Article: r.Article, WelderDetails: make(map[string]float64)}
				byArticle[r.Article] = a
				order = append(order, r.Article)
			}
			a.TotalQuantity = Round2(a.TotalQuantity + r.Quantity)
			a.WelderDetails[r.WelderName] = Round2(a.WelderDetails[r.WelderName] + r.Quantity)
			a.Records = append(a.Records, r.Record)
		}
		ms := MonthSummary{Key: b.key, Label: b.label, Title: b.title, Articles: make([]ArticleSummary, 0, len(order))}
		for _, art := range order {
			ms.Articles = append(ms.Articles, *byArticle[art])
		}
		out = append(out, ms)
	}
	return out
}
