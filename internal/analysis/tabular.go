package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"recordkit/internal/aggregate"
	"recordkit/internal/extract"
	"recordkit/internal/metrics"
	"recordkit/internal/validate"
)

var (
	usersRule = extract.MustRowRule(extract.RowSpec{Name: "users"})

	salesRule = extract.MustRowRule(extract.RowSpec{
		Name: "sales",
		Fields: []extract.Field{
			{Name: "product"},
			{Name: "quantity", Type: extract.TypeInt},
			{Name: "price", Type: extract.TypeDecimal},
		},
	})

	// UserRules are the checks ValidateUsers applies, in report order.
	UserRules = []validate.Rule{
		validate.Email("email"),
		validate.Phone("phone"),
		validate.Date("created_at").Labeled("date"),
	}
)

// UsersReport is a validation report over a users table.
type UsersReport struct {
	validate.Report
	Skipped []extract.Skip `json:"skipped,omitempty"`
}

func (r UsersReport) Lines() []string {
	out := []string{
		"Validation Results:",
		fmt.Sprintf("  Valid rows: %d", r.Valid),
		fmt.Sprintf("  Invalid rows: %d", len(r.Invalid)),
		"",
		"Errors:",
	}
	for _, line := range r.Report.Lines() {
		out = append(out, "  "+line)
	}
	return out
}

// ValidateUsers checks the email, phone and created_at columns of every row
// and reports invalid rows by their id column. Rows whose width does not
// match the header are skipped, not validated.
func (r *Runner) ValidateUsers(t Table) (UsersReport, error) {
	res, err := r.table(usersRule, t)
	if err != nil {
		return UsersReport{}, err
	}

	rep := UsersReport{Skipped: res.Skips}
	_ = r.step("validate", func() error {
		rep.Report = validate.ValidateAll(res.Records, "id", UserRules)
		return nil
	})
	r.rec.RecordRows(metrics.KindValid, rep.Valid)
	r.rec.RecordRows(metrics.KindInvalid, len(rep.Invalid))
	return rep, nil
}

// RevenueReport lists revenue per product, sorted by product name.
type RevenueReport struct {
	Products []aggregate.Group `json:"products"`
	Total    decimal.Decimal   `json:"total"`
	Skipped  []extract.Skip    `json:"skipped,omitempty"`
}

func (r RevenueReport) Lines() []string {
	out := make([]string, 0, len(r.Products))
	for _, g := range r.Products {
		out = append(out, fmt.Sprintf("%s: $%s", g.Key, g.Sum.StringFixed(2)))
	}
	return out
}

// Revenue sums quantity × price per product over a sales table.
func (r *Runner) Revenue(t Table) (RevenueReport, error) {
	res, err := r.table(salesRule, t)
	if err != nil {
		return RevenueReport{}, err
	}

	rep := RevenueReport{Skipped: res.Skips}
	_ = r.step("aggregate", func() error {
		sums := aggregate.Sum(res.Records, revenueSpec)
		rep.Products = sums.Sorted()
		rep.Total = sums.Total()
		return nil
	})
	return rep, nil
}

var revenueSpec = aggregate.SumSpec{Group: aggregate.By("product"), Value: "price", Weight: "quantity"}

// SalesReport holds the headline figures of a sales table.
type SalesReport struct {
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	MostPopular    string          `json:"most_popular,omitempty"`
	UniqueProducts int             `json:"unique_products"`
	Skipped        []extract.Skip  `json:"skipped,omitempty"`
}

func (r SalesReport) Lines() []string {
	out := []string{
		"Total items sold: " + r.TotalQuantity.String(),
		"Total revenue: $" + r.TotalRevenue.StringFixed(2),
	}
	if r.MostPopular != "" {
		out = append(out, "Most popular: "+r.MostPopular)
	}
	return append(out, fmt.Sprintf("Unique products: %d", r.UniqueProducts))
}

// SalesStats reports total quantity, total revenue, the product with the
// largest quantity (first seen wins ties) and the number of distinct products.
func (r *Runner) SalesStats(t Table) (SalesReport, error) {
	res, err := r.table(salesRule, t)
	if err != nil {
		return SalesReport{}, err
	}

	rep := SalesReport{Skipped: res.Skips}
	_ = r.step("aggregate", func() error {
		rep.TotalQuantity = aggregate.Stats(res.Records, "quantity").Sum
		rep.TotalRevenue = aggregate.Sum(res.Records, revenueSpec).Total()

		byQty := aggregate.Sum(res.Records, aggregate.SumSpec{Group: aggregate.By("product"), Value: "quantity"})
		if top, ok := byQty.Largest(); ok {
			rep.MostPopular = top.Key
		}
		rep.UniqueProducts = byQty.Len()
		return nil
	})
	return rep, nil
}
