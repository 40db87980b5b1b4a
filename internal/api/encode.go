package api

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backend/internal/domain/catalog"
	"github.com/xenking/pos-backend/internal/domain/report"
	"github.com/xenking/pos-backend/internal/domain/transaction"
)

// Monetary values are encoded as JSON numbers with two decimal places.
func encDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func encDecimalPtr(e *jx.Encoder, d *decimal.Decimal) {
	if d == nil {
		e.Null()
		return
	}
	encDecimal(e, *d)
}

func encTime(e *jx.Encoder, t time.Time) {
	e.Str(t.Format(time.RFC3339Nano))
}

func encTimePtr(e *jx.Encoder, t *time.Time) {
	if t == nil {
		e.Null()
		return
	}
	encTime(e, *t)
}

func encStrOrNull(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}

func encCategory(e *jx.Encoder, c catalog.Category) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("description", func(e *jx.Encoder) { encStrOrNull(e, c.Description) })
		e.Field("created_at", func(e *jx.Encoder) { encTime(e, c.CreatedAt) })
		e.Field("updated_at", func(e *jx.Encoder) { encTime(e, c.UpdatedAt) })
	})
}

func encItem(e *jx.Encoder, it catalog.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("description", func(e *jx.Encoder) { encStrOrNull(e, it.Description) })
		e.Field("price", func(e *jx.Encoder) { encDecimal(e, it.Price) })
		e.Field("category_id", func(e *jx.Encoder) { encStrOrNull(e, it.CategoryID) })
		e.Field("sku", func(e *jx.Encoder) { encStrOrNull(e, it.SKU) })
		e.Field("in_stock", func(e *jx.Encoder) { e.Bool(it.InStock) })
		e.Field("created_at", func(e *jx.Encoder) { encTime(e, it.CreatedAt) })
		e.Field("updated_at", func(e *jx.Encoder) { encTime(e, it.UpdatedAt) })
	})
}

func encTransaction(e *jx.Encoder, t transaction.Transaction) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(t.ID) })
		e.Field("customer_name", func(e *jx.Encoder) { encStrOrNull(e, t.CustomerName) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(t.Status)) })
		e.Field("total", func(e *jx.Encoder) { encDecimal(e, t.Total) })
		e.Field("paid_amount", func(e *jx.Encoder) { encDecimalPtr(e, t.PaidAmount) })
		e.Field("change_amount", func(e *jx.Encoder) { encDecimalPtr(e, t.ChangeAmount) })
		e.Field("created_at", func(e *jx.Encoder) { encTime(e, t.CreatedAt) })
		e.Field("updated_at", func(e *jx.Encoder) { encTime(e, t.UpdatedAt) })
		e.Field("closed_at", func(e *jx.Encoder) { encTimePtr(e, t.ClosedAt) })
	})
}

func encLine(e *jx.Encoder, l transaction.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(l.ID) })
		e.Field("transaction_id", func(e *jx.Encoder) { e.Str(l.TransactionID) })
		e.Field("item_id", func(e *jx.Encoder) { e.Str(l.ItemID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("unit_price", func(e *jx.Encoder) { encDecimal(e, l.UnitPrice) })
		e.Field("total_price", func(e *jx.Encoder) { encDecimal(e, l.TotalPrice) })
		e.Field("created_at", func(e *jx.Encoder) { encTime(e, l.CreatedAt) })
	})
}

func encLineDetail(e *jx.Encoder, l transaction.LineDetail) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(l.ID) })
		e.Field("item_id", func(e *jx.Encoder) { e.Str(l.ItemID) })
		e.Field("item_name", func(e *jx.Encoder) { e.Str(l.ItemName) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("unit_price", func(e *jx.Encoder) { encDecimal(e, l.UnitPrice) })
		e.Field("total_price", func(e *jx.Encoder) { encDecimal(e, l.TotalPrice) })
	})
}

func encDetails(e *jx.Encoder, d transaction.Details) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("transaction", func(e *jx.Encoder) { encTransaction(e, d.Transaction) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range d.Lines {
					encLineDetail(e, l)
				}
			})
		})
	})
}

func encItemSales(e *jx.Encoder, s report.ItemSales) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("item_id", func(e *jx.Encoder) { e.Str(s.ItemID) })
		e.Field("item_name", func(e *jx.Encoder) { e.Str(s.ItemName) })
		e.Field("category_name", func(e *jx.Encoder) { encStrOrNull(e, s.CategoryName) })
		e.Field("quantity_sold", func(e *jx.Encoder) { e.Int64(s.QuantitySold) })
		e.Field("total_revenue", func(e *jx.Encoder) { encDecimal(e, s.TotalRevenue) })
		e.Field("average_price", func(e *jx.Encoder) { encDecimal(e, s.AveragePrice) })
		e.Field("transaction_count", func(e *jx.Encoder) { e.Int64(s.TransactionCount) })
	})
}

func encSalesReport(e *jx.Encoder, rep report.SalesReport) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("start_date", func(e *jx.Encoder) { encTime(e, rep.Start) })
		e.Field("end_date", func(e *jx.Encoder) { encTime(e, rep.End) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, s := range rep.Items {
					encItemSales(e, s)
				}
			})
		})
		e.Field("summary", func(e *jx.Encoder) {
			s := rep.Summary
			e.Obj(func(e *jx.Encoder) {
				e.Field("total_revenue", func(e *jx.Encoder) { encDecimal(e, s.TotalRevenue) })
				e.Field("total_items_sold", func(e *jx.Encoder) { e.Int64(s.TotalItemsSold) })
				e.Field("total_transactions", func(e *jx.Encoder) { e.Int64(s.TotalTransactions) })
				e.Field("average_transaction_value", func(e *jx.Encoder) { encDecimal(e, s.AverageTransactionValue) })
				e.Field("top_selling_item", func(e *jx.Encoder) { encStrOrNull(e, s.TopSellingItem) })
				e.Field("top_revenue_item", func(e *jx.Encoder) { encStrOrNull(e, s.TopRevenueItem) })
			})
		})
	})
}
