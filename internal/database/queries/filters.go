package queries

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
)

const dialectPostgres = "postgres"

var dialect = goqu.Dialect(dialectPostgres)

func identifiers(prefix string, cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		if prefix != "" {
			c = prefix + "." + c
		}
		out[i] = goqu.I(c)
	}
	return out
}

func paginate(ds *goqu.SelectDataset, limit, offset int32) *goqu.SelectDataset {
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	return ds
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

func bookDataset(f BookFilter) *goqu.SelectDataset {
	ds := dialect.From("books").Where(goqu.C("deleted_at").IsNull())
	if strings.TrimSpace(f.Query) != "" {
		pattern := likePattern(f.Query)
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("isbn").ILike(pattern),
		))
	}
	if f.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(f.Category))
	}
	if f.Language != "" {
		ds = ds.Where(goqu.C("language").Eq(f.Language))
	}
	if f.AvailableOnly {
		ds = ds.Where(goqu.C("available_copies").Gt(0))
	}
	return ds
}

func buildBookListQuery(f BookFilter) (string, []interface{}, error) {
	ds := bookDataset(f).
		Select(identifiers("", bookColumnList)...).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc())
	return paginate(ds, f.Limit, f.Offset).Prepared(true).ToSQL()
}

func buildBookCountQuery(f BookFilter) (string, []interface{}, error) {
	return bookDataset(f).Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
}

func transactionDataset(f TransactionFilter) *goqu.SelectDataset {
	ds := dialect.From(goqu.T("book_transactions").As("t")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("t.book_id"))))

	switch f.Status {
	case "issued", "returned":
		ds = ds.Where(goqu.I("t.status").Eq(f.Status))
	case "overdue":
		ds = ds.Where(goqu.I("t.status").Eq("issued"), goqu.I("t.due_date").Lt(f.Now.Time))
	}
	if f.BookID > 0 {
		ds = ds.Where(goqu.I("t.book_id").Eq(f.BookID))
	}
	if f.BorrowerID > 0 {
		ds = ds.Where(goqu.I("t.borrower_id").Eq(f.BorrowerID))
	}
	return ds
}

func buildTransactionListQuery(f TransactionFilter) (string, []interface{}, error) {
	cols := append(identifiers("t", transactionColumnList), goqu.I("b.title"))
	order := []exp.OrderedExpression{goqu.I("t.issue_date").Desc(), goqu.I("t.id").Desc()}
	if f.Status == "overdue" {
		order = []exp.OrderedExpression{goqu.I("t.due_date").Asc(), goqu.I("t.id").Asc()}
	}
	ds := transactionDataset(f).Select(cols...).Order(order...)
	return paginate(ds, f.Limit, f.Offset).Prepared(true).ToSQL()
}

func buildTransactionCountQuery(f TransactionFilter) (string, []interface{}, error) {
	return transactionDataset(f).Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
}

func memberDataset(f MemberFilter) *goqu.SelectDataset {
	ds := dialect.From("members")
	if strings.TrimSpace(f.Query) != "" {
		pattern := likePattern(f.Query)
		ds = ds.Where(goqu.Or(
			goqu.C("full_name").ILike(pattern),
			goqu.C("member_code").ILike(pattern),
			goqu.C("email").ILike(pattern),
		))
	}
	if f.IsActive.Valid {
		ds = ds.Where(goqu.C("is_active").Eq(f.IsActive.Bool))
	}
	return ds
}

func buildMemberListQuery(f MemberFilter) (string, []interface{}, error) {
	ds := memberDataset(f).
		Select(identifiers("", memberColumnList)...).
		Order(goqu.C("full_name").Asc(), goqu.C("id").Asc())
	return paginate(ds, f.Limit, f.Offset).Prepared(true).ToSQL()
}

func buildMemberCountQuery(f MemberFilter) (string, []interface{}, error) {
	return memberDataset(f).Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
}

func eventDataset(f EventFilter) *goqu.SelectDataset {
	ds := dialect.From("events")
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(f.Status))
	}
	if f.UpcomingAfter.Valid {
		ds = ds.Where(goqu.COALESCE(goqu.C("end_date"), goqu.C("event_date")).Gte(f.UpcomingAfter.Time))
	}
	return ds
}

func buildEventListQuery(f EventFilter) (string, []interface{}, error) {
	order := []exp.OrderedExpression{goqu.C("event_date").Desc(), goqu.C("id").Desc()}
	if f.UpcomingAfter.Valid {
		order = []exp.OrderedExpression{goqu.C("event_date").Asc(), goqu.C("id").Asc()}
	}
	ds := eventDataset(f).Select(identifiers("", eventColumnList)...).Order(order...)
	return paginate(ds, f.Limit, f.Offset).Prepared(true).ToSQL()
}

func buildEventCountQuery(f EventFilter) (string, []interface{}, error) {
	return eventDataset(f).Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
}
