package rest

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query describes a filtered, ordered, limited row selection using the
// PostgREST URL dialect (col=eq.v, col=is.null, order=col.desc, limit=n).
type Query struct {
	columns string
	filters [][2]string
	order   []string
	limit   int
}

// Select starts a query returning the given column list ("*" when empty).
func Select(columns string) *Query {
	if columns == "" {
		columns = "*"
	}
	return &Query{columns: columns}
}

// Where starts a query with no explicit column list, for updates.
func Where() *Query {
	return &Query{}
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, [2]string{column, "eq." + fmt.Sprint(value)})
	return q
}

// IsNull keeps rows where column is null.
func (q *Query) IsNull(column string) *Query {
	q.filters = append(q.filters, [2]string{column, "is.null"})
	return q
}

// NotNull keeps rows where column is not null.
func (q *Query) NotNull(column string) *Query {
	q.filters = append(q.filters, [2]string{column, "not.is.null"})
	return q
}

// Order appends a sort key.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = append(q.order, column+"."+dir)
	return q
}

// Limit caps the number of returned rows. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Values encodes the query as URL parameters.
func (q *Query) Values() url.Values {
	v := url.Values{}
	if q == nil {
		return v
	}
	if q.columns != "" {
		v.Set("select", q.columns)
	}
	for _, f := range q.filters {
		v.Add(f[0], f[1])
	}
	if len(q.order) > 0 {
		v.Set("order", strings.Join(q.order, ","))
	}
	if q.limit > 0 {
		v.Set("limit", strconv.Itoa(q.limit))
	}
	return v
}
