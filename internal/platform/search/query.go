package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// ParamType defines how a query parameter is matched against its column.
type ParamType int

const (
	ParamExact    ParamType = iota // column = value
	ParamContains                  // case-insensitive substring match
	ParamArrayHas                  // value is an element of a text[] column
	ParamDateFrom                  // column >= value (YYYY-MM-DD)
	ParamDateTo                    // column < value + 1 day (YYYY-MM-DD)
)

// ParamConfig maps a query parameter to its database column.
type ParamConfig struct {
	Type   ParamType
	Column string
}

// Query builds a filtered SELECT plus its COUNT companion for list endpoints.
type Query struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

func New(table, cols string) *Query {
	return &Query{table: table, cols: cols, idx: 1}
}

// Add appends a raw WHERE clause fragment (without leading "AND"). Placeholders
// must start at Idx().
func (q *Query) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

func (q *Query) Idx() int { return q.idx }

func (q *Query) Apply(config ParamConfig, value string) {
	switch config.Type {
	case ParamExact:
		q.Add(fmt.Sprintf("%s = $%d", config.Column, q.idx), value)
	case ParamContains:
		q.Add(fmt.Sprintf("%s ILIKE $%d", config.Column, q.idx), "%"+escapeLike(value)+"%")
	case ParamArrayHas:
		q.Add(fmt.Sprintf("$%d = ANY(%s)", q.idx, config.Column), value)
	case ParamDateFrom:
		q.Add(fmt.Sprintf("%s >= $%d::date", config.Column, q.idx), value)
	case ParamDateTo:
		q.Add(fmt.Sprintf("%s < $%d::date + 1", config.Column, q.idx), value)
	}
}

// ApplyParams applies every known parameter in name order, so identical input
// always renders identical SQL.
func (q *Query) ApplyParams(params map[string]string, configs map[string]ParamConfig) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		config, ok := configs[name]
		if !ok || params[name] == "" {
			continue
		}
		q.Apply(config, params[name])
	}
}

func (q *Query) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

func (q *Query) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

func (q *Query) CountArgs() []interface{} {
	return q.args
}

func (q *Query) DataSQL(limit, offset int) string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

func (q *Query) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// ParamsFromContext collects query parameters, skipping paging controls.
func ParamsFromContext(c echo.Context) map[string]string {
	params := map[string]string{}
	for k, v := range c.QueryParams() {
		if len(v) == 0 || strings.HasPrefix(k, "_") {
			continue
		}
		switch k {
		case "limit", "offset":
			continue
		}
		params[k] = v[0]
	}
	return params
}
