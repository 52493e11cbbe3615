// Package querybuilder assembles parameterized SQL for the Postgres
// repositories. Queries use $n placeholders so they can be handed to
// sqlx/pgx without another rewrite pass.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// argList collects bind arguments and hands out their $n placeholders in
// collection order.
type argList struct {
	args []any
}

func (a *argList) bind(value any) string {
	a.args = append(a.args, value)
	return "$" + strconv.Itoa(len(a.args))
}

// Condition renders one WHERE predicate and binds its arguments.
type Condition interface {
	render(binds *argList) string
}

type eqCondition struct {
	column string
	value  any
}

// Eq matches column = value.
func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) render(binds *argList) string {
	return c.column + " = " + binds.bind(c.value)
}

type inCondition struct {
	column string
	values []any
}

// In with an empty value list matches no rows.
func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) render(binds *argList) string {
	if len(c.values) == 0 {
		return "1=0"
	}

	placeholders := make([]string, len(c.values))
	for i, v := range c.values {
		placeholders[i] = binds.bind(v)
	}
	return c.column + " IN (" + strings.Join(placeholders, ", ") + ")"
}

type isNullCondition struct {
	column string
}

// IsNull matches rows where column is NULL.
func IsNull(column string) Condition {
	return isNullCondition{column: column}
}

func (c isNullCondition) render(*argList) string {
	return c.column + " IS NULL"
}

// Live filters out soft-deleted rows. Every table carries a deleted_at
// column; superseded table rows and pruned snapshots keep theirs set.
func Live() Condition {
	return IsNull("deleted_at")
}

type exprCondition struct {
	expr string
	args []any
}

func (c exprCondition) render(binds *argList) string {
	return expandMarkers(c.expr, c.args, binds)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

// Select starts a SELECT over the given columns.
func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	binds := &argList{}
	clauses := []string{
		"SELECT " + strings.Join(b.columns, ", "),
		"FROM " + b.table,
	}
	if where := renderWhere(b.where, binds); where != "" {
		clauses = append(clauses, where)
	}
	if len(b.orderBy) > 0 {
		clauses = append(clauses, "ORDER BY "+strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		clauses = append(clauses, "LIMIT "+strconv.Itoa(b.limit))
	}

	return strings.Join(clauses, " "), binds.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

// InsertInto starts a multi-row INSERT.
func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix appends raw SQL after the VALUES list. The upsert repositories use
// it for ON CONFLICT clauses.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	binds := &argList{}
	rows := make([]string, 0, len(b.rows))
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		cells := make([]string, len(row))
		for i, value := range row {
			cells[i] = binds.bind(value)
		}
		rows = append(rows, "("+strings.Join(cells, ", ")+")")
	}

	sql := "INSERT INTO " + b.table +
		" (" + strings.Join(b.columns, ", ") + ")" +
		" VALUES " + strings.Join(rows, ", ")
	if b.suffix != "" {
		sql += " " + b.suffix
	}

	return sql, binds.args, nil
}

type setClause struct {
	column string
	value  any
	expr   bool
}

type UpdateBuilder struct {
	table string
	sets  []setClause
	where []Condition
}

// Update starts an UPDATE; at least one Set or SetExpr is required.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, value: value})
	return b
}

// SetExpr assigns a SQL expression instead of a bound value, e.g.
// SetExpr("deleted_at", "NOW()") for soft deletes. ? markers in the
// expression are renumbered to follow the arguments bound so far.
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{
		column: column,
		value:  exprCondition{expr: expr, args: args},
		expr:   true,
	})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	binds := &argList{}
	assignments := make([]string, 0, len(b.sets))
	for _, s := range b.sets {
		if s.expr {
			expr, ok := s.value.(exprCondition)
			if !ok {
				return "", nil, fmt.Errorf("invalid expression set value for %s", s.column)
			}
			assignments = append(assignments, s.column+" = "+expr.render(binds))
			continue
		}
		assignments = append(assignments, s.column+" = "+binds.bind(s.value))
	}

	clauses := []string{
		"UPDATE " + b.table,
		"SET " + strings.Join(assignments, ", "),
	}
	if where := renderWhere(b.where, binds); where != "" {
		clauses = append(clauses, where)
	}

	return strings.Join(clauses, " "), binds.args, nil
}

func renderWhere(conditions []Condition, binds *argList) string {
	if len(conditions) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(conditions))
	for _, c := range conditions {
		rendered = append(rendered, c.render(binds))
	}
	return "WHERE " + strings.Join(rendered, " AND ")
}

// expandMarkers replaces each ? in expr with the placeholder for the next
// value. Extra ? markers beyond the value list stay literal.
func expandMarkers(expr string, values []any, binds *argList) string {
	if len(values) == 0 {
		return expr
	}

	var out strings.Builder
	remaining := values
	for i := 0; i < len(expr); i++ {
		if expr[i] != '?' || len(remaining) == 0 {
			out.WriteByte(expr[i])
			continue
		}
		out.WriteString(binds.bind(remaining[0]))
		remaining = remaining[1:]
	}
	return out.String()
}
