package database

import (
	"context"
	"strconv"
	"strings"
)

// Rebind rewrites ? placeholders as $1, $2, ... Question marks inside
// single-quoted literals are left alone.
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			b.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

type rebindingExecutor struct {
	next Executor
}

func (e rebindingExecutor) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return e.next.Exec(ctx, Rebind(query), args...)
}

func (e rebindingExecutor) QueryRow(ctx context.Context, query string, args ...any) Row {
	return e.next.QueryRow(ctx, Rebind(query), args...)
}

func (e rebindingExecutor) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return e.next.Query(ctx, Rebind(query), args...)
}
