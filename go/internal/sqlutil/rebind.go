package sqlutil

import (
	"strconv"
	"strings"
)

// Rebind rewrites '?' placeholders into the style the driver expects.
// Postgres drivers take $N; sqlite3 takes '?' as written.
func Rebind(driver, query string) string {
	switch driver {
	case "postgres", "pgx":
	default:
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
