package repositories

import (
	"github.com/google/uuid"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// validID reports whether id can address a row. Malformed ids are treated as
// missing rather than surfacing a driver cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func varietiesToStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
