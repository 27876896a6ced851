package postgres

import "fmt"

// TableNames holds environment-prefixed table names so dev/test/prod can
// share a database.
type TableNames struct {
	Bureaus   string
	Templates string
	Posters   string
	Images    string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Bureaus:   fmt.Sprintf("%sbureaus", prefix),
		Templates: fmt.Sprintf("%sspecs", prefix),
		Posters:   fmt.Sprintf("%sposters", prefix),
		Images:    fmt.Sprintf("%simages", prefix),
	}
}
