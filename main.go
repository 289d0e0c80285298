// Package main provides the idxadvisor command-line tool.
//
// idxadvisor connects to a MariaDB or PostgreSQL database, infers index
// candidates from the server's own statement capture, creates the ones
// that qualify, and keeps only those whose runtime plan statistics show
// an improvement. It also audits existing indexes for duplicates and
// redundancy and monitors auto-increment primary keys for exhaustion.
//
// Usage:
//
//	idxadvisor optimize --url 'user:pass@tcp(host:3306)/db'
//	idxadvisor indexes orders
//	idxadvisor pk-exhaustion --min-usage 25
//
// Environment variables:
//
//	IDXADV_URL or DATABASE_URL - Default database connection string
//	IDXADV_DIALECT             - Default dialect (mariadb or postgres)
package main

import (
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/idxadvisor/idxadvisor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
