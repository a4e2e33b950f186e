// Package postgres embebe las migraciones SQL del esquema.
package postgres

import "embed"

// FS contiene los archivos .sql en orden lexicográfico de aplicación.
//
//go:embed *.sql
var FS embed.FS
