// Package db provides the embedded database schema and reference data.
package db

import _ "embed"

// Schema contains the idempotent DDL for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// ReferenceCatalog is the A/B/C/D price list used by seeding and the demo.
//
//go:embed seed/catalog.json
var ReferenceCatalog []byte
