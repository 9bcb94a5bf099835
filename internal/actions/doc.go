// Package actions defines core types and interfaces shared across the
// ingestion subsystems.
package actions
