package domain

// domain package contains the Domain Models and Interfaces of the Weftline production tracker.
//
// `domain/weftline` package exposes the root object of the application.
// Entrypoints should instantiate it and reach everything else through it.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/production.go` contains the `ProductionRecord` entity
// with its stage-update ledger and quality checks.
//
// `domain/ENTITY` directory contains the "physical" representation of the
// domain entities in the RDB.
// For example, `domain/production/db` exposes the repository interface for
// production records, and `domain/production/db/postgres` implements it.
//
// # Entities
//
// - `production`: one manufacturing run of an order or a sample.
// A ProductionRecord advances through the fixed stage sequence
// (DESIGN ... SHIPPED). Every stage action is appended to the stage-update
// ledger; the record's current stage, status and progress are the derived
// aggregate of that history, persisted explicitly so invariants stay checkable
// without scanning the ledger.
//
// - stage updates: immutable ledger rows. Corrections are new rows, never
// updates. Delay reports carry extra-day accounting; reverts are marked as
// revisions.
//
// - quality checks: inspector verdicts recorded at the finishing stages.
// A FAIL or CONDITIONAL verdict at the QC stage blocks completion until a
// newer PASS exists or the record is reverted for rework.
//
// State changes are announced through the EventSink after they are committed;
// delivery is best-effort and never rolls back a domain write.
