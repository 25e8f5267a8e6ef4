// Package core turns spreadsheet rows into user records.
//
// It holds the domain logic independent of the HTTP layer: the web
// handlers, the CLI and the tests all drive the same [Service].
//
// # Pipeline
//
// A fetch runs through [Service.FetchRecordsWithOutcome]:
//
//  1. The [FetchLimiter] hands out a slot for the upstream call.
//  2. The [SheetSource] returns the header row and data rows.
//  3. A [MapBatch] normalizes headers with [Normalize] and builds one
//     [Record] per usable row, taking the id from the configured id column
//     or from the [IDRegistry].
//  4. Any failure, or a sheet without usable rows, is replaced by
//     [SampleRecords]; the [Outcome] keeps the [FallbackReason].
//
// FetchRecords never fails and never returns an empty slice.
//
// # Identity
//
// Rows without an id column value are keyed by their first three non-empty
// cells. The registry remembers the id issued for each key until cleared,
// and never reissues an id within the process lifetime.
//
// # Visibility
//
// [DisplaySettings] decides which fields a [Role] may see. Admins see every
// non-empty field; guests see the always-visible fields plus the configured
// visible columns.
//
// # Error Handling
//
// [MapError] turns technical errors into a [UserMessage] with a support
// code; see error_messages.go for the code table.
package core
