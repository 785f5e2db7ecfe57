// Package core provides the business logic for the report viewer.
//
// This package holds the filter/sort/type-inference engine and the session
// service built on it, independent of any UI or transport layer. It is used
// by the web handlers, the CLI, and tests without modification.
//
// # Pipeline
//
// Every interaction is one pure pass over the uploaded bytes:
//
//  1. [LoadCSV] parses the semicolon-delimited file (BOM skipped, UTF-8 enforced)
//  2. [InferTable] assigns each column a [Kind]: Numeric, Date, or Text
//  3. [SortTable] applies a stable multi-key sort
//  4. [ApplyFilters] evaluates each [FilterRow] with [Evaluate] and folds the
//     masks with [Compose] under one AND/OR operator
//  5. [EvaluateHighlights] computes a per-rule [HighlightResult]
//
// [Pipeline.Run] chains these stages, checking context cancellation between
// them. Nothing is carried between runs: sort keys, filters, and highlight
// rules arrive as one [Request] value.
//
// # Inference
//
// A column is Numeric if it has at least one non-empty value and every
// non-empty value parses with [ParseNumber]; otherwise Date under the same rule
// with [ParseDate]; otherwise Text. Dates are timezone-naive.
//
// # Filters
//
// A filter row with an empty value, or a range missing either bound, is inert
// and contributes nothing. When every row is inert the whole table is
// selected. Values that do not parse for a Numeric or Date column match no
// rows. Missing cells never match.
//
// # Sessions
//
// [Service] stores raw uploads under random IDs, bounds concurrent runs with
// an [UploadLimiter], records every run through a [RunRecorder], and expires
// idle sessions from [Service.StartJanitor].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE005: File errors (size, format, encoding)
//   - FLT001-FLT004: Sort and filter errors
//   - SES001-SES002: Session errors
//   - UPL002-UPL005: Capacity, cancellation and timeouts
//   - EXP001-EXP002: Export errors
package core
