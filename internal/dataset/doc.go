// Package dataset defines the uniform record model shared by every format reader
// and the dataset registry.
//
// A [Dataset] is an ordered sequence of [Record] values read from one source file.
// Every record in a dataset shares the dataset's [Header]: the same field names in
// the same order. Records are immutable once built and safe to share between
// goroutines.
//
// # Normalization
//
// Readers produce a header row plus raw rows. A [Normalizer] turns them into
// records, applying the configured [ShortRowPolicy]:
//
//   - PadShortRows fills missing trailing values with "" and logs a warning
//   - RejectShortRows fails the row with [ErrRowLengthMismatch]
//
// Rows with more values than the header always fail with [ErrRowLengthMismatch].
// Duplicate header names fail with [ErrDuplicateHeader].
//
// # Errors
//
// The error taxonomy is a set of sentinels checked with errors.Is. [MapError]
// converts any of them into a [UserMessage] with a support code for display.
package dataset
