// Package ingest reads source files into raw tables.
//
// Each supported format has a Reader:
//
//   - DelimitedReader: comma-separated text with RFC 4180 quoting
//   - SpreadsheetReader: first sheet of an .xlsx workbook
//   - JSONTableReader: a JSON array whose first element is the header
//   - FixedSchemaXMLReader: line-oriented <record> blocks with a footer line
//
// Readers only extract a header row and data rows. Turning rows into records
// is the job of dataset.Normalizer. Use ReaderFor to pick a reader from a
// file extension.
package ingest
