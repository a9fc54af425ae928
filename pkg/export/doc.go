// Package export turns a filtered set of submissions into downloadable
// documents. BuildTable derives one flat table from the records; each
// Serializer then writes that table as PDF, XLSX, CSV or an HTML page.
//
// Column headers come from the first record's data keys only. Keys that
// appear solely in later records are not exported; this mirrors the
// dashboard the format was designed for.
//
// Output is deterministic: the same records and options always produce the
// same bytes. No serializer reads the wall clock.
package export
