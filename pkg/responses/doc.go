// Package responses filters and pages stored submissions. Queries are pure
// functions over a slice of records: scope to one form, match free text
// against the JSON form of each record's data, then slice a page. Result keeps
// the whole filtered set next to the page so exports can ignore paging.
package responses
