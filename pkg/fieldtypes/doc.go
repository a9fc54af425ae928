// Package fieldtypes holds the per-type behaviour of form fields: the tagged
// value union callers submit and the handlers that shape those values into
// payload entries, selected by field type through a Registry.
package fieldtypes
