// Package submission turns candidate values for a form into a payload the
// submission store accepts. Encoding is all-or-nothing: a required field
// without a value, a choice outside the field's options or a file field given
// text aborts the whole submission before anything is sent.
//
// The payload variant is chosen globally: any file value switches the whole
// submission to multipart/form-data, otherwise it is a JSON document shaped
// as {"responses": {...}}.
package submission
