// Package schema defines the questionnaire model (Form, Section, Field,
// Option) shared by the builder, the submission encoder and the reference
// store. The JSON tags mirror the wire shapes of the submission API so values
// can be posted and decoded without intermediate DTOs.
//
// ValidateField and ValidateForm are the structural contract every other
// package relies on: the builder runs them before committing a change and the
// encoder refuses forms that do not satisfy them.
package schema
