// Package orchestrator wires the form store, the submission encoder, the
// response query engine and the export serializers behind a single entry
// point. Every collaborator can be injected; missing ones fall back to the
// built-in implementations where one exists.
package orchestrator
