package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

// Ack is the store's acknowledgement of an accepted submission.
type Ack struct {
	SubmissionID int64  `json:"submission_id"`
	Message      string `json:"message,omitempty"`
	FileUpload   string `json:"file_upload,omitempty"`
}

// Sender delivers an encoded payload to the store.
type Sender interface {
	SubmitResponse(ctx context.Context, formID int64, payload Payload) (Ack, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, formID int64, payload Payload) (Ack, error)

func (f SenderFunc) SubmitResponse(ctx context.Context, formID int64, payload Payload) (Ack, error) {
	return f(ctx, formID, payload)
}

// Submitter runs validate, encode and send as one unit.
type Submitter struct {
	encoder *Encoder
	sender  Sender
}

// NewSubmitter wires a sender with an encoder built from opts.
func NewSubmitter(sender Sender, opts ...Option) *Submitter {
	return &Submitter{encoder: NewEncoder(opts...), sender: sender}
}

// Encoder exposes the encoder used by the submitter.
func (s *Submitter) Encoder() *Encoder { return s.encoder }

// Submit encodes values and sends them. The sender is not called when
// encoding fails. A rejection from the store comes back as *RejectedError
// with its messages mapped onto the form's fields; it is never retried.
func (s *Submitter) Submit(ctx context.Context, formID int64, form schema.Form, values Values) (Ack, error) {
	if s == nil || s.sender == nil {
		return Ack{}, ErrSenderRequired
	}
	payload, err := s.encoder.Encode(form, values)
	if err != nil {
		return Ack{}, err
	}

	ack, err := s.sender.SubmitResponse(ctx, formID, payload)
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			rejected.Details = MapErrorPayload(form, rejected.Raw)
			return Ack{}, rejected
		}
		return Ack{}, fmt.Errorf("submission: send form %d: %w", formID, err)
	}
	return ack, nil
}
