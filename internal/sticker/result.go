package sticker

import "fmt"

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePartial
	OutcomeFailed
)

const MessageNothingSent = "No se pudo enviar ningún sticker."

// Result counts delivered stickers and keeps the raw message of every failed send.
type Result struct {
	Sent   int
	Errors []string
}

func (r Result) Outcome() Outcome {
	switch {
	case r.Sent > 0 && len(r.Errors) == 0:
		return OutcomeSuccess
	case r.Sent > 0:
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}

// Message is the user-facing summary of the batch.
func (r Result) Message() string {
	switch r.Outcome() {
	case OutcomeSuccess:
		return fmt.Sprintf("¡%d sticker(s) enviados correctamente!", r.Sent)
	case OutcomePartial:
		return fmt.Sprintf("Se enviaron %d sticker(s), pero hubo errores en algunos envíos.", r.Sent)
	default:
		return MessageNothingSent
	}
}
