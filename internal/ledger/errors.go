package ledger

import (
	"context" // Deadline detection
	"errors"  // Error inspection
	"net"     // Network timeouts

	"github.com/sony/gobreaker"                   // Breaker states
	"github.com/stellar/go/clients/horizonclient" // Horizon problem responses
)

// Code classifies a ledger failure.
type Code string

const (
	CodeInvalidAddress  Code = "invalid_address"
	CodeUnderfunded     Code = "underfunded"
	CodeLowReserve      Code = "low_reserve"
	CodeNoDestination   Code = "no_destination"
	CodeBadSequence     Code = "bad_sequence"
	CodeInsufficientFee Code = "insufficient_fee"
	CodeRejected        Code = "rejected"
	CodeTimeout         Code = "timeout"
	CodeUnavailable     Code = "unavailable"
	CodeNetwork         Code = "network"
)

// Error is a typed ledger failure. Its message is what gets recorded on the
// proposal, so it stays short and human readable.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

var opMessages = map[string]struct {
	code Code
	msg  string
}{
	"op_underfunded":        {CodeUnderfunded, "insufficient balance"},
	"op_low_reserve":        {CodeLowReserve, "insufficient reserve"},
	"op_no_destination":     {CodeNoDestination, "destination account does not exist"},
	"op_no_trust":           {CodeRejected, "destination lacks a trustline"},
	"op_line_full":          {CodeRejected, "destination line is full"},
	"op_src_not_authorized": {CodeRejected, "source not authorized"},
}

var txMessages = map[string]struct {
	code Code
	msg  string
}{
	"tx_bad_seq":              {CodeBadSequence, "bad sequence number"},
	"tx_insufficient_fee":     {CodeInsufficientFee, "insufficient fee"},
	"tx_insufficient_balance": {CodeLowReserve, "insufficient reserve"},
	"tx_bad_auth":             {CodeRejected, "transaction signature rejected"},
	"tx_no_source_account":    {CodeRejected, "source account does not exist"},
	"tx_too_late":             {CodeTimeout, "ledger timeout"},
}

// MapError converts a submission failure into *Error. A nil error maps to nil
// and an *Error passes through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr
	}

	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &nerr) && nerr.Timeout():
		return &Error{Code: CodeTimeout, Message: "ledger timeout", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Code: CodeNetwork, Message: "ledger request canceled", Err: err}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &Error{Code: CodeUnavailable, Message: "ledger unavailable", Err: err}
	}

	if herr := horizonclient.GetError(err); herr != nil {
		return mapHorizonError(herr)
	}
	return &Error{Code: CodeNetwork, Message: err.Error(), Err: err}
}

func mapHorizonError(herr *horizonclient.Error) *Error {
	codes, cerr := herr.ResultCodes()
	if cerr == nil && codes != nil {
		for _, op := range codes.OperationCodes {
			if m, ok := opMessages[op]; ok {
				return &Error{Code: m.code, Message: m.msg, Err: herr}
			}
		}
		if m, ok := txMessages[codes.TransactionCode]; ok {
			return &Error{Code: m.code, Message: m.msg, Err: herr}
		}
		msg := "transaction rejected: " + codes.TransactionCode
		for _, op := range codes.OperationCodes {
			if op != "op_success" {
				msg += " " + op
			}
		}
		return &Error{Code: CodeRejected, Message: msg, Err: herr}
	}
	if herr.Problem.Status == 504 {
		return &Error{Code: CodeTimeout, Message: "ledger timeout", Err: herr}
	}
	msg := herr.Problem.Title
	if msg == "" {
		msg = "ledger request failed"
	}
	return &Error{Code: CodeRejected, Message: msg, Err: herr}
}
