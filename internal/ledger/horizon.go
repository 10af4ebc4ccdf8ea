package ledger

import (
	"context"  // Request scoping
	"errors"   // Error construction
	"fmt"      // Error wrapping
	"net/http" // Horizon transport
	"time"     // Timeouts

	"github.com/sirupsen/logrus"                  // Logging
	"github.com/sony/gobreaker"                   // Circuit breaker around Horizon
	"github.com/stellar/go/clients/horizonclient" // Horizon REST client
	"github.com/stellar/go/keypair"               // Signing keys
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild" // Transaction construction
)

// horizonAPI is the subset of horizonclient.Client used for payments.
type horizonAPI interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
	SubmitTransaction(transaction *txnbuild.Transaction) (hProtocol.Transaction, error)
}

// HorizonConfig configures the Stellar client.
type HorizonConfig struct {
	URL        string        // Horizon base URL
	Passphrase string        // Network passphrase transactions are signed for
	Timeout    time.Duration // Bound on a single submission, also used as tx time bounds
}

// Horizon submits payments to a Stellar network through Horizon.
type Horizon struct {
	api        horizonAPI
	passphrase string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
}

var _ Client = (*Horizon)(nil)

// NewHorizon builds a client for the configured Horizon server.
func NewHorizon(cfg HorizonConfig) *Horizon {
	api := &horizonclient.Client{
		HorizonURL: cfg.URL,
		HTTP:       &http.Client{Timeout: cfg.Timeout},
	}
	return newHorizon(api, cfg)
}

func newHorizon(api horizonAPI, cfg HorizonConfig) *Horizon {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Horizon{
		api:        api,
		passphrase: cfg.Passphrase,
		timeout:    timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "horizon",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: horizonAnswered,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logrus.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Ledger circuit breaker state changed")
			},
		}),
	}
}

// horizonAnswered reports whether err leaves the network looking healthy to
// the breaker: a rejected transaction or a client error is an answer, while
// transport errors, 5xx and rate limiting count as failures.
func horizonAnswered(err error) bool {
	if err == nil {
		return true
	}
	var lerr *Error
	if errors.As(err, &lerr) {
		return true // Built locally, never sent
	}
	herr := horizonclient.GetError(err)
	if herr == nil {
		return false
	}
	if _, cerr := herr.ResultCodes(); cerr == nil {
		return true
	}
	status := herr.Problem.Status
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

func (h *Horizon) IsValidAddress(address string) bool {
	return IsValidAddress(address)
}

// SubmitPayment signs and submits a native payment. Horizon calls do not
// take a context, so ctx is checked before the first network call and the
// HTTP client carries the timeout.
func (h *Horizon) SubmitPayment(ctx context.Context, req PaymentRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", MapError(err)
	}
	if !IsValidAddress(req.Destination) {
		return "", &Error{Code: CodeInvalidAddress, Message: "invalid destination address"}
	}
	if !ValidAmount(req.Amount) {
		return "", &Error{Code: CodeRejected, Message: "invalid amount " + req.Amount.String()}
	}
	if len(req.Memo) > MaxMemoBytes {
		return "", &Error{Code: CodeRejected, Message: fmt.Sprintf("memo longer than %d bytes", MaxMemoBytes)}
	}
	kp, err := keypair.ParseFull(req.Seed)
	if err != nil {
		return "", fmt.Errorf("parse signing key: %w", err)
	}
	if kp.Address() != req.Source {
		return "", errors.New("signing key does not control source account")
	}

	hash, err := h.breaker.Execute(func() (interface{}, error) {
		return h.submit(kp, req)
	})
	if err != nil {
		return "", MapError(err)
	}
	return hash.(string), nil
}

func (h *Horizon) submit(kp *keypair.Full, req PaymentRequest) (string, error) {
	account, err := h.api.AccountDetail(horizonclient.AccountRequest{AccountID: req.Source})
	if err != nil {
		return "", err
	}

	var memo txnbuild.Memo
	if req.Memo != "" {
		memo = txnbuild.MemoText(req.Memo)
	}
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &account,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Memo:                 memo,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(h.timeout / time.Second)),
		},
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: req.Destination,
				Amount:      req.Amount.StringFixed(AmountScale),
				Asset:       txnbuild.NativeAsset{},
			},
		},
	})
	if err != nil {
		return "", &Error{Code: CodeRejected, Message: "build transaction: " + err.Error(), Err: err}
	}
	tx, err = tx.Sign(h.passphrase, kp)
	if err != nil {
		return "", &Error{Code: CodeRejected, Message: "sign transaction: " + err.Error(), Err: err}
	}

	resp, err := h.api.SubmitTransaction(tx)
	if err != nil {
		return "", err
	}
	return resp.Hash, nil
}
