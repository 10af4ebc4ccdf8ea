package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"multisig_wallet/internal/domain"
	"multisig_wallet/internal/ledger"
	"multisig_wallet/internal/secrets"
	"multisig_wallet/internal/store"

	"github.com/sirupsen/logrus"
)

// PaymentExecutor submits a claimed proposal and records the outcome.
// It must only be called by the winner of ExecutionClaimer.TryClaim.
type PaymentExecutor struct {
	proposals    store.ProposalStore
	ledger       ledger.Client
	secrets      secrets.Store
	fallbackSeed string
	timeout      time.Duration
	now          Clock
	log          logrus.FieldLogger
}

// Execute runs to completion once started: the caller's cancellation is
// ignored and only the submission timeout bounds the ledger call. Every
// failure releases the claim and records last_error before returning.
func (x *PaymentExecutor) Execute(ctx context.Context, p *domain.Proposal, w *domain.Wallet) error {
	ctx = context.WithoutCancel(ctx)
	log := x.log.WithFields(logrus.Fields{
		"proposal_id": p.ID,
		"wallet_id":   w.ID,
		"destination": p.Destination,
		"amount":      p.Amount.String(),
	})

	if !x.ledger.IsValidAddress(p.Destination) {
		lerr := &ledger.Error{Code: ledger.CodeInvalidAddress, Message: "invalid destination address"}
		return x.fail(ctx, log, p, lerr.Error(), fmt.Errorf("%w: %w", ErrLedger, lerr))
	}

	seed, err := x.resolveSeed(w)
	if err != nil {
		return x.fail(ctx, log, p, err.Error(), err)
	}

	submitCtx, cancel := context.WithTimeout(ctx, x.timeout)
	txID, err := x.ledger.SubmitPayment(submitCtx, ledger.PaymentRequest{
		Source:      w.Address,
		Seed:        seed,
		Destination: p.Destination,
		Amount:      p.Amount,
		Memo:        p.Memo,
	})
	cancel()
	if err != nil {
		lerr := ledger.MapError(err)
		return x.fail(ctx, log, p, lerr.Error(), fmt.Errorf("%w: %w", ErrLedger, lerr))
	}

	ok, err := x.proposals.MarkExecuted(ctx, p.ID, txID, x.now())
	if err != nil {
		// The payment is on the ledger; keep the claim so it is never resubmitted
		log.WithFields(logrus.Fields{
			"ledger_tx_id": txID,
			"error":        err.Error(),
		}).Error("Payment submitted but not recorded")
		return fmt.Errorf("record execution of %s (tx %s): %w", p.ID, txID, err)
	}
	if !ok {
		log.WithField("ledger_tx_id", txID).Error("Payment submitted but proposal no longer claimed")
		return fmt.Errorf("%w: proposal %s lost its claim during submission (tx %s)", ErrConflict, p.ID, txID)
	}
	log.WithField("ledger_tx_id", txID).Info("Proposal executed")
	return nil
}

// fail releases the claim, records msg as last_error and returns cause.
func (x *PaymentExecutor) fail(ctx context.Context, log logrus.FieldLogger, p *domain.Proposal, msg string, cause error) error {
	if _, err := x.proposals.ReleaseClaim(ctx, p.ID, msg); err != nil {
		log.WithField("error", err.Error()).Error("Failed to release execution claim")
		return errors.Join(cause, fmt.Errorf("release claim: %w", err))
	}
	log.WithField("error", msg).Warn("Proposal execution failed")
	return cause
}

// resolveSeed prefers the wallet's own key and falls back to the configured
// one. Either must control the wallet's recorded address.
func (x *PaymentExecutor) resolveSeed(w *domain.Wallet) (string, error) {
	if w.HasSeed() {
		raw, err := x.secrets.Decrypt(w.EncryptedSeed)
		if err != nil {
			return "", fmt.Errorf("%w: decrypt wallet key: %v", ErrFatalConfig, err)
		}
		return checkSeed(string(raw), w.Address, "wallet key")
	}
	if x.fallbackSeed != "" {
		return checkSeed(x.fallbackSeed, w.Address, "configured key")
	}
	return "", fmt.Errorf("%w: no signing key available for wallet %s", ErrFatalConfig, w.ID)
}

func checkSeed(seed, address, source string) (string, error) {
	derived, err := ledger.AddressFromSeed(seed)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFatalConfig, source, err)
	}
	if derived != address {
		return "", fmt.Errorf("%w: %s controls %s, wallet address is %s", ErrFatalConfig, source, derived, address)
	}
	return seed, nil
}
