// Package approval implements weighted multi-signer approval of outgoing
// payments and their at-most-once submission to the ledger.
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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultProposalTTL is how long a proposal collects approvals.
const DefaultProposalTTL = 48 * time.Hour

// DefaultLedgerTimeout bounds a single ledger submission.
const DefaultLedgerTimeout = 30 * time.Second

// Clock returns the current time. Engines use UTC.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// Deps are the collaborators an Engine is built from.
type Deps struct {
	Wallets   store.WalletStore
	Proposals store.ProposalStore
	Ledger    ledger.Client
	Secrets   secrets.Store
	Logger    logrus.FieldLogger // Defaults to the standard logrus logger
	Clock     Clock              // Defaults to time.Now in UTC
}

// Config tunes an Engine.
type Config struct {
	ProposalTTL   time.Duration // Approval window, DefaultProposalTTL when zero
	LedgerTimeout time.Duration // Submission bound, DefaultLedgerTimeout when zero
	FallbackSeed  string        // Signing seed used for wallets registered without one
}

// Engine registers wallets and drives proposals through
// propose, approve and execute.
type Engine struct {
	wallets   store.WalletStore
	proposals store.ProposalStore
	ledger    ledger.Client
	secrets   secrets.Store
	log       logrus.FieldLogger
	now       Clock
	ttl       time.Duration

	quorum   *QuorumCalculator
	expiry   *ExpiryPolicy
	claimer  *ExecutionClaimer
	executor *PaymentExecutor
}

// NewEngine wires an Engine and its components.
func NewEngine(deps Deps, cfg Config) *Engine {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	now := deps.Clock
	if now == nil {
		now = utcNow
	}
	ttl := cfg.ProposalTTL
	if ttl <= 0 {
		ttl = DefaultProposalTTL
	}
	timeout := cfg.LedgerTimeout
	if timeout <= 0 {
		timeout = DefaultLedgerTimeout
	}
	return &Engine{
		wallets:   deps.Wallets,
		proposals: deps.Proposals,
		ledger:    deps.Ledger,
		secrets:   deps.Secrets,
		log:       log,
		now:       now,
		ttl:       ttl,
		quorum:    &QuorumCalculator{proposals: deps.Proposals},
		expiry:    &ExpiryPolicy{proposals: deps.Proposals, now: now, log: log},
		claimer:   &ExecutionClaimer{proposals: deps.Proposals, now: now},
		executor: &PaymentExecutor{
			proposals:    deps.Proposals,
			ledger:       deps.Ledger,
			secrets:      deps.Secrets,
			fallbackSeed: cfg.FallbackSeed,
			timeout:      timeout,
			now:          now,
			log:          log,
		},
	}
}

// SignerInput is one roster entry. A nil Weight means 1.
type SignerInput struct {
	UserID uint
	Weight *uint32
}

// RegisterWalletInput describes a new shared wallet. Either Address or
// SigningKey must be set; if both are, the key must control the address.
type RegisterWalletInput struct {
	Name       string
	Threshold  uint32
	Address    string
	SigningKey string
	Signers    []SignerInput
}

// WalletSummary is the public shape of a wallet.
type WalletSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Threshold   uint32    `json:"threshold"`
	Address     string    `json:"address"`
	SignerCount int       `json:"signerCount"`
	TotalWeight uint64    `json:"totalWeight"`
}

func summarize(w *domain.Wallet) WalletSummary {
	return WalletSummary{
		ID:          w.ID,
		Name:        w.Name,
		Threshold:   w.Threshold,
		Address:     w.Address,
		SignerCount: len(w.Signers),
		TotalWeight: domain.TotalWeight(w.Signers),
	}
}

// ProposalView is a proposal with its current quorum progress.
type ProposalView struct {
	Proposal *domain.Proposal `json:"proposal"`
	Progress domain.Progress  `json:"progress"`
}

// WalletDetail is a wallet with its roster and proposals.
type WalletDetail struct {
	Wallet    WalletSummary   `json:"wallet"`
	Signers   []domain.Signer `json:"signers"`
	Proposals []ProposalView  `json:"proposals"`
}

// ProposalInput describes a payment to propose.
type ProposalInput struct {
	Destination string
	Amount      decimal.Decimal
	Memo        string
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RegisterWallet validates and persists a wallet with its roster.
func (e *Engine) RegisterWallet(ctx context.Context, callerID uint, in RegisterWalletInput) (*WalletSummary, error) {
	switch {
	case in.Name == "":
		return nil, validationErr("name is required")
	case in.Threshold < 1:
		return nil, validationErr("threshold must be at least 1")
	case len(in.Signers) == 0:
		return nil, validationErr("at least one signer is required")
	}

	signers := make([]domain.Signer, 0, len(in.Signers))
	seen := make(map[uint]struct{}, len(in.Signers))
	callerListed := false
	for _, s := range in.Signers {
		weight := uint32(1)
		if s.Weight != nil {
			weight = *s.Weight
		}
		if weight < 1 {
			return nil, validationErr("signer %d weight must be at least 1", s.UserID)
		}
		if _, dup := seen[s.UserID]; dup {
			return nil, validationErr("signer %d listed more than once", s.UserID)
		}
		seen[s.UserID] = struct{}{}
		callerListed = callerListed || s.UserID == callerID
		signers = append(signers, domain.Signer{UserID: s.UserID, Weight: weight})
	}
	if total := domain.TotalWeight(signers); total < uint64(in.Threshold) {
		return nil, validationErr("threshold %d exceeds total signer weight %d", in.Threshold, total)
	}
	if !callerListed {
		return nil, fmt.Errorf("%w: creator must be one of the signers", ErrForbidden)
	}

	w := &domain.Wallet{
		ID:        uuid.New(),
		Name:      in.Name,
		Threshold: in.Threshold,
		Address:   in.Address,
		CreatedBy: callerID,
		Signers:   signers,
	}
	switch {
	case in.SigningKey != "":
		derived, err := ledger.AddressFromSeed(in.SigningKey)
		if err != nil {
			return nil, validationErr("signing key is not a valid secret seed")
		}
		if in.Address != "" && in.Address != derived {
			return nil, validationErr("signing key does not control address %s", in.Address)
		}
		sealed, err := e.secrets.Encrypt([]byte(in.SigningKey))
		if err != nil {
			return nil, fmt.Errorf("encrypt signing key: %w", err)
		}
		w.Address = derived
		w.EncryptedSeed = sealed
	case in.Address != "":
		if !e.ledger.IsValidAddress(in.Address) {
			return nil, validationErr("invalid ledger address %q", in.Address)
		}
	default:
		return nil, validationErr("address or signing key is required")
	}

	if err := e.wallets.CreateWallet(ctx, w); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: wallet for address %s already registered", ErrConflict, w.Address)
		}
		return nil, err
	}

	summary := summarize(w)
	e.log.WithFields(logrus.Fields{
		"wallet_id":    w.ID,
		"created_by":   callerID,
		"threshold":    w.Threshold,
		"signer_count": summary.SignerCount,
		"total_weight": summary.TotalWeight,
		"has_seed":     w.HasSeed(),
	}).Info("Wallet registered")
	return &summary, nil
}

// loadWallet fetches a wallet and checks that callerID is on its roster.
func (e *Engine) loadWallet(ctx context.Context, walletID uuid.UUID, callerID uint) (*domain.Wallet, error) {
	w, err := e.wallets.GetWallet(ctx, walletID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: wallet %s", ErrNotFound, walletID)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := w.Signer(callerID); !ok {
		return nil, ErrForbidden
	}
	return w, nil
}

// loadProposal fetches a proposal and its wallet, checks that callerID
// signs for it and only then applies expiry, so non-signers never write.
func (e *Engine) loadProposal(ctx context.Context, proposalID uuid.UUID, callerID uint) (*domain.Proposal, *domain.Wallet, error) {
	p, err := e.proposals.GetProposal(ctx, proposalID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: proposal %s", ErrNotFound, proposalID)
	}
	if err != nil {
		return nil, nil, err
	}
	w, err := e.loadWallet(ctx, p.WalletID, callerID)
	if err != nil {
		return nil, nil, err
	}
	if p, err = e.expiry.Apply(ctx, p); err != nil {
		return nil, nil, err
	}
	return p, w, nil
}

func (e *Engine) view(ctx context.Context, p *domain.Proposal, w *domain.Wallet) (*ProposalView, error) {
	progress, err := e.quorum.ComputeProgress(ctx, p, w)
	if err != nil {
		return nil, err
	}
	return &ProposalView{Proposal: p, Progress: progress}, nil
}

// CreateProposal opens a payment proposal on a wallet the caller signs for.
func (e *Engine) CreateProposal(ctx context.Context, walletID uuid.UUID, callerID uint, in ProposalInput) (*ProposalView, error) {
	w, err := e.loadWallet(ctx, walletID, callerID)
	if err != nil {
		return nil, err
	}
	switch {
	case !ledger.ValidAmount(in.Amount):
		return nil, validationErr("amount must be positive with at most %d decimal places", ledger.AmountScale)
	case !e.ledger.IsValidAddress(in.Destination):
		return nil, validationErr("invalid destination address %q", in.Destination)
	case in.Destination == w.Address:
		return nil, validationErr("destination is the wallet itself")
	case len(in.Memo) > ledger.MaxMemoBytes:
		return nil, validationErr("memo longer than %d bytes", ledger.MaxMemoBytes)
	}

	now := e.now()
	p := &domain.Proposal{
		ID:          uuid.New(),
		WalletID:    w.ID,
		ProposerID:  callerID,
		Destination: in.Destination,
		Amount:      in.Amount,
		Memo:        in.Memo,
		Status:      domain.StatusPending,
		ExpiresAt:   now.Add(e.ttl),
	}
	if err := e.proposals.CreateProposal(ctx, p); err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"proposal_id": p.ID,
		"wallet_id":   w.ID,
		"proposer_id": callerID,
		"amount":      p.Amount.String(),
		"destination": p.Destination,
		"expires_at":  p.ExpiresAt,
	}).Info("Proposal created")
	return &ProposalView{Proposal: p, Progress: domain.NewProgress(0, w.Threshold)}, nil
}

// Approve records signerID's approval and, once quorum is reached, tries to
// claim and execute the proposal. Approving an executed proposal returns its
// final state; approving an expired one is a conflict. A failed submission
// returns an ErrLedger error and leaves the proposal pending for a later
// approval or Execute call to retry.
func (e *Engine) Approve(ctx context.Context, proposalID uuid.UUID, signerID uint) (*ProposalView, error) {
	p, w, err := e.loadProposal(ctx, proposalID, signerID)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case domain.StatusExecuted:
		return e.view(ctx, p, w)
	case domain.StatusExpired:
		return nil, fmt.Errorf("%w: proposal %s has expired", ErrConflict, p.ID)
	}

	inserted, err := e.proposals.InsertApproval(ctx, &domain.Approval{ProposalID: p.ID, SignerID: signerID})
	if err != nil {
		return nil, err
	}
	if inserted {
		e.log.WithFields(logrus.Fields{
			"proposal_id": p.ID,
			"signer_id":   signerID,
		}).Info("Approval recorded")
	}
	return e.advance(ctx, p, w)
}

// Execute is the explicit retry entry point for a proposal that reached
// quorum but whose submission failed.
func (e *Engine) Execute(ctx context.Context, proposalID uuid.UUID, callerID uint) (*ProposalView, error) {
	p, w, err := e.loadProposal(ctx, proposalID, callerID)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case domain.StatusExecuted:
		return e.view(ctx, p, w)
	case domain.StatusExpired:
		return nil, fmt.Errorf("%w: proposal %s has expired", ErrConflict, p.ID)
	}
	return e.advance(ctx, p, w)
}

// advance recomputes progress and, at quorum, attempts the claim. Losers of
// the claim return the latest stored state without executing.
func (e *Engine) advance(ctx context.Context, p *domain.Proposal, w *domain.Wallet) (*ProposalView, error) {
	progress, err := e.quorum.ComputeProgress(ctx, p, w)
	if err != nil {
		return nil, err
	}
	if !progress.IsApproved {
		return &ProposalView{Proposal: p, Progress: progress}, nil
	}

	won, err := e.claimer.TryClaim(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if won {
		e.log.WithFields(logrus.Fields{
			"proposal_id":     p.ID,
			"approved_weight": progress.ApprovedWeight,
			"threshold":       progress.Threshold,
		}).Info("Execution claimed")
		if err := e.executor.Execute(ctx, p, w); err != nil {
			return nil, err
		}
	}

	latest, err := e.proposals.GetProposal(context.WithoutCancel(ctx), p.ID)
	if err != nil {
		return nil, err
	}
	return &ProposalView{Proposal: latest, Progress: progress}, nil
}

// GetProposal returns a proposal and its progress, expiring it if stale.
func (e *Engine) GetProposal(ctx context.Context, proposalID uuid.UUID, callerID uint) (*ProposalView, error) {
	p, w, err := e.loadProposal(ctx, proposalID, callerID)
	if err != nil {
		return nil, err
	}
	return e.view(ctx, p, w)
}

// GetWallet returns the wallet, its roster and every proposal with progress.
func (e *Engine) GetWallet(ctx context.Context, walletID uuid.UUID, callerID uint) (*WalletDetail, error) {
	w, err := e.loadWallet(ctx, walletID, callerID)
	if err != nil {
		return nil, err
	}
	proposals, err := e.proposals.ListProposals(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	views := make([]ProposalView, 0, len(proposals))
	for i := range proposals {
		p, err := e.expiry.Apply(ctx, &proposals[i])
		if err != nil {
			return nil, err
		}
		v, err := e.view(ctx, p, w)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return &WalletDetail{Wallet: summarize(w), Signers: w.Signers, Proposals: views}, nil
}

// ListWallets returns summaries of every wallet callerID signs for.
func (e *Engine) ListWallets(ctx context.Context, callerID uint) ([]WalletSummary, error) {
	wallets, err := e.wallets.ListWalletsForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	out := make([]WalletSummary, 0, len(wallets))
	for i := range wallets {
		signers, err := e.wallets.ListSigners(ctx, wallets[i].ID)
		if err != nil {
			return nil, err
		}
		wallets[i].Signers = signers
		out = append(out, summarize(&wallets[i]))
	}
	return out, nil
}

// ListProposals returns one page of proposals across all wallets.
func (e *Engine) ListProposals(ctx context.Context, status *domain.ProposalStatus, page, pageSize int) ([]domain.Proposal, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, validationErr("unknown status %q", string(*status))
	}
	return e.proposals.FindProposals(ctx, store.ProposalFilter{
		Status: status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
}

// SweepExpired expires every stale proposal. Correctness never depends on it.
func (e *Engine) SweepExpired(ctx context.Context) (int64, error) {
	return e.expiry.Sweep(ctx)
}
