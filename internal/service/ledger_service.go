// Package service orchestrates validator-gated writes and derived reads over
// a ledger store. The computation itself lives in calculator; this layer adds
// entry validation, per-ledger write serialization, and the post-write audit.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/calculator"
	"tally/internal/currency"
	"tally/internal/metrics"
	"tally/internal/models"
	"tally/internal/storage"
)

// LedgerService is the entry point for all ledger mutations and derived
// reads. Writers to the same ledger serialize on a per-ledger lock, because
// the post-write audit reads aggregated balances and then conditionally flips
// member active flags; that read-modify-write must not interleave.
type LedgerService struct {
	store storage.Store
	rates currency.RateProvider

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedgerService creates a LedgerService over the given store and rate
// provider.
func NewLedgerService(store storage.Store, rates currency.RateProvider) *LedgerService {
	return &LedgerService{
		store: store,
		rates: rates,
		locks: make(map[string]*sync.Mutex),
	}
}

// ledgerLock returns the mutex serializing writes to one ledger.
func (s *LedgerService) ledgerLock(ledgerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[ledgerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ledgerID] = l
	}
	return l
}

// CreateLedger creates a new ledger with the given base currency.
func (s *LedgerService) CreateLedger(ctx context.Context, name, currencyCode string) (*models.Ledger, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Validationf(models.RuleNameOrCategory, "ledger needs a name")
	}
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if !currency.Supported(code) {
		return nil, models.Validationf(models.RuleCurrency, "unsupported currency %q", currencyCode)
	}

	ledger := &models.Ledger{
		ID:        uuid.New().String(),
		Name:      name,
		Currency:  code,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.CreateLedger(ctx, ledger); err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}
	slog.Info("ledger created", "ledger_id", ledger.ID, "name", ledger.Name, "currency", ledger.Currency)
	return ledger, nil
}

// AddMember adds a member to a ledger. Names are unique per ledger,
// case-insensitively.
func (s *LedgerService) AddMember(ctx context.Context, ledgerID, name string) (*models.Member, error) {
	lock := s.ledgerLock(ledgerID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.GetLedger(ctx, ledgerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, models.Validationf(models.RuleLedgerExists, "ledger %q does not exist", ledgerID)
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Validationf(models.RuleMemberName, "member needs a name")
	}

	members, err := s.store.ListMembers(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		if strings.EqualFold(m.Name, name) {
			return nil, models.Validationf(models.RuleMemberName, "member name %q is already taken", name)
		}
	}

	member := &models.Member{
		ID:       uuid.New().String(),
		LedgerID: ledgerID,
		Name:     name,
		IsActive: true,
	}
	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return member, nil
}

// DeactivateMember soft-deletes a member. A member can only leave settled:
// deactivating with a non-zero net balance is a validation error, which is
// what keeps the inactive-net-zero invariant true at the entrance.
func (s *LedgerService) DeactivateMember(ctx context.Context, ledgerID, memberID string) error {
	lock := s.ledgerLock(ledgerID)
	lock.Lock()
	defer lock.Unlock()

	members, transactions, err := s.loadLedgerState(ctx, ledgerID)
	if err != nil {
		return err
	}
	var member *models.Member
	for i := range members {
		if members[i].ID == memberID {
			member = &members[i]
			break
		}
	}
	if member == nil {
		return models.Validationf(models.RuleContributions, "member %q is not in the ledger", memberID)
	}

	balances, err := s.computeBalances(members, transactions, calculator.AuditMode)
	if err != nil {
		return err
	}
	for _, b := range balances {
		if b.MemberID == memberID && b.NetCents != 0 {
			return models.Validationf(models.RuleMemberSettled,
				"member %q has outstanding net balance %d and cannot be removed", memberID, b.NetCents)
		}
	}

	member.IsActive = false
	if err := s.store.UpdateMember(ctx, member); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	slog.Info("member deactivated", "ledger_id", ledgerID, "member_id", memberID)
	return nil
}

// CreateTransaction validates a draft, persists it, and runs the post-write
// audit.
func (s *LedgerService) CreateTransaction(ctx context.Context, ledgerID string, draft *TransactionDraft) (*models.Transaction, error) {
	lock := s.ledgerLock(ledgerID)
	lock.Lock()
	defer lock.Unlock()

	ledger, members, err := s.ledgerAndMembers(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	txn, verr := s.validateTransaction(ledger, members, draft)
	if verr != nil {
		metrics.Validations.WithLabelValues("rejected").Inc()
		return nil, verr
	}
	metrics.Validations.WithLabelValues("ok").Inc()

	txn.ID = uuid.New().String()
	txn.CreatedAt = time.Now().Unix()
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if err := s.audit(ctx, ledgerID); err != nil {
		return nil, err
	}
	return txn, nil
}

// UpdateTransaction validates a draft against an existing transaction,
// replaces it, and runs the post-write audit.
func (s *LedgerService) UpdateTransaction(ctx context.Context, ledgerID, txnID string, draft *TransactionDraft) (*models.Transaction, error) {
	lock := s.ledgerLock(ledgerID)
	lock.Lock()
	defer lock.Unlock()

	ledger, members, err := s.ledgerAndMembers(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if existing.LedgerID != ledgerID {
		return nil, models.Validationf(models.RuleLedgerExists, "transaction %q is not in ledger %q", txnID, ledgerID)
	}

	txn, verr := s.validateTransaction(ledger, members, draft)
	if verr != nil {
		metrics.Validations.WithLabelValues("rejected").Inc()
		return nil, verr
	}
	metrics.Validations.WithLabelValues("ok").Inc()

	// The ID carries the splitter seed, so an update re-rounds exactly the
	// way the original did.
	txn.ID = existing.ID
	txn.CreatedAt = existing.CreatedAt
	txn.IsDeleted = existing.IsDeleted
	if err := s.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	if err := s.audit(ctx, ledgerID); err != nil {
		return nil, err
	}
	return txn, nil
}

// DeleteTransaction soft-deletes a transaction and runs the post-write audit.
func (s *LedgerService) DeleteTransaction(ctx context.Context, ledgerID, txnID string) error {
	lock := s.ledgerLock(ledgerID)
	lock.Lock()
	defer lock.Unlock()

	txn, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if txn.LedgerID != ledgerID {
		return models.Validationf(models.RuleLedgerExists, "transaction %q is not in ledger %q", txnID, ledgerID)
	}

	txn.IsDeleted = true
	if err := s.store.UpdateTransaction(ctx, txn); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.Info("transaction soft-deleted", "ledger_id", ledgerID, "transaction_id", txnID)

	return s.audit(ctx, ledgerID)
}

// Balances recomputes every member's balance from the current history, in
// strict mode: an inactive member with a non-zero net is an integrity error,
// never a successful response.
func (s *LedgerService) Balances(ctx context.Context, ledgerID string) ([]models.Balance, error) {
	members, transactions, err := s.loadLedgerState(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return s.computeBalances(members, transactions, calculator.Strict)
}

// SettlementPlan computes the transfers that zero out the ledger's current
// balances.
func (s *LedgerService) SettlementPlan(ctx context.Context, ledgerID string) ([]models.Transfer, error) {
	balances, err := s.Balances(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	transfers, err := calculator.PlanSettlement(balances)
	if err != nil {
		metrics.IntegrityFailures.Inc()
		return nil, err
	}
	return transfers, nil
}

// audit recomputes balances after a write and reactivates any inactive member
// whose net balance the write made non-zero. This is how a soft-deleted
// member comes back when a historical edit pulls them into the money flow
// again.
func (s *LedgerService) audit(ctx context.Context, ledgerID string) error {
	members, transactions, err := s.loadLedgerState(ctx, ledgerID)
	if err != nil {
		return err
	}
	balances, err := s.computeBalances(members, transactions, calculator.AuditMode)
	if err != nil {
		return err
	}

	nets := make(map[string]int64, len(balances))
	for _, b := range balances {
		nets[b.MemberID] = b.NetCents
	}
	for i := range members {
		m := &members[i]
		if m.IsActive || nets[m.ID] == 0 {
			continue
		}
		m.IsActive = true
		if err := s.store.UpdateMember(ctx, m); err != nil {
			return fmt.Errorf("reactivate member %s: %w", m.ID, err)
		}
		metrics.AuditReactivations.Inc()
		slog.Info("audit reactivated member",
			"ledger_id", ledgerID,
			"member_id", m.ID,
			"net_cents", nets[m.ID],
		)
	}
	return nil
}

func (s *LedgerService) computeBalances(members []models.Member, transactions []models.Transaction, mode calculator.Mode) ([]models.Balance, error) {
	label := "strict"
	if mode == calculator.AuditMode {
		label = "audit"
	}
	metrics.BalanceComputations.WithLabelValues(label).Inc()
	timer := time.Now()
	balances, err := calculator.ComputeBalances(members, transactions, mode)
	metrics.ComputeDuration.Observe(time.Since(timer).Seconds())
	if err != nil {
		metrics.IntegrityFailures.Inc()
		return nil, err
	}
	return balances, nil
}

func (s *LedgerService) ledgerAndMembers(ctx context.Context, ledgerID string) (*models.Ledger, []models.Member, error) {
	ledger, err := s.store.GetLedger(ctx, ledgerID)
	if errors.Is(err, storage.ErrNotFound) {
		// The validator reports the missing ledger as rule 1.
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get ledger: %w", err)
	}
	members, err := s.store.ListMembers(ctx, ledgerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	return ledger, members, nil
}

func (s *LedgerService) loadLedgerState(ctx context.Context, ledgerID string) ([]models.Member, []models.Transaction, error) {
	if _, err := s.store.GetLedger(ctx, ledgerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, models.Validationf(models.RuleLedgerExists, "ledger %q does not exist", ledgerID)
		}
		return nil, nil, fmt.Errorf("get ledger: %w", err)
	}
	members, err := s.store.ListMembers(ctx, ledgerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, ledgerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	return members, transactions, nil
}
