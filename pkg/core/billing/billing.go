// Package billing meters flow invocations against a user's plan. Free-plan
// users spend one credit per invocation and get it back when the invocation
// fails; paid plans are unlimited.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

type Plan string

const (
	PlanFree  Plan = "gratuito"
	PlanPro   Plan = "pro"
	PlanUltra Plan = "ultra"
)

// SignupCredits is the balance a new free account starts with.
const SignupCredits = 3

// ActionDocument is the flow reserved for paid plans.
const ActionDocument = "document"

var (
	ErrPlanRequired    = errors.New("billing: plan does not include this action")
	ErrNoCredits       = errors.New("billing: no credits left")
	ErrUnknownPlan     = errors.New("billing: unknown plan")
	ErrAccountNotFound = errors.New("billing: account not found")
)

func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case PlanFree, PlanPro, PlanUltra:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
}

// Metered reports whether invocations on p spend credits.
func (p Plan) Metered() bool { return p == PlanFree }

// Allows reports whether p may run action at all.
func (p Plan) Allows(action string) bool {
	return action != ActionDocument || p != PlanFree
}

type Account struct {
	UserID  string `json:"userId"`
	Plan    Plan   `json:"plan"`
	Credits int    `json:"credits"`
}

// Store persists accounts. Debit must be atomic: it fails with ErrNoCredits
// instead of taking the balance below zero.
type Store interface {
	Get(ctx context.Context, userID string) (*Account, error)
	// Create inserts acct unless the user already has an account, and returns
	// whichever account is stored.
	Create(ctx context.Context, acct Account) (*Account, error)
	Debit(ctx context.Context, userID string) error
	Credit(ctx context.Context, userID string, n int) error
	SetPlan(ctx context.Context, userID string, plan Plan) error
}

// Gate decides whether a user may run a flow and keeps the credit ledger.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Account returns the user's account, opening a free one on first use.
func (g *Gate) Account(ctx context.Context, userID string) (*Account, error) {
	if userID == "" {
		return nil, fmt.Errorf("billing: empty user id")
	}
	acct, err := g.store.Get(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		log.Printf("[billing] opening free account for %s with %d credits", userID, SignupCredits)
		return g.store.Create(ctx, Account{UserID: userID, Plan: PlanFree, Credits: SignupCredits})
	}
	return acct, err
}

// Authorize checks the user's plan and balance for action and, on metered
// plans, debits one credit. The caller must Settle the reservation with the
// outcome of the invocation.
func (g *Gate) Authorize(ctx context.Context, userID, action string) (*Reservation, error) {
	acct, err := g.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acct.Plan.Allows(action) {
		return nil, fmt.Errorf("%w: %s on plan %s", ErrPlanRequired, action, acct.Plan)
	}
	r := &Reservation{gate: g, userID: userID, action: action}
	if !acct.Plan.Metered() {
		return r, nil
	}
	if acct.Credits <= 0 {
		return nil, ErrNoCredits
	}
	if err := g.store.Debit(ctx, userID); err != nil {
		return nil, err
	}
	r.debited = true
	return r, nil
}

// Grant adds n credits to the user's balance.
func (g *Gate) Grant(ctx context.Context, userID string, n int) error {
	if n <= 0 {
		return fmt.Errorf("billing: grant must be positive, got %d", n)
	}
	if _, err := g.Account(ctx, userID); err != nil {
		return err
	}
	return g.store.Credit(ctx, userID, n)
}

func (g *Gate) SetPlan(ctx context.Context, userID string, plan Plan) error {
	if _, err := ParsePlan(string(plan)); err != nil {
		return err
	}
	if _, err := g.Account(ctx, userID); err != nil {
		return err
	}
	return g.store.SetPlan(ctx, userID, plan)
}

// Reservation is the credit held for one invocation.
type Reservation struct {
	gate    *Gate
	userID  string
	action  string
	debited bool
	once    sync.Once
}

// Debited reports whether a credit was taken for this reservation.
func (r *Reservation) Debited() bool { return r.debited }

// Settle closes the reservation. A failed invocation (err != nil) gets its
// credit back; a successful one keeps the debit. Only the first call has any
// effect.
func (r *Reservation) Settle(ctx context.Context, err error) error {
	var refundErr error
	r.once.Do(func() {
		if err == nil || !r.debited {
			return
		}
		if refundErr = r.gate.store.Credit(ctx, r.userID, 1); refundErr != nil {
			log.Printf("[billing] refund for %s (%s) failed: %v", r.userID, r.action, refundErr)
			return
		}
		log.Printf("[billing] refunded 1 credit to %s after failed %s", r.userID, r.action)
	})
	return refundErr
}
