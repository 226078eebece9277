package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/bankfront/internal/domain"
)

func TestClosure_ZeroBalanceDeletesAfterConfirmation(t *testing.T) {
	client := &fakeClient{}
	dir := newFakeDir(testAccount("a", "0"))
	closure := NewClosure(New(client, dir, nil))

	state, err := closure.RequestDelete("a")
	if err != nil {
		t.Fatal(err)
	}
	if state != StateDeleteRequested {
		t.Fatalf("expected delete-requested, got %s", state)
	}

	if err := closure.ConfirmDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(dir.deletes) != 1 || dir.deletes[0] != "a" {
		t.Fatalf("expected a deleted, got %v", dir.deletes)
	}
	if closure.State() != StateIdle {
		t.Fatalf("expected idle after delete, got %s", closure.State())
	}
	if client.postCount() != 0 {
		t.Fatal("zero-balance closure must not submit a transfer")
	}
}

func TestClosure_ZeroBalanceDeclineRetainsAccount(t *testing.T) {
	client := &fakeClient{}
	dir := newFakeDir(testAccount("a", "0"))
	closure := NewClosure(New(client, dir, nil))

	if _, err := closure.RequestDelete("a"); err != nil {
		t.Fatal(err)
	}
	if err := closure.Decline(); err != nil {
		t.Fatal(err)
	}
	if len(dir.deletes) != 0 {
		t.Fatal("declined closure must not delete")
	}
	if closure.State() != StateIdle {
		t.Fatalf("expected idle, got %s", closure.State())
	}
}

func TestClosure_BalanceRequiresDrainBeforeDelete(t *testing.T) {
	client := &fakeClient{tx: domain.Transaction{Status: domain.StatusSuccess}}
	dir := newFakeDir(testAccount("a", "120.00"), testAccount("b", "10"))
	dir.onRefresh = func(d *fakeDir) { d.setBalance("a", decimal.Zero) }
	closure := NewClosure(New(client, dir, nil))

	state, err := closure.RequestDelete("a")
	if err != nil {
		t.Fatal(err)
	}
	if state != StateAwaitingTransfer {
		t.Fatalf("expected awaiting-transfer, got %s", state)
	}
	if len(dir.deletes) != 0 {
		t.Fatal("no delete may be issued before the drain succeeds")
	}

	tx, err := closure.SubmitDrain(context.Background(), "b")
	if err != nil {
		t.Fatal(err)
	}
	if tx.Status != domain.StatusSuccess {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if !client.lastReq.Amount.Equal(dec("120.00")) {
		t.Fatalf("drain must move the full balance, moved %s", client.lastReq.Amount)
	}
	if closure.State() != StateAskDeleteAgain {
		t.Fatalf("expected ask-delete-again, got %s", closure.State())
	}
	if len(dir.deletes) != 0 {
		t.Fatal("delete must wait for explicit re-confirmation")
	}

	if err := closure.ConfirmDeleteAfterDrain(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(dir.deletes) != 1 || dir.deletes[0] != "a" {
		t.Fatalf("expected a deleted after re-confirmation, got %v", dir.deletes)
	}
}

func TestClosure_DrainFailureAbandonsWorkflow(t *testing.T) {
	client := &fakeClient{err: errors.New("remote rejected")}
	dir := newFakeDir(testAccount("a", "120.00"), testAccount("b", "10"))
	closure := NewClosure(New(client, dir, nil))

	if _, err := closure.RequestDelete("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := closure.SubmitDrain(context.Background(), "b"); err == nil {
		t.Fatal("expected drain failure surfaced")
	}
	if closure.State() != StateIdle {
		t.Fatalf("failed drain must abandon the closure, got %s", closure.State())
	}
	if len(dir.deletes) != 0 {
		t.Fatal("no delete after failed drain")
	}
}

func TestClosure_DeclineAfterDrainKeepsAccount(t *testing.T) {
	client := &fakeClient{tx: domain.Transaction{Status: domain.StatusSuccess}}
	dir := newFakeDir(testAccount("a", "50"), testAccount("b", "0"))
	dir.onRefresh = func(d *fakeDir) { d.setBalance("a", decimal.Zero) }
	closure := NewClosure(New(client, dir, nil))

	closure.RequestDelete("a")
	if _, err := closure.SubmitDrain(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	if err := closure.Decline(); err != nil {
		t.Fatal(err)
	}
	if len(dir.deletes) != 0 {
		t.Fatal("declined post-drain delete must retain the account")
	}
	if closure.State() != StateIdle {
		t.Fatalf("expected idle, got %s", closure.State())
	}
}

func TestClosure_NonZeroBalanceAfterDrainAborts(t *testing.T) {
	client := &fakeClient{tx: domain.Transaction{Status: domain.StatusSuccess}}
	// Refresh leaves a balance behind, as a racing deposit would.
	dir := newFakeDir(testAccount("a", "50"), testAccount("b", "0"))
	closure := NewClosure(New(client, dir, nil))

	closure.RequestDelete("a")
	if _, err := closure.SubmitDrain(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	err := closure.ConfirmDeleteAfterDrain(context.Background())
	if !errors.Is(err, ErrAccountHasBalance) {
		t.Fatalf("expected ErrAccountHasBalance, got %v", err)
	}
	if len(dir.deletes) != 0 {
		t.Fatal("account with balance must never be deleted")
	}
}

func TestClosure_InvalidTransitions(t *testing.T) {
	client := &fakeClient{}
	dir := newFakeDir(testAccount("a", "0"), testAccount("b", "75"))
	closure := NewClosure(New(client, dir, nil))

	if err := closure.ConfirmDelete(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("confirm from idle: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := closure.SubmitDrain(context.Background(), "b"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("drain from idle: expected ErrInvalidTransition, got %v", err)
	}
	if err := closure.Decline(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("decline from idle: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := closure.RequestDelete("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := closure.RequestDelete("b"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second request: expected ErrInvalidTransition, got %v", err)
	}

	closure.Cancel()
	if closure.State() != StateIdle {
		t.Fatalf("expected idle after cancel, got %s", closure.State())
	}
	if _, err := closure.RequestDelete("b"); err != nil {
		t.Fatalf("request after cancel: %v", err)
	}
}

func TestClosure_RequestUnknownAccount(t *testing.T) {
	closure := NewClosure(New(&fakeClient{}, newFakeDir(), nil))
	if _, err := closure.RequestDelete("ghost"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
	if closure.State() != StateIdle {
		t.Fatalf("expected idle, got %s", closure.State())
	}
}
