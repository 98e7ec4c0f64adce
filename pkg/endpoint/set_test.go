package endpoint

import (
	"context"
	"testing"

	"github.com/go-kit/kit/log"

	"github.com/sadesyllas/ex-banking/pkg/bank"
	"github.com/sadesyllas/ex-banking/pkg/service"
)

func newTestSet() Set {
	logger := log.NewNopLogger()
	core := bank.New(bank.Config{}, logger)
	return New(service.NewBankingService(core), logger)
}

func TestSetImplementsService(t *testing.T) {
	var _ service.Service = newTestSet()
}

func TestSetRoundTrip(t *testing.T) {
	s := newTestSet()
	ctx := context.Background()

	if err := s.CreateUser(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateUser(ctx, "bob"); err != nil {
		t.Fatal(err)
	}

	balance, err := s.Deposit(ctx, "alice", 10, "EUR")
	if err != nil || balance != 10.0 {
		t.Errorf("deposit should yield 10.0, got %v, %v", balance, err)
	}

	fromBalance, toBalance, err := s.Send(ctx, "alice", "bob", 4, "EUR")
	if err != nil {
		t.Fatal(err)
	}
	if fromBalance != 6.0 || toBalance != 4.0 {
		t.Errorf("balances should be 6.0 and 4.0, got %v and %v", fromBalance, toBalance)
	}

	// business errors travel inside the response, not as endpoint errors
	resp, err := s.WithdrawEndpoint(ctx, WithdrawRequest{User: "alice", Amount: 100, Currency: "EUR"})
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.(BalanceResponse).Failed(); got != bank.ErrNotEnoughMoney {
		t.Errorf("error should be: %v, got %v", bank.ErrNotEnoughMoney, got)
	}
}
