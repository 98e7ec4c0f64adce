package service

import (
	"context"
	"errors"
	"math"

	"github.com/go-kit/kit/log"

	"github.com/sadesyllas/ex-banking/pkg/bank"
	"github.com/sadesyllas/ex-banking/pkg/money"
)

var (
	// ErrWrongArguments - empty identifier, or a negative or non-finite amount
	ErrWrongArguments = errors.New("Wrong arguments")
)

// Service describes the public banking API. All operations are
// synchronous; amounts cross the boundary as floats and are rounded to
// two decimals on the way in.
type Service interface {
	HealthCheck(context.Context) (bool, error)
	CreateUser(ctx context.Context, user string) error
	Deposit(ctx context.Context, user string, amount float64, currency string) (float64, error)
	Withdraw(ctx context.Context, user string, amount float64, currency string) (float64, error)
	GetBalance(ctx context.Context, user, currency string) (float64, error)
	Send(ctx context.Context, from, to string, amount float64, currency string) (float64, float64, error)
}

// New returns a banking Service with all of the expected middlewares wired in.
func New(b *bank.Bank, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBankingService(b)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

// NewBankingService returns a Service over the in-memory core.
func NewBankingService(b *bank.Bank) Service {
	return bankingService{bank: b}
}

type bankingService struct {
	bank *bank.Bank
}

// HealthCheck implements Service.
func (bs bankingService) HealthCheck(_ context.Context) (bool, error) {
	return true, nil
}

// CreateUser implements Service.
func (bs bankingService) CreateUser(_ context.Context, user string) error {
	if user == "" {
		return ErrWrongArguments
	}
	return bs.bank.CreateUser(user)
}

// Deposit implements Service.
func (bs bankingService) Deposit(_ context.Context, user string, amount float64, currency string) (float64, error) {
	a, err := checkArgs(user, currency, amount)
	if err != nil {
		return 0, err
	}
	balance, err := bs.bank.Deposit(user, currency, a)
	if err != nil {
		return 0, err
	}
	return balance.Float64(), nil
}

// Withdraw implements Service.
func (bs bankingService) Withdraw(_ context.Context, user string, amount float64, currency string) (float64, error) {
	a, err := checkArgs(user, currency, amount)
	if err != nil {
		return 0, err
	}
	balance, err := bs.bank.Withdraw(user, currency, a)
	if err != nil {
		return 0, err
	}
	return balance.Float64(), nil
}

// GetBalance implements Service.
func (bs bankingService) GetBalance(_ context.Context, user, currency string) (float64, error) {
	if user == "" || currency == "" {
		return 0, ErrWrongArguments
	}
	balance, err := bs.bank.GetBalance(user, currency)
	if err != nil {
		return 0, err
	}
	return balance.Float64(), nil
}

// Send implements Service.
func (bs bankingService) Send(_ context.Context, from, to string, amount float64, currency string) (float64, float64, error) {
	if to == "" {
		return 0, 0, ErrWrongArguments
	}
	a, err := checkArgs(from, currency, amount)
	if err != nil {
		return 0, 0, err
	}
	fromBalance, toBalance, err := bs.bank.Send(from, to, currency, a)
	if err != nil {
		return 0, 0, err
	}
	return fromBalance.Float64(), toBalance.Float64(), nil
}

// checkArgs validates the common argument triple and rounds the amount
// to two decimals.
func checkArgs(user, currency string, amount float64) (money.Amount, error) {
	if user == "" || currency == "" {
		return 0, ErrWrongArguments
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrWrongArguments
	}
	return money.FromFloat(amount), nil
}
