package service

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Middleware describes a service (as opposed to endpoint) middleware.
type Middleware func(Service) Service

// LoggingMiddleware takes a logger as a dependency
// and returns a ServiceMiddleware.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) HealthCheck(ctx context.Context) (success bool, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "HealthCheck", "success", success, "err", err)
	}()
	return mw.next.HealthCheck(ctx)
}

func (mw loggingMiddleware) CreateUser(ctx context.Context, user string) (err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "CreateUser", "user", user, "err", err)
	}()
	return mw.next.CreateUser(ctx, user)
}

func (mw loggingMiddleware) Deposit(ctx context.Context, user string, amount float64, currency string) (balance float64, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "Deposit", "user", user, "amount", amount, "currency", currency, "balance", balance, "err", err)
	}()
	return mw.next.Deposit(ctx, user, amount, currency)
}

func (mw loggingMiddleware) Withdraw(ctx context.Context, user string, amount float64, currency string) (balance float64, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "Withdraw", "user", user, "amount", amount, "currency", currency, "balance", balance, "err", err)
	}()
	return mw.next.Withdraw(ctx, user, amount, currency)
}

func (mw loggingMiddleware) GetBalance(ctx context.Context, user, currency string) (balance float64, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "GetBalance", "user", user, "currency", currency, "balance", balance, "err", err)
	}()
	return mw.next.GetBalance(ctx, user, currency)
}

func (mw loggingMiddleware) Send(ctx context.Context, from, to string, amount float64, currency string) (fromBalance, toBalance float64, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "Send", "from", from, "to", to, "amount", amount, "currency", currency, "err", err)
	}()
	return mw.next.Send(ctx, from, to, amount, currency)
}
