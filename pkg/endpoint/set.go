package endpoint

import (
	"context"

	ep "github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"

	"github.com/sadesyllas/ex-banking/pkg/service"
)

// Set collects all of the endpoints that compose the banking service.
// It's meant to be used as a helper struct, to collect all of the
// endpoints into a single parameter.
type Set struct {
	HealthCheckEndpoint ep.Endpoint
	CreateUserEndpoint  ep.Endpoint
	DepositEndpoint     ep.Endpoint
	WithdrawEndpoint    ep.Endpoint
	GetBalanceEndpoint  ep.Endpoint
	SendEndpoint        ep.Endpoint
}

// New returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters.
func New(svc service.Service, logger log.Logger) Set {
	var healthCheckEndpoint ep.Endpoint
	{
		healthCheckEndpoint = MakeHealthCheckEndpoint(svc)
		healthCheckEndpoint = LoggingMiddleware(log.With(logger, "method", "HealthCheck"))(healthCheckEndpoint)
	}
	var createUserEndpoint ep.Endpoint
	{
		createUserEndpoint = MakeCreateUserEndpoint(svc)
		createUserEndpoint = LoggingMiddleware(log.With(logger, "method", "CreateUser"))(createUserEndpoint)
	}
	var depositEndpoint ep.Endpoint
	{
		depositEndpoint = MakeDepositEndpoint(svc)
		depositEndpoint = LoggingMiddleware(log.With(logger, "method", "Deposit"))(depositEndpoint)
	}
	var withdrawEndpoint ep.Endpoint
	{
		withdrawEndpoint = MakeWithdrawEndpoint(svc)
		withdrawEndpoint = LoggingMiddleware(log.With(logger, "method", "Withdraw"))(withdrawEndpoint)
	}
	var getBalanceEndpoint ep.Endpoint
	{
		getBalanceEndpoint = MakeGetBalanceEndpoint(svc)
		getBalanceEndpoint = LoggingMiddleware(log.With(logger, "method", "GetBalance"))(getBalanceEndpoint)
	}
	var sendEndpoint ep.Endpoint
	{
		sendEndpoint = MakeSendEndpoint(svc)
		sendEndpoint = LoggingMiddleware(log.With(logger, "method", "Send"))(sendEndpoint)
	}
	return Set{
		HealthCheckEndpoint: healthCheckEndpoint,
		CreateUserEndpoint:  createUserEndpoint,
		DepositEndpoint:     depositEndpoint,
		WithdrawEndpoint:    withdrawEndpoint,
		GetBalanceEndpoint:  getBalanceEndpoint,
		SendEndpoint:        sendEndpoint,
	}
}

// HealthCheck implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) HealthCheck(ctx context.Context) (bool, error) {
	resp, err := s.HealthCheckEndpoint(ctx, HealthCheckRequest{})
	if err != nil {
		return false, err
	}
	response := resp.(HealthCheckResponse)
	return response.Success, response.Error
}

// CreateUser implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) CreateUser(ctx context.Context, user string) error {
	resp, err := s.CreateUserEndpoint(ctx, CreateUserRequest{User: user})
	if err != nil {
		return err
	}
	response := resp.(CreateUserResponse)
	return response.Error
}

// Deposit implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) Deposit(ctx context.Context, user string, amount float64, currency string) (float64, error) {
	resp, err := s.DepositEndpoint(ctx, DepositRequest{User: user, Amount: amount, Currency: currency})
	if err != nil {
		return 0, err
	}
	response := resp.(BalanceResponse)
	return response.Balance, response.Error
}

// Withdraw implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) Withdraw(ctx context.Context, user string, amount float64, currency string) (float64, error) {
	resp, err := s.WithdrawEndpoint(ctx, WithdrawRequest{User: user, Amount: amount, Currency: currency})
	if err != nil {
		return 0, err
	}
	response := resp.(BalanceResponse)
	return response.Balance, response.Error
}

// GetBalance implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) GetBalance(ctx context.Context, user, currency string) (float64, error) {
	resp, err := s.GetBalanceEndpoint(ctx, GetBalanceRequest{User: user, Currency: currency})
	if err != nil {
		return 0, err
	}
	response := resp.(BalanceResponse)
	return response.Balance, response.Error
}

// Send implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) Send(ctx context.Context, from, to string, amount float64, currency string) (float64, float64, error) {
	resp, err := s.SendEndpoint(ctx, SendRequest{From: from, To: to, Amount: amount, Currency: currency})
	if err != nil {
		return 0, 0, err
	}
	response := resp.(SendResponse)
	return response.FromBalance, response.ToBalance, response.Error
}

// MakeHealthCheckEndpoint constructs a HealthCheck endpoint wrapping the service.
func MakeHealthCheckEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, _ interface{}) (response interface{}, err error) {
		v, err := s.HealthCheck(ctx)
		return HealthCheckResponse{Success: v, Error: err}, nil
	}
}

// MakeCreateUserEndpoint constructs a CreateUser endpoint wrapping the service.
func MakeCreateUserEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(CreateUserRequest)
		err = s.CreateUser(ctx, req.User)
		return CreateUserResponse{Success: err == nil, Error: err}, nil
	}
}

// MakeDepositEndpoint constructs a Deposit endpoint wrapping the service.
func MakeDepositEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(DepositRequest)
		balance, err := s.Deposit(ctx, req.User, req.Amount, req.Currency)
		return BalanceResponse{Success: err == nil, Balance: balance, Error: err}, nil
	}
}

// MakeWithdrawEndpoint constructs a Withdraw endpoint wrapping the service.
func MakeWithdrawEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(WithdrawRequest)
		balance, err := s.Withdraw(ctx, req.User, req.Amount, req.Currency)
		return BalanceResponse{Success: err == nil, Balance: balance, Error: err}, nil
	}
}

// MakeGetBalanceEndpoint constructs a GetBalance endpoint wrapping the service.
func MakeGetBalanceEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(GetBalanceRequest)
		balance, err := s.GetBalance(ctx, req.User, req.Currency)
		return BalanceResponse{Success: err == nil, Balance: balance, Error: err}, nil
	}
}

// MakeSendEndpoint constructs a Send endpoint wrapping the service.
func MakeSendEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(SendRequest)
		fromBalance, toBalance, err := s.Send(ctx, req.From, req.To, req.Amount, req.Currency)
		return SendResponse{Success: err == nil, FromBalance: fromBalance, ToBalance: toBalance, Error: err}, nil
	}
}

// compile time assertions for our response types implementing endpoint.Failer.
var (
	_ ep.Failer = HealthCheckResponse{}
	_ ep.Failer = CreateUserResponse{}
	_ ep.Failer = BalanceResponse{}
	_ ep.Failer = SendResponse{}
)

// HealthCheckRequest collects the request parameters for the HealthCheck method.
type HealthCheckRequest struct{}

// CreateUserRequest collects the request parameters for the CreateUser method.
type CreateUserRequest struct {
	User string `json:"user"`
}

// DepositRequest collects the request parameters for the Deposit method.
type DepositRequest struct {
	User     string  `json:"user"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// WithdrawRequest collects the request parameters for the Withdraw method.
type WithdrawRequest struct {
	User     string  `json:"user"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// GetBalanceRequest collects the request parameters for the GetBalance method.
type GetBalanceRequest struct {
	User     string `json:"user"`
	Currency string `json:"currency"`
}

// SendRequest collects the request parameters for the Send method.
type SendRequest struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// HealthCheckResponse collects the response values for the HealthCheck method.
type HealthCheckResponse struct {
	Success bool  `json:"success"`
	Error   error `json:"error,omitempty"`
}

// CreateUserResponse collects the response values for the CreateUser method.
type CreateUserResponse struct {
	Success bool  `json:"success"`
	Error   error `json:"error,omitempty"`
}

// BalanceResponse collects the response values for the Deposit, Withdraw and
// GetBalance methods.
type BalanceResponse struct {
	Success bool    `json:"success"`
	Balance float64 `json:"balance"`
	Error   error   `json:"error,omitempty"`
}

// SendResponse collects the response values for the Send method.
type SendResponse struct {
	Success     bool    `json:"success"`
	FromBalance float64 `json:"from_balance"`
	ToBalance   float64 `json:"to_balance"`
	Error       error   `json:"error,omitempty"`
}

// Failed implements endpoint.Failer.
func (r HealthCheckResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r CreateUserResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r BalanceResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r SendResponse) Failed() error {
	return r.Error
}
