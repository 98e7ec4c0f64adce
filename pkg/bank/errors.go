package bank

import "errors"

var (
	// ErrUserAlreadyExists error fired when creating a user that was already created
	ErrUserAlreadyExists = errors.New("User already exists")

	// ErrUserDoesNotExist error fired when operating on a user that was never created
	ErrUserDoesNotExist = errors.New("User does not exist")

	// ErrNotEnoughMoney error fired when a withdrawal exceeds the balance
	ErrNotEnoughMoney = errors.New("Not enough money")

	// ErrTooManyRequestsToUser error fired when a user already has MaxBacklog requests in flight
	ErrTooManyRequestsToUser = errors.New("Too many requests to user")

	// ErrSenderDoesNotExist error fired when the sending side of a transfer was never created
	ErrSenderDoesNotExist = errors.New("Sender does not exist")

	// ErrReceiverDoesNotExist error fired when the receiving side of a transfer was never created
	ErrReceiverDoesNotExist = errors.New("Receiver does not exist")

	// ErrTooManyRequestsToSender error fired when the sender's backlog is full
	ErrTooManyRequestsToSender = errors.New("Too many requests to sender")

	// ErrTooManyRequestsToReceiver error fired when the receiver's backlog is full
	ErrTooManyRequestsToReceiver = errors.New("Too many requests to receiver")

	// errWorkerRetired is the reply a retiring worker gives to requests
	// that slipped into its inbox after it stopped serving. The
	// dispatcher retries such requests against a fresh worker; callers
	// never see this error.
	errWorkerRetired = errors.New("worker retired")
)
