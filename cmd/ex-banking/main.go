package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/oklog/oklog/pkg/group"

	"github.com/sadesyllas/ex-banking/pkg/bank"
	"github.com/sadesyllas/ex-banking/pkg/endpoint"
	"github.com/sadesyllas/ex-banking/pkg/service"
)

func main() {
	fs := flag.NewFlagSet("ex-banking", flag.ExitOnError)
	var (
		staleTimeout  = fs.Int("stale-handler-timeout", envInt("STALE_HANDLER_TIMEOUT", 3600), "seconds a user worker may sit idle before it stops")
		staleInterval = fs.Int("stale-check-interval", envInt("STALE_CHECK_INTERVAL", 30), "seconds between reaper sweeps of the worker table")
	)
	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	_ = fs.Parse(os.Args[1:])

	// Logging domain.
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = level.NewFilter(logger, level.AllowDebug())
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	_ = level.Info(logger).Log("msg", "ex-banking started")
	defer func() {
		_ = level.Info(logger).Log("msg", "ex-banking ended")
	}()

	// Build the layers of the service "onion" from the inside out. First, the
	// in-memory banking core; then, the business logic service that validates
	// and rounds incoming arguments; and finally the set of endpoints that
	// wrap the service.
	var (
		core = bank.New(bank.Config{
			StaleHandlerTimeout: time.Duration(*staleTimeout) * time.Second,
			StaleCheckInterval:  time.Duration(*staleInterval) * time.Second,
		}, logger)
		svc       = service.New(core, logger)
		endpoints = endpoint.New(svc, logger)
	)

	var g group.Group
	{
		// The reaper cleans up bookkeeping of workers that stopped.
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			_ = level.Info(logger).Log("component", "reaper", "interval", *staleInterval)
			return core.Run(ctx)
		}, func(error) {
			cancel()
		})
	}
	{
		// An interactive console over the endpoint set, standing in for a
		// transport: one command per line on stdin.
		quit := make(chan struct{})
		g.Add(func() error {
			return console(endpoints, os.Stdin, os.Stdout, quit)
		}, func(error) {
			close(quit)
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	// Run!
	_ = level.Error(logger).Log("exit", g.Run())
}

// console reads commands from r and runs them against the endpoint set
// until EOF, a "quit" command, or a close of quit.
func console(svc endpoint.Set, r io.Reader, w io.Writer, quit chan struct{}) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-quit:
				return
			}
		}
	}()

	fmt.Fprintln(w, "commands: create <user> | deposit <user> <amount> <currency> | withdraw <user> <amount> <currency> | balance <user> <currency> | send <from> <to> <amount> <currency> | quit")
	for {
		fmt.Fprint(w, "> ")
		select {
		case <-quit:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := runCommand(svc, w, line); done {
				return nil
			}
		}
	}
}

func runCommand(svc endpoint.Set, w io.Writer, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	ctx := context.Background()
	switch cmd, args := args[0], args[1:]; cmd {
	case "quit", "exit":
		return true
	case "create":
		if len(args) != 1 {
			fmt.Fprintln(w, "usage: create <user>")
			return false
		}
		report(w, "ok", svc.CreateUser(ctx, args[0]))
	case "deposit", "withdraw":
		if len(args) != 3 {
			fmt.Fprintf(w, "usage: %s <user> <amount> <currency>\n", cmd)
			return false
		}
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			return false
		}
		var balance float64
		if cmd == "deposit" {
			balance, err = svc.Deposit(ctx, args[0], amount, args[2])
		} else {
			balance, err = svc.Withdraw(ctx, args[0], amount, args[2])
		}
		report(w, fmt.Sprintf("balance %.2f", balance), err)
	case "balance":
		if len(args) != 2 {
			fmt.Fprintln(w, "usage: balance <user> <currency>")
			return false
		}
		balance, err := svc.GetBalance(ctx, args[0], args[1])
		report(w, fmt.Sprintf("balance %.2f", balance), err)
	case "send":
		if len(args) != 4 {
			fmt.Fprintln(w, "usage: send <from> <to> <amount> <currency>")
			return false
		}
		amount, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			return false
		}
		fromBalance, toBalance, err := svc.Send(ctx, args[0], args[1], amount, args[3])
		report(w, fmt.Sprintf("from %.2f, to %.2f", fromBalance, toBalance), err)
	default:
		fmt.Fprintln(w, "unknown command:", cmd)
	}
	return false
}

func report(w io.Writer, ok string, err error) {
	if err != nil {
		fmt.Fprintln(w, "error:", err)
		return
	}
	fmt.Fprintln(w, ok)
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func envInt(env string, fallback int) int {
	e := os.Getenv(env)
	if e == "" {
		return fallback
	}
	v, err := strconv.Atoi(e)
	if err != nil {
		return fallback
	}
	return v
}
