// Package main is the entry point for the FreshDeal admin CLI.
// It talks to a running server over the marketplace protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prn-tf/freshdeal/internal/client"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/protocol"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var errUsage = errors.New("usage")

func main() {
	fs := flag.NewFlagSet("freshdeal-admin", flag.ExitOnError)
	addr := fs.String("addr", envOr("FRESHDEAL_ADDR", "localhost:5000"), "server address")
	user := fs.String("user", envOr("FRESHDEAL_ADMIN_USER", "admin"), "username sent with admin requests")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	fs.Usage = printUsage
	_ = fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cli := &adminCLI{client: client.New(*addr), user: *user, out: os.Stdout}
	if err := cli.run(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

type adminCLI struct {
	client *client.Client
	user   string
	out    io.Writer
}

func (c *adminCLI) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "version":
		fmt.Fprintf(c.out, "FreshDeal Admin CLI\n")
		fmt.Fprintf(c.out, "Version: %s\n", Version)
		fmt.Fprintf(c.out, "Build Time: %s\n", BuildTime)
		fmt.Fprintf(c.out, "Git Commit: %s\n", GitCommit)
		return nil

	case "users":
		resp, err := c.call(ctx, protocol.NewRequest(protocol.ActionFetchAllUsers, c.user))
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCOUNT ID\tUSERNAME\tROLE\tSTATUS")
		if resp.Data != nil && resp.Data.Users != nil {
			for _, u := range resp.Data.Users.Users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.AccountID, u.Username, u.Role, u.Status)
			}
		}
		return tw.Flush()

	case "approve", "deny":
		if len(args) != 1 {
			return errUsage
		}
		status := string(domain.AccountApproved)
		if command == "deny" {
			status = string(domain.AccountDenied)
		}
		return c.print(ctx, protocol.NewRequest(protocol.ActionUpdateStatus, c.user).
			With(protocol.FieldTargetUsername, args[0]).
			With(protocol.FieldNewStatus, status))

	case "delete-user":
		if len(args) != 1 {
			return errUsage
		}
		return c.print(ctx, protocol.NewRequest(protocol.ActionDeleteUser, c.user).
			With(protocol.FieldTargetUsername, args[0]))

	case "logs":
		resp, err := c.call(ctx, protocol.NewRequest(protocol.ActionFetchLogs, c.user))
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIMESTAMP\tUSER\tACTION\tDATA\tRESULT")
		if resp.Data != nil && resp.Data.Logs != nil {
			for _, e := range resp.Data.Logs.Entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.User, e.Action, e.DataAffected, e.Result)
			}
		}
		return tw.Flush()

	case "transactions":
		resp, err := c.call(ctx, protocol.NewRequest(protocol.ActionFetchAllTransactions, c.user))
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TRANSACTION ID\tPRODUCT\tBUYER\tSELLER\tQTY\tTIMESTAMP")
		if resp.Data != nil && resp.Data.Transactions != nil {
			for _, t := range resp.Data.Transactions.Transactions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					t.TransactionID, t.ProductID, t.BuyerUsername, t.SellerUsername, t.Quantity, t.Timestamp)
			}
		}
		return tw.Flush()

	case "products":
		resp, err := c.call(ctx, protocol.NewRequest(protocol.ActionFetchAllProducts, c.user))
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PRODUCT ID\tNAME\tSELLER\tPRICE\tQTY\tEXPIRES")
		if resp.Data != nil && resp.Data.Products != nil {
			for _, p := range resp.Data.Products.Products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%s\n",
					p.ProductID, p.Name, p.SellerUsername, p.DiscountedPrice, p.AvailableQuantity, p.ExpiryDate)
			}
		}
		return tw.Flush()

	case "send":
		if len(args) < 1 {
			return errUsage
		}
		req := protocol.NewRequest(args[0], c.user)
		for _, kv := range args[1:] {
			name, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid field %q, expected name=value", kv)
			}
			req.With(name, value)
		}
		return c.print(ctx, req)

	case "help", "-h", "--help":
		printUsage()
		return nil

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		return errUsage
	}
}

// call sends req and turns any non-SUCCESS status into an error.
func (c *adminCLI) call(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Status != protocol.StatusSuccess {
		return nil, fmt.Errorf("%s: %s", resp.Status, resp.Message)
	}
	return resp, nil
}

func (c *adminCLI) print(ctx context.Context, req *protocol.Request) error {
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %s\n", resp.Status, resp.Message)
	if resp.Status != protocol.StatusSuccess {
		return fmt.Errorf("request was not successful")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println(`FreshDeal Admin CLI

Usage:
  freshdeal-admin [flags] <command> [arguments]

Flags:
  -addr       Server address (default localhost:5000, env FRESHDEAL_ADDR)
  -user       Username sent with admin requests (default admin, env FRESHDEAL_ADMIN_USER)
  -timeout    Request timeout (default 10s)

Commands:
  users                     List all accounts
  approve <username>        Approve a pending account
  deny <username>           Deny an account
  delete-user <username>    Delete an account
  logs                      Show the activity log
  transactions              Show the transaction ledger
  products                  List products available for purchase
  send <ACTION> [k=v ...]   Send an arbitrary request
  version                   Print version information
  help                      Show this help message

Examples:
  freshdeal-admin users
  freshdeal-admin approve farmer_joe
  freshdeal-admin send BUY_PRODUCT productId=PRD-1A2B3C4D quantity=2`)
}
