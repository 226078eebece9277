// bankctl drives the banking client layer from the command line: session
// management, account CRUD, transfers, account closure, and dashboard views.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/bankfront/internal/apiclient"
	"github.com/punchamoorthee/bankfront/internal/config"
	"github.com/punchamoorthee/bankfront/internal/dashboard"
	"github.com/punchamoorthee/bankfront/internal/directory"
	"github.com/punchamoorthee/bankfront/internal/domain"
	"github.com/punchamoorthee/bankfront/internal/session"
	"github.com/punchamoorthee/bankfront/internal/transfer"
)

const usage = `usage: bankctl <command> [flags]

commands:
  register    create a new user (then log in)
  login       authenticate and persist the session
  logout      clear the persisted session
  whoami      show the current session state
  accounts    list or search accounts
  create      create an account
  rename      update an account's name and number
  get         show one account's current state
  transfer    move funds between two accounts
  close       delete an account, draining its balance first if needed
  history     show an account's transaction feed
  dashboard   show totals and recent activity
`

type app struct {
	session *session.Store
	dir     *directory.Directory
	orch    *transfer.Orchestrator
	view    *dashboard.View
	stdin   *bufio.Reader
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelWarn
	if cfg.Env == "development" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := apiclient.New(cfg.APIBaseURL, cfg.HTTPTimeout, logger)
	sess := session.New(client, cfg.TokenFile, logger)
	sess.Restore()

	dir := directory.New(client, logger)
	a := &app{
		session: sess,
		dir:     dir,
		orch:    transfer.New(client, dir, logger),
		view:    dashboard.New(client, dir, logger),
		stdin:   bufio.NewReader(os.Stdin),
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "register":
		a.register(ctx, args)
	case "login":
		a.login(ctx, args)
	case "logout":
		sess.Logout()
		fmt.Println("logged out")
	case "whoami":
		a.whoami()
	case "accounts":
		a.accounts(ctx, args)
	case "create":
		a.create(ctx, args)
	case "rename":
		a.rename(ctx, args)
	case "get":
		a.get(ctx, args)
	case "transfer":
		a.transfer(ctx, args)
	case "close":
		a.close(ctx, args)
	case "history":
		a.history(ctx, args)
	case "dashboard":
		a.dashboard(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

func (a *app) register(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (min 6 characters)")
	fs.Parse(args)

	outcome := a.session.Register(ctx, session.Profile{
		Username: *username, Email: *email, Password: *password,
	})
	if !outcome.Success {
		log.Fatalf("registration failed: %s", outcome.Error)
	}
	fmt.Println("registration successful; run 'bankctl login' to sign in")
}

func (a *app) login(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	outcome := a.session.Login(ctx, session.Credentials{
		Username: *username, Password: *password,
	})
	if !outcome.Success {
		log.Fatalf("login failed: %s", outcome.Error)
	}
	fmt.Printf("logged in as %s\n", a.session.Identity())
}

func (a *app) whoami() {
	if a.session.Authenticated() {
		fmt.Printf("%s (%s)\n", a.session.Identity(), a.session.Status())
		return
	}
	fmt.Println(a.session.Status())
}

func (a *app) accounts(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	name := fs.String("name", "", "filter by name")
	number := fs.String("number", "", "filter by number")
	fs.Parse(args)
	a.requireAuth()

	accounts, err := a.dir.Search(ctx, directory.Filter{Name: *name, Number: *number})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	printAccounts(accounts)
}

func (a *app) create(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "account name")
	number := fs.String("number", "", "account number")
	balance := fs.String("balance", "0", "opening balance")
	fs.Parse(args)
	a.requireAuth()

	opening, err := decimal.NewFromString(*balance)
	if err != nil {
		log.Fatalf("invalid balance %q", *balance)
	}

	account, err := a.dir.Create(ctx, domain.AccountDraft{
		Name: *name, Number: *number, Balance: opening,
	})
	if err != nil {
		log.Fatalf("create failed: %v", err)
	}
	fmt.Printf("created account %s (%s)\n", account.Name, account.ID)
}

func (a *app) rename(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	id := fs.String("account", "", "account id")
	name := fs.String("name", "", "new name")
	number := fs.String("number", "", "new number")
	fs.Parse(args)
	a.requireAuth()

	account, err := a.dir.Update(ctx, *id, domain.AccountDraft{Name: *name, Number: *number})
	if err != nil {
		log.Fatalf("update failed: %v", err)
	}
	fmt.Printf("updated account %s (%s)\n", account.Name, account.Number)
}

func (a *app) get(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	id := fs.String("account", "", "account id")
	fs.Parse(args)
	a.requireAuth()

	account, err := a.dir.Get(ctx, *id)
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}
	printAccounts([]domain.Account{account})
}

func (a *app) transfer(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	from := fs.String("from", "", "source account id")
	to := fs.String("to", "", "destination account id")
	amount := fs.String("amount", "", "amount to transfer")
	fs.Parse(args)
	a.requireAuth()

	value, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatalf("invalid amount %q", *amount)
	}
	if err := a.dir.Refresh(ctx); err != nil {
		log.Fatalf("cannot load accounts: %v", err)
	}

	tx, err := a.orch.Submit(ctx, domain.TransferRequest{
		FromAccountID: *from, ToAccountID: *to, Amount: value,
	})
	if err != nil {
		log.Fatalf("transfer failed: %v", err)
	}
	fmt.Printf("transfer completed: %s (%s)\n", tx.Amount.StringFixed(2), tx.Status)
}

func (a *app) close(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("close", flag.ExitOnError)
	id := fs.String("account", "", "account id to delete")
	fs.Parse(args)
	a.requireAuth()

	if err := a.dir.Refresh(ctx); err != nil {
		log.Fatalf("cannot load accounts: %v", err)
	}

	closure := transfer.NewClosure(a.orch)
	state, err := closure.RequestDelete(*id)
	if err != nil {
		log.Fatalf("delete failed: %v", err)
	}

	if state == transfer.StateAwaitingTransfer {
		account := closure.Account()
		fmt.Printf("account %q still holds %s; it must be transferred first\n",
			account.Name, account.Balance.StringFixed(2))
		a.listDestinations(account.ID)

		dest := a.prompt("destination account id: ")
		if dest == "" {
			closure.Cancel()
			fmt.Println("closure cancelled")
			return
		}

		tx, err := closure.SubmitDrain(ctx, dest)
		if err != nil {
			log.Fatalf("drain transfer failed: %v", err)
		}
		fmt.Printf("transferred %s to %s\n", tx.Amount.StringFixed(2), dest)

		if !a.confirm(fmt.Sprintf("still delete account %q after the transfer?", account.Name)) {
			closure.Decline()
			fmt.Println("account retained with zero balance")
			return
		}
		if err := closure.ConfirmDeleteAfterDrain(ctx); err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		fmt.Println("account deleted")
		return
	}

	if !a.confirm("are you sure you want to delete this account?") {
		closure.Decline()
		fmt.Println("closure cancelled")
		return
	}
	if err := closure.ConfirmDelete(ctx); err != nil {
		log.Fatalf("delete failed: %v", err)
	}
	fmt.Println("account deleted")
}

func (a *app) history(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	id := fs.String("account", "", "account id")
	fs.Parse(args)
	a.requireAuth()

	feed, err := a.view.History(ctx, *id)
	if err != nil {
		log.Fatalf("history failed: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDIRECTION\tCOUNTERPART\tAMOUNT\tSTATUS")
	for _, tx := range feed {
		cls := dashboard.Classify(tx, *id)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			tx.TransactionDate.Format("2006-01-02 15:04:05"),
			cls.Direction,
			cls.Counterpart.Name,
			dashboard.FormatSigned(tx, *id),
			tx.Status,
		)
	}
	w.Flush()
}

func (a *app) dashboard(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	recent := fs.Int("recent", 5, "number of recent transactions")
	fs.Parse(args)
	a.requireAuth()

	if err := a.dir.Refresh(ctx); err != nil {
		log.Fatalf("cannot load accounts: %v", err)
	}

	summary := a.view.Summarize(ctx, *recent)
	fmt.Printf("total balance: %s across %d account(s)\n\n",
		summary.TotalBalance.StringFixed(2), summary.AccountCount)

	if len(summary.Recent) == 0 {
		fmt.Println("no recent transactions")
		return
	}
	fmt.Println("recent activity:")
	for _, tx := range summary.Recent {
		viewpoint := a.viewpointFor(tx)
		cls := dashboard.Classify(tx, viewpoint)
		fmt.Printf("  %s  %-8s  %10s  %s\n",
			tx.TransactionDate.Format("2006-01-02"),
			cls.Direction,
			dashboard.FormatSigned(tx, viewpoint),
			cls.Counterpart.Name,
		)
	}
}

// viewpointFor picks the session's own account involved in tx so the
// direction reads from the user's perspective.
func (a *app) viewpointFor(tx domain.Transaction) string {
	for _, account := range a.dir.Accounts() {
		if tx.From != nil && tx.From.ID == account.ID {
			return account.ID
		}
		if tx.To != nil && tx.To.ID == account.ID {
			return account.ID
		}
	}
	return ""
}

func (a *app) listDestinations(excludeID string) {
	for _, account := range a.dir.Accounts() {
		if account.ID == excludeID {
			continue
		}
		fmt.Printf("  %s  %s (%s)\n", account.ID, account.Name, account.Number)
	}
}

func (a *app) requireAuth() {
	if !a.session.Authenticated() {
		log.Fatal("not logged in; run 'bankctl login' first")
	}
}

func (a *app) prompt(question string) string {
	fmt.Print(question)
	line, _ := a.stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *app) confirm(question string) bool {
	answer := strings.ToLower(a.prompt(question + " [y/N] "))
	return answer == "y" || answer == "yes"
}

func printAccounts(accounts []domain.Account) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tNAME\tBALANCE\tCREATED")
	for _, account := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			account.ID,
			account.Number,
			account.Name,
			account.Balance.StringFixed(2),
			account.CreatedAt.Format("2006-01-02"),
		)
	}
	w.Flush()
}
