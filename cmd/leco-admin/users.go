package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
)

// cliActor is recorded as the moderator for changes made from the command line.
const cliActor = "leco-admin"

type listUsersOptions struct {
	Pending bool
	Query   string
	JSON    bool
	Limit   int
}

func parseListUsersFlags(args []string) (listUsersOptions, error) {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts listUsersOptions
	fs.BoolVar(&opts.Pending, "pending", false, "only users awaiting approval")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the user list")
	fs.BoolVar(&opts.JSON, "json", false, "print JSON instead of a table")
	fs.IntVar(&opts.Limit, "limit", 500, "maximum users to fetch")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Query != "" {
		if _, err := jmespath.Compile(opts.Query); err != nil {
			return opts, fmt.Errorf("invalid --query: %w", err)
		}
	}
	if opts.Limit <= 0 {
		return opts, errors.New("--limit must be positive")
	}
	return opts, nil
}

func runListUsers(cmdCtx *commandContext, args []string) error {
	opts, err := parseListUsersFlags(args)
	if err != nil {
		return err
	}
	stores, err := cmdCtx.open(cmdCtx.Ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer stores.Close()

	listOpts := core.UserMetadataListOptions{Limit: opts.Limit}
	if opts.Pending {
		approved := false
		listOpts.Approved = &approved
	}
	users, err := stores.Users.List(cmdCtx.Ctx, listOpts)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if opts.Query == "" && !opts.JSON {
		renderUsers(cmdCtx.Stdout, users)
		return nil
	}
	result, err := queryUsers(users, opts.Query)
	if err != nil {
		return err
	}
	if !opts.JSON {
		if header, rows, ok := tabulate(result); ok {
			renderTable(cmdCtx.Stdout, header, rows)
			return nil
		}
	}
	enc := json.NewEncoder(cmdCtx.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func renderUsers(w io.Writer, users []*domainauth.UserMetadata) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		state := "pending"
		if u.IsApproved {
			state = "approved"
		}
		rows = append(rows, []string{u.Email, u.UserID, state, u.CreatedAt.Format(time.DateTime)})
	}
	renderTable(w, []string{"email", "user id", "state", "registered"}, rows)
}

// queryUsers evaluates expr over the users' JSON form. An empty expr returns
// the list unchanged.
func queryUsers(users []*domainauth.UserMetadata, expr string) (any, error) {
	raw, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("encode users: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if expr == "" {
		return data, nil
	}
	out, err := jmespath.Search(expr, data)
	if err != nil {
		return nil, fmt.Errorf("evaluate query: %w", err)
	}
	return out, nil
}

// tabulate turns a list of flat objects into table rows. Anything else is
// reported as not tabular.
func tabulate(result any) ([]string, [][]string, bool) {
	items, ok := result.([]any)
	if !ok || len(items) == 0 {
		return nil, nil, false
	}
	seen := map[string]struct{}{}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, nil, false
		}
		for k := range obj {
			seen[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(seen))
	for k := range seen {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		obj := item.(map[string]any)
		row := make([]string, len(header))
		for i, k := range header {
			if v, ok := obj[k]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return header, rows, true
}

type moderateOptions struct {
	Email string
	Yes   bool
}

func parseModerateFlags(name string, args []string) (moderateOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts moderateOptions
	fs.StringVar(&opts.Email, "email", "", "account email")
	fs.BoolVar(&opts.Yes, "yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return opts, errors.New("--email is required")
	}
	return opts, nil
}

func runApproveUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseModerateFlags("approve-user", args)
	if err != nil {
		return err
	}
	return setApproval(cmdCtx, opts.Email, true)
}

func runRevokeUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseModerateFlags("revoke-user", args)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if err := cmdCtx.confirm(fmt.Sprintf("Revoke admin access for %s?", opts.Email)); err != nil {
			return err
		}
	}
	return setApproval(cmdCtx, opts.Email, false)
}

func setApproval(cmdCtx *commandContext, email string, approved bool) error {
	stores, err := cmdCtx.open(cmdCtx.Ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer stores.Close()
	return setApprovalWith(cmdCtx, stores, email, approved)
}

func setApprovalWith(cmdCtx *commandContext, stores *adminStores, email string, approved bool) error {
	md, err := stores.Users.SetApprovedByEmail(cmdCtx.Ctx, email, approved, cliActor)
	if err != nil {
		return fmt.Errorf("update %s: %w", email, err)
	}
	verb := "revoked"
	if md.IsApproved {
		verb = "approved"
	}
	return writef(cmdCtx.Stdout, "%s %s (%s)\n", verb, md.Email, md.UserID)
}
