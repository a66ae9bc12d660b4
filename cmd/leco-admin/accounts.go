package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/marioigor1982/leco-imoveis-site-simples/config"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
)

const minPasswordLen = 8

type createAccountOptions struct {
	Email   string
	Name    string
	Approve bool
}

func parseCreateAccountFlags(args []string) (createAccountOptions, error) {
	fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts createAccountOptions
	fs.StringVar(&opts.Email, "email", "", "account email")
	fs.StringVar(&opts.Name, "name", "", "display name")
	fs.BoolVar(&opts.Approve, "approve", false, "grant admin area access immediately")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.Email = strings.TrimSpace(opts.Email)
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Email == "" {
		return opts, errors.New("--email is required")
	}
	return opts, nil
}

// readPassword takes the first line of r so the password never appears in argv.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if len(pw) < minPasswordLen {
		return "", fmt.Errorf("password must have at least %d characters", minPasswordLen)
	}
	return pw, nil
}

func runCreateAccount(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateAccountFlags(args)
	if err != nil {
		return err
	}
	if p := cmdCtx.Config.Auth.Provider; p != "" && p != config.CredentialProviderLocal {
		return fmt.Errorf("create-account needs AUTH_PROVIDER=local (configured: %s)", p)
	}
	if err := write(cmdCtx.Stdout, "Password: "); err != nil {
		return err
	}
	password, err := readPassword(cmdCtx.Stdin)
	if err != nil {
		return err
	}

	stores, err := cmdCtx.open(cmdCtx.Ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer stores.Close()

	res, err := stores.Accounts.Register(cmdCtx.Ctx, ports.SignUpInput{
		Email:    opts.Email,
		Password: password,
		Name:     opts.Name,
	})
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if _, err := stores.Metadata.Create(cmdCtx.Ctx, core.CreateUserMetadataRequest{
		UserID: res.UserID,
		Email:  res.Email,
	}); err != nil {
		return fmt.Errorf("record approval state: %w", err)
	}
	if err := writef(cmdCtx.Stdout, "\ncreated %s (%s)\n", res.Email, res.UserID); err != nil {
		return err
	}
	if !opts.Approve {
		return writeln(cmdCtx.Stdout, "pending approval; run approve-user to grant access")
	}
	return setApprovalWith(cmdCtx, stores, res.Email, true)
}
