package main

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/elimu/apps/di"
	"github.com/trezcool/elimu/core"
	funcsvc "github.com/trezcool/elimu/services/functions"
	storagesvc "github.com/trezcool/elimu/services/storage"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	logger   core.Logger
	validate *validator.Validate
	out      io.Writer

	// set by connect
	db      *sqlx.DB
	svcs    di.Services
	ready   bool
	closers []func()
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "admin",
		Short:             "Elimu administration tool",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.createDBCmd(),
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.seedCmd(),
		cli.scrapeCmd(),
	)
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args[1:])
	return root.Execute()
}

// connect opens the database and builds the services, except for commands that run before the database exists.
func (cli *commandLine) connect(cmd *cobra.Command, _ []string) error {
	if cli.ready || cmd.Name() == "createdb" || cmd.Name() == "admin" {
		return nil
	}

	ctx := cmd.Context()
	repos, db, err := di.OpenRepositories(ctx, cli.conf, false)
	if err != nil {
		return err
	}
	if db != nil {
		cli.closers = append(cli.closers, func() { _ = db.Close() })
	}
	cache, closeCache := di.NewCache(ctx, cli.conf, cli.logger)
	cli.closers = append(cli.closers, closeCache)

	cli.db = db
	cli.svcs = di.NewServices(cli.conf, cli.logger, cli.validate, repos, di.Infra{
		Mail:    di.NewEmailService(cli.conf, cli.logger),
		Cache:   cache,
		Storage: storagesvc.NewLocalStorage(cli.conf),
		Invoker: funcsvc.NewRestInvoker(cli.conf),
	})
	cli.ready = true
	return nil
}

func (cli *commandLine) close() {
	for i := len(cli.closers) - 1; i >= 0; i-- {
		cli.closers[i]()
	}
}

// readPassword prompts for a password on the terminal without echoing it.
func (cli *commandLine) readPassword(prompt string) (string, error) {
	_, _ = fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
