// Package chatctl implements the operator CLI: user management and session
// revocation straight against the database, for when the HTTP surface is the
// wrong tool (first admin user, lost credentials, incident response).
package chatctl

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/config"
	"github.com/aleksvdm/gopherchat/internal/server/models"
	"github.com/aleksvdm/gopherchat/internal/server/password"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/repomanager"
)

const usage = `usage: chatctl <command> [flags]

commands:
  adduser   create a user (prompts for the password)
  passwd    set a user's password and revoke their sessions
  revoke    revoke every session of a user
  migrate   apply pending database migrations
`

type App struct {
	config *config.Config
	db     *sql.DB
	repos  repomanager.RepositoryManager
	out    io.Writer
}

func NewApp(cfg *config.Config) (*App, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return &App{
		config: cfg,
		db:     db,
		repos:  repomanager.NewPostgresRepositoryManager(),
		out:    os.Stdout,
	}, nil
}

func (app *App) Close() error {
	return app.db.Close()
}

// Run dispatches a subcommand. args excludes the program name.
func (app *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(app.out, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "adduser":
		return app.addUser(ctx, args[1:])
	case "passwd":
		return app.setPassword(ctx, args[1:])
	case "revoke":
		return app.revokeSessions(ctx, args[1:])
	case "migrate":
		return app.repos.RunMigrations(ctx, app.db)
	default:
		fmt.Fprint(app.out, usage)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (app *App) addUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	email := fs.String("email", "", "user email")
	name := fs.String("name", "", "user name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("email is required")
	}

	exists, err := app.repos.Users(app.db).EmailExists(ctx, *email, 0)
	if err != nil {
		return err
	}
	if exists {
		return common.ErrEmailAlreadyExists
	}

	plaintext, err := GetPassword(app.out, "Enter password: ")
	if err != nil {
		return err
	}

	hash, err := password.Hash(string(plaintext))
	if err != nil {
		return err
	}

	user := &models.User{Email: *email, Name: *name, PasswordHash: hash}
	err = dbx.WithTx(ctx, app.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := app.repos.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.out, "created user id=%d\n", created.ID)
		return nil
	})
	return err
}

func (app *App) setPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	email := fs.String("email", "", "user email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("email is required")
	}

	user, err := app.repos.Users(app.db).FindByEmail(ctx, *email)
	if err != nil {
		return err
	}

	plaintext, err := GetPassword(app.out, "Enter new password: ")
	if err != nil {
		return err
	}

	hash, err := password.Hash(string(plaintext))
	if err != nil {
		return err
	}

	// same rule as the API: a new password invalidates every session
	err = dbx.WithTx(ctx, app.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := app.repos.Users(tx).UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		return app.repos.RefreshTokens(tx).RevokeAll(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "password updated for user id=%d\n", user.ID)
	return nil
}

func (app *App) revokeSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ContinueOnError)
	email := fs.String("email", "", "user email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("email is required")
	}

	user, err := app.repos.Users(app.db).FindByEmail(ctx, *email)
	if err != nil {
		return err
	}

	if err := app.repos.RefreshTokens(app.db).RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "sessions revoked for user id=%d\n", user.ID)
	return nil
}
