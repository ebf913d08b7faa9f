package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bizkit/internal/apperr"
	"bizkit/internal/repository"
	"bizkit/internal/service"
	"bizkit/pkg/db"
)

// readPassword is swapped out in tests so they never touch a terminal.
var readPassword = term.ReadPassword

// openUserStore connects to Postgres; the returned func releases the pool.
var openUserStore = func(ctx context.Context) (repository.UserStore, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewConnection(ctx, cfg.DB, log)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewUserRepository(pool), pool.Close, nil
}

var (
	userEmail string
	userName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account, prompting for the password",
	RunE:  runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "account email (required)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "full name (required)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("name")
	userCmd.AddCommand(userCreateCmd)
}

func promptPassword(w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprint(w, label); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	out := cmd.ErrOrStderr()
	password, err := promptPassword(out, "Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := promptPassword(out, "Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	store, closeStore, err := openUserStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	// token 不需要，secret 随意即可
	auth := service.NewAuthService(store, "bizkitctl", time.Minute)
	res, err := auth.Signup(cmd.Context(), service.SignupInput{
		FullName:        userName,
		Email:           userEmail,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return userError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", res.User.ID, res.User.Email)
	return nil
}

// userError keeps the user-facing message and drops the wrapped cause.
func userError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return fmt.Errorf("user create failed: %s", ae.Message)
	}
	return err
}
