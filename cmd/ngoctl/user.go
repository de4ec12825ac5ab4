package main

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
	"github.com/maxcyking/ngo-library-sub001/internal/services"
)

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	var username, email, role string
	create := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff account, prompting for the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptNewPassword()
			if err != nil {
				return err
			}

			db, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			hasher, err := services.NewAuthService(store, a.cfg.JWT.PrivateKey,
				time.Duration(a.cfg.JWT.ExpiryHours)*time.Hour, a.logger, nil)
			if err != nil {
				return err
			}
			user, err := services.NewUserService(store, hasher, a.logger).CreateUser(cmd.Context(), models.CreateUserRequest{
				Username: username,
				Email:    email,
				Password: password,
				Role:     models.UserRole(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (id %d)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "login name")
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&role, "role", string(models.RoleAdmin), "admin, librarian or staff")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

func promptNewPassword() (string, error) {
	password, err := readPassword("Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}
