package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	auth "github.com/goliatone/go-shop-auth"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "inspect the shop registry",
}

var tenantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "print every shop the configured source returns",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, err := newApp(cmd.Context(), cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer app.Close()

		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(app.tenants.Snapshot()))
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "manage customer accounts",
}

func setActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: use + " a customer account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context(), cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer app.Close()

			return auth.NewSetUserActiveHandler(app.repo).Execute(cmd.Context(), auth.SetUserActiveMessage{
				Username: args[0],
				Active:   active,
				OnUpdated: func(u *auth.User) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: active=%t\n", u.Username, u.Active)
				},
			})
		},
	}
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "generate a session encryption key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := auth.GenerateSymmetricKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key.Encode())
		return nil
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash [password]",
	Short: "hash a password, reads stdin when no argument is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordArg(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		hasher, err := auth.NewHasher()
		if err != nil {
			return err
		}

		hash, err := hasher.Hash(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func passwordArg(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("empty password")
	}
	return line, nil
}

func init() {
	tenantsCmd.AddCommand(tenantsListCmd)
	usersCmd.AddCommand(setActiveCmd("enable", true), setActiveCmd("disable", false))
}
