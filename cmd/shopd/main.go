package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-shop-auth/config"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:           "shopd",
	Short:         "multi shop storefront authentication server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	bindGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tenantsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(hashCmd)
}

func bindGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&envFile, "env-file", ".env", "path to a .env file, ignored when missing")
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath, envFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
