package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/quarry/dialect"
	esql "github.com/syssam/quarry/dialect/sql"
)

var (
	cfgFile     string
	dsn         string
	dialectName string
	drv         *esql.Driver
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Versioned schema migrations, introspection and typed bindings",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Flag > config file > environment, per viper precedence.
		connStr := viper.GetString("database.dsn")
		if connStr == "" {
			return fmt.Errorf("database.dsn is required (via --dsn, config file or QUARRY_DATABASE_DSN)")
		}
		dialectName = viper.GetString("database.dialect")
		if dialectName == "" {
			dialectName = detectDialect(connStr)
		}
		var err error
		drv, err = esql.Open(dialectName, connStr)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := drv.DB().Ping(); err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if drv != nil {
			return drv.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./quarry.yaml)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "database source name")
	rootCmd.PersistentFlags().StringVar(&dialectName, "dialect", "", "database dialect: postgres, mysql or sqlite (detected from the DSN when empty)")

	viper.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.dialect", rootCmd.PersistentFlags().Lookup("dialect"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("quarry")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("quarry")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

// detectDialect guesses the dialect from the DSN shape.
func detectDialect(connStr string) string {
	switch {
	case strings.HasPrefix(connStr, "postgres://"), strings.Contains(connStr, "sslmode="):
		return dialect.Postgres
	case strings.HasPrefix(connStr, "file:"), strings.HasSuffix(connStr, ".db"), connStr == ":memory:":
		return dialect.SQLite
	default:
		return dialect.MySQL
	}
}

// schemaName returns the catalog namespace the introspector should read:
// the connected database on MySQL, "public" on Postgres, unused on SQLite.
func schemaName(cmd *cobra.Command) (string, error) {
	switch dialectName {
	case dialect.MySQL:
		var name string
		if err := drv.DB().QueryRowContext(cmd.Context(), "SELECT DATABASE()").Scan(&name); err != nil {
			return "", fmt.Errorf("resolve database name: %w", err)
		}
		if name == "" {
			return "", fmt.Errorf("no database selected in DSN")
		}
		return name, nil
	case dialect.Postgres:
		return "public", nil
	default:
		return "", nil
	}
}
