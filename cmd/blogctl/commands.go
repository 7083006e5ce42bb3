package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/2beens/blogapp/internal/config"
	"github.com/2beens/blogapp/internal/db"
	"github.com/2beens/blogapp/internal/users"
)

func openDB(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, err
	}
	return db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("BLOGAPP_POSTGRES_PASS"),
		MaxConns:   2,
	})
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var password string
	c := &cobra.Command{
		Use:   "create-user <email>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("BLOGAPP_NEW_USER_PASS")
			}

			pool, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			user, err := users.NewService(users.NewRepo(pool)).Register(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("register [%s]: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d created: %s\n", user.ID, user.Email)
			return nil
		},
	}
	c.Flags().StringVarP(&password, "password", "p", "", "password (default from BLOGAPP_NEW_USER_PASS)")
	return c
}
