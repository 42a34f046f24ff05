package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "haulboard",
		Short: "Logistics dashboard server",
		Long: `haulboard tracks cargo projects, their delivery trips and the
wind-turbine tracking board. It serves MCP over HTTP or stdio, a JSON-RPC
and CSV HTTP API, and operator commands for keys and board files.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (yaml or toml; default $HAULBOARD_CONFIG_PATH)")

	root.AddCommand(
		newServeCmd(&cfgPath),
		newMigrateCmd(&cfgPath),
		newAPIKeyCmd(&cfgPath),
		newTrackerCmd(&cfgPath),
	)
	return root
}

func newMigrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "database ready: %s\n", a.cfg.DB.Path)
			return nil
		},
	}
}

func newAPIKeyCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}

	var tenant, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.apiKeys.Create(cmd.Context(), tenant, description)
			if err != nil {
				return fmt.Errorf("create api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	create.Flags().StringVar(&tenant, "tenant", "", "tenant the key authenticates as")
	create.Flags().StringVar(&description, "description", "", "free-form note stored with the key")
	_ = create.MarkFlagRequired("tenant")

	cmd.AddCommand(create)
	return cmd
}

func newTrackerCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Export or import the tracking board as CSV",
	}

	var tenant string
	cmd.PersistentFlags().StringVar(&tenant, "tenant", "", "tenant whose board to use (default tracker.tenant)")
	tenantOr := func(a *app) string {
		if tenant != "" {
			return tenant
		}
		return a.cfg.Tracker.Tenant
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the board as CSV to stdout or a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			exp, err := a.tracker.Export(cmd.Context(), tenantOr(a))
			if err != nil {
				return fmt.Errorf("export board: %w", err)
			}
			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), exp.Content)
				return err
			}
			if err := os.WriteFile(out, []byte(exp.Content), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d rows to %s\n", exp.Rows, out)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the board with the rows of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			a, err := newApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.tracker.Import(cmd.Context(), tenantOr(a), f)
			if err != nil {
				return fmt.Errorf("import board: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows\n", n)
			return nil
		},
	}

	cmd.AddCommand(export, importCmd)
	return cmd
}
