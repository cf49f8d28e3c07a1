package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stencil/app"
	"stencil/app/store"
)

var (
	assumeYes  bool
	backupFile string
)

var dbCreateAllCmd = &cobra.Command{
	Use:   "db_createall",
	Short: "Creates every table defined in the program",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			return createTables(cmd, a, store.Models())
		})
	},
}

var dbCreateModelsCmd = &cobra.Command{
	Use:   "db_create_models",
	Short: "Creates the tables of the mounted blueprints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			return createTables(cmd, a, a.Models())
		})
	},
}

func createTables(cmd *cobra.Command, a *app.App, names []string) error {
	if err := store.CreateAll(a.DB(), names); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}
	fmt.Fprintf(out, "Created %d tables\n", len(names))
	return nil
}

var dbDropAllCmd = &cobra.Command{
	Use:   "db_dropall",
	Short: "Drops all database tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !assumeYes && !confirm(cmd, "Are you sure you want to drop all tables? This cannot be undone. [y/N] ") {
			fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
			return nil
		}
		return withApp(func(a *app.App) error {
			if err := store.DropAll(a.DB()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Dropped all tables")
			return nil
		})
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "db_backup",
	Short: "Creates a backup of the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := backupFile
		if path == "" {
			path = filepath.Join(projectDir, "data", "backups", fmt.Sprintf("backup_%d.db", time.Now().Unix()))
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		return withApp(func(a *app.App) error {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create backup file: %w", err)
			}
			defer f.Close()
			if err := store.Backup(a.DB(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", path)
			return nil
		})
	},
}

var dbRestoreCmd = &cobra.Command{
	Use:   "db_restore FILE",
	Short: "Restores the database from a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		fi, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backup file does not exist: %s", path)
		}
		if err != nil {
			return err
		}
		if fi.Size() == 0 {
			return fmt.Errorf("backup file is empty: %s", path)
		}
		return withApp(func(a *app.App) error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer f.Close()
			if err := store.Restore(a.DB(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database restored successfully from %s\n", path)
			return nil
		})
	},
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	var response string
	fmt.Fscanln(cmd.InOrStdin(), &response)
	return strings.EqualFold(response, "y")
}

func init() {
	dbDropAllCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	dbBackupCmd.Flags().StringVarP(&backupFile, "out", "o", "", "backup file (default data/backups/backup_<unix>.db)")

	RootCmd.AddCommand(dbCreateAllCmd, dbCreateModelsCmd, dbDropAllCmd, dbBackupCmd, dbRestoreCmd)
}
