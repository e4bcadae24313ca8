package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect/sql/schema"
)

var (
	migrationsDir string
	watch         bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations from a directory of SQL files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runMigrate(cmd); err != nil {
			return err
		}
		if !watch {
			return nil
		}
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()
		if err := watcher.Add(migrationsDir); err != nil {
			return err
		}
		fmt.Printf("watching %s for new migrations\n", migrationsDir)
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if err := runMigrate(cmd); err != nil {
					// Keep watching; the author gets to fix the file.
					fmt.Fprintln(os.Stderr, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintln(os.Stderr, "watch error:", err)
			}
		}
	},
}

func runMigrate(cmd *cobra.Command) error {
	migrations, err := schema.LoadDir(os.DirFS(migrationsDir))
	if err != nil {
		return err
	}
	m := schema.NewMigrator(drv, schema.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	res, err := m.Migrate(cmd.Context(), migrations)
	if res != nil {
		for _, mig := range res.Executed {
			fmt.Printf("applied  %s\n", mig.Name())
		}
		if res.Failed != nil {
			fmt.Printf("failed   %s\n", res.Failed.Name())
		}
		fmt.Printf("%d applied, %d skipped\n", len(res.Executed), len(res.Skipped))
	}
	return err
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory of V<version>__<timestamp>__<description>.up.sql files")
	migrateCmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-apply when the directory changes")
}
