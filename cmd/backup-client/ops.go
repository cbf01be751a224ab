package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ScorpioXKiller/client-backup-app/pkg/client"
	"github.com/ScorpioXKiller/client-backup-app/pkg/config"
	"github.com/ScorpioXKiller/client-backup-app/pkg/localfs"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files stored on the server for this user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			c, err := newClient(cfg, logger, nil)
			if err != nil {
				return err
			}
			files, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("No files stored.")
				return nil
			}
			for _, fi := range files {
				fmt.Printf("%10d  %s\n", fi.Size, fi.Name)
			}
			return nil
		},
	}
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file...]",
		Short: "Upload files to the server",
		Long: `Upload the named files, or with no arguments the files listed in the
configured backup list (newline-delimited paths).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			files := args
			if len(files) == 0 {
				files, err = config.ReadBackupList(cfg.BackupListFile)
				if err != nil {
					return err
				}
			}
			if len(files) == 0 {
				return fmt.Errorf("nothing to back up")
			}

			c, err := newClient(cfg, logger, nil)
			if err != nil {
				return err
			}
			rep, _ := c.Backup(cmd.Context(), files)
			recordBackups(cfg, logger, rep)
			return printReport(rep)
		},
	}
}

func restoreCmd() *cobra.Command {
	var saveAs string
	cmd := &cobra.Command{
		Use:   "restore <file> [file...]",
		Short: "Download stored files back to disk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if saveAs != "" && len(args) != 1 {
				return fmt.Errorf("--as works with exactly one file")
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			c, err := newClient(cfg, logger, nil)
			if err != nil {
				return err
			}

			targets := make([]client.RestoreTarget, len(args))
			for i, name := range args {
				targets[i] = client.RestoreTarget{Name: name}
			}
			if saveAs != "" {
				targets[0].SaveAs = saveAs
			}

			rep, _ := c.Restore(cmd.Context(), targets)
			return printReport(rep)
		},
	}
	cmd.Flags().StringVar(&saveAs, "as", "", "local path to write the restored file under")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file> [file...]",
		Short: "Delete stored files on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			c, err := newClient(cfg, logger, nil)
			if err != nil {
				return err
			}
			rep, _ := c.Delete(cmd.Context(), args)

			m := openManifest(cfg, logger)
			for _, o := range rep.Outcomes {
				if o.OK {
					m.RecordDelete(o.Name)
				}
			}
			if err := m.Save(); err != nil {
				logger.Warn("Manifest save failed", zap.Error(err))
			}
			return printReport(rep)
		},
	}
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the classic end-to-end exercise against the server",
		Long: `Runs the original demonstration flow: list, back up the first two files
from the backup list, list again, restore the first file as "tmp", delete it,
then restore it once more expecting file-not-found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			files, err := config.ReadBackupList(cfg.BackupListFile)
			if err != nil {
				return err
			}
			c, err := newClient(cfg, logger, nil)
			if err != nil {
				return err
			}
			if err := c.Demo(cmd.Context(), files, "tmp"); err != nil {
				return err
			}
			fmt.Println("Demo completed.")
			return nil
		},
	}
}

func manifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Show the local record of backed-up files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			m := openManifest(cfg, logger)
			entries := m.List()
			if len(entries) == 0 {
				fmt.Println("Manifest is empty.")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%10d  %s  %x  %s\n", e.Size, e.BackedUpAt.Format("2006-01-02 15:04:05"), e.SHA256[:4], e.Name)
			}
			return nil
		},
	}
}

// recordBackups folds successful uploads into the local manifest.
func recordBackups(cfg *config.Config, logger *zap.Logger, rep *client.Report) {
	m := openManifest(cfg, logger)
	var fs localfs.OS
	for _, o := range rep.Outcomes {
		if !o.OK {
			continue
		}
		if b, err := fs.ReadAll(o.Name); err == nil {
			m.RecordBackup(o.Name, b)
		}
	}
	if err := m.Save(); err != nil {
		logger.Warn("Manifest save failed", zap.Error(err))
	}
}

// printReport renders per-file outcomes and turns overall failure into an
// exit error.
func printReport(rep *client.Report) error {
	for _, o := range rep.Outcomes {
		switch {
		case o.OK:
			fmt.Printf("ok    %s\n", o.Name)
		case !o.Attempted:
			fmt.Printf("skip  %s (not attempted)\n", o.Name)
		default:
			fmt.Printf("FAIL  %s (%s)\n", o.Name, o.Reason())
		}
	}
	if !rep.OK() {
		if rep.Err != nil {
			return fmt.Errorf("%s aborted: %w", rep.Op, rep.Err)
		}
		return fmt.Errorf("%s finished with failures", rep.Op)
	}
	return nil
}
