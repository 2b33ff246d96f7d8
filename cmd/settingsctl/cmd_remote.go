package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flow-settings/pkg/backup"
	"flow-settings/pkg/controller"
	"flow-settings/pkg/portal"
	"flow-settings/pkg/prefs"
	"flow-settings/screens/terminal"
)

// backupCmd uploads the stored settings to S3
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload the stored settings to S3",
	Long: `Upload the stored settings as a JSON snapshot to
s3://$SETTINGS_S3_BUCKET/$SETTINGS_S3_PREFIX/settings.json.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

// restoreCmd downloads settings from S3
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore settings from the S3 snapshot",
	Args:  cobra.NoArgs,
	RunE:  runRestore,
}

// serveCmd runs the remote portal without the screen
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the remote settings portal",
	Long: `Serve the remote settings page and JSON API on
$SETTINGS_PORTAL_ADDR:$SETTINGS_PORTAL_PORT until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// tuiCmd opens the terminal settings screen
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the settings screen in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runBackup(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := backup.NewFromConfig(cfg, store, log)
	if err != nil {
		return err
	}
	snap, err := b.Backup(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Settings backed up to %s at %s\n", b.Location(), snap.SavedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := backup.NewFromConfig(cfg, store, log)
	if err != nil {
		return err
	}
	rec, err := b.Restore(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Settings restored from %s\n", b.Location())
	return writeOutput(cmd.OutOrStdout(), "text", recordDoc(rec), prefs.Keys())
}

func recordDoc(rec prefs.Record) map[string]any {
	doc := make(map[string]any, len(prefs.Keys()))
	for _, key := range prefs.Keys() {
		doc[key], _ = rec.Get(key)
	}
	return doc
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signalContext()
	defer stop()

	p := portal.NewPortal(cfg.PortalAddr, cfg.PortalPort, store, log)
	if err := p.Start(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving settings portal at %s (Ctrl+C to stop)\n", p.URL())

	<-ctx.Done()
	log.Info("Received shutdown signal")
	return p.Stop()
}

func runTUI(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	writer := prefs.NewWriter(store, log)
	defer func() {
		if err := writer.Close(); err != nil {
			log.Warn("Pending preference writes failed", zap.Error(err))
		}
	}()

	ctx, stop := signalContext()
	defer stop()

	ctrl := controller.New(store, writer, log)
	ctrl.Init(ctx)
	ctrl.Follow(ctx)

	return terminal.Run(ctx, ctrl)
}
