package main

import (
	"fmt"
	"log/slog"

	"github.com/ashureev/wildscan/internal/config"
	"github.com/ashureev/wildscan/internal/identity"
	"github.com/ashureev/wildscan/internal/store"
	"github.com/spf13/cobra"
)

var resetDevice string

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear persisted state for every device, or one with --device",
	Long: `Deletes persisted app state and chat history. Statistics only return to
their defaults through this command.

Stop the server first: a running server keeps each device's state in memory
and writes it back on the next change, undoing the reset. Use
DELETE /api/state to reset a single device on a live server.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetDevice, "device", "", "Only reset this device ID")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if resetDevice != "" && !identity.IsValidDeviceID(resetDevice) {
		return fmt.Errorf("invalid device ID %q", resetDevice)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	backend, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	prefix := ""
	if resetDevice != "" {
		prefix = store.DevicePrefix(resetDevice)
	}
	deleted, err := backend.DeletePrefix(cmd.Context(), prefix)
	if err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}

	slog.Info("Store reset", "device_id", resetDevice, "keys_deleted", deleted)
	return nil
}
