package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/moviesync/internal/prefs"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Manage permission for result-ready notifications",
}

var notificationsGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Allow notifications when background results are ready",
	Run:   setNotifications(prefs.PermissionGranted),
}

var notificationsDenyCmd = &cobra.Command{
	Use:     "deny",
	Aliases: []string{"revoke"},
	Short:   "Never show result-ready notifications",
	Run:     setNotifications(prefs.PermissionDenied),
}

var notificationsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current notification permission",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		p, err := prefs.Load(cfg.Notify.PrefsPath)
		exitOn(err, "Failed to read preferences")
		fmt.Printf("Notifications: %s\n", p.Notifications)
	},
}

func init() {
	notificationsCmd.AddCommand(notificationsGrantCmd, notificationsDenyCmd, notificationsStatusCmd)
	rootCmd.AddCommand(notificationsCmd)
}

func setNotifications(state string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		exitOn(prefs.SetNotifications(cfg.Notify.PrefsPath, state), "Failed to update preferences")
		fmt.Printf("Notifications: %s\n", state)
	}
}
