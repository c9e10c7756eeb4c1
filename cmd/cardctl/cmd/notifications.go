package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jrsteele09/go-card-portal/notifications"
	"github.com/jrsteele09/go-card-portal/portal"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	notificationLimit  int
	watchNotifications bool
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notifs"},
	Short:   "Show recent notifications",
	Long: `Shows the most recent notifications. With --watch the command keeps polling
and prints new notifications as they arrive until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !watchNotifications {
			return withPortal(cmd, func(p *portal.Portal) error {
				if err := requireSession(p); err != nil {
					return err
				}
				recent, err := p.Notifications.Recent(cmd.Context(), notificationLimit)
				if err != nil {
					return err
				}
				renderNotifications(recent.Notifications)
				pterm.Info.Printf("%d unread\n", recent.UnreadCount)
				return nil
			})
		}

		printNew := func(batch []notifications.Notification) {
			for _, n := range batch {
				pterm.Info.Printf("[%s] %s: %s\n", n.NotificationType, n.Title, n.Message)
			}
		}
		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}
			if err := p.Poller.Refresh(cmd.Context()); err != nil {
				return err
			}
			renderNotifications(p.Poller.Notifications())
			if err := p.Poller.Start(cmd.Context()); err != nil {
				return err
			}
			pterm.Info.Println("Watching for new notifications, press Ctrl+C to stop")

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(stop)
			<-stop
			return nil
		}, portal.WithOnNotifications(printNew), portal.WithPollerOptions(notifications.WithRecentLimit(notificationLimit)))
	},
}

var markReadCmd = &cobra.Command{
	Use:   "read [notification-id...]",
	Short: "Mark notifications as read, all of them when no id is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}
			updated, err := p.Notifications.MarkAsRead(cmd.Context(), ids...)
			if err != nil {
				return err
			}
			pterm.Success.Printf("%d notification(s) marked as read\n", updated)
			return nil
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every notification",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPortal(cmd, func(p *portal.Portal) error {
			if err := requireSession(p); err != nil {
				return err
			}
			deleted, err := p.Notifications.ClearAll(cmd.Context())
			if err != nil {
				return err
			}
			pterm.Success.Printf("%d notification(s) deleted\n", deleted)
			return nil
		})
	},
}

func renderNotifications(list []notifications.Notification) {
	if len(list) == 0 {
		pterm.Info.Println("No notifications")
		return
	}
	table := pterm.TableData{{"ID", "", "TYPE", "TITLE", "MESSAGE", "CREATED"}}
	for _, n := range list {
		unread := ""
		if !n.IsRead {
			unread = "*"
		}
		table = append(table, []string{
			itoa(n.ID), unread, string(n.NotificationType), n.Title, n.Message, n.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid notification id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	notificationsCmd.Flags().IntVar(&notificationLimit, "limit", 10, "Number of notifications to show")
	notificationsCmd.Flags().BoolVarP(&watchNotifications, "watch", "w", false, "Keep polling for new notifications")
	notificationsCmd.AddCommand(markReadCmd)
	notificationsCmd.AddCommand(clearCmd)
}
