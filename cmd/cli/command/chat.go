package command

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"jobchat/cmd/cli/command/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Job chat commands",
	Long:  `Open a job's chat room, page through messages, send, mark read and count unread`,
}

var chatRoomCmd = &cobra.Command{
	Use:   "room [job-id]",
	Short: "Open (or create) the chat room of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid job ID: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		room, err := c.GetRoom(ctx, jobID)
		if err != nil {
			if client.IsStatus(err, http.StatusConflict) {
				return fmt.Errorf("chat for job %d opens once a crew is assigned", jobID)
			}
			return fmt.Errorf("failed to open chat room: %w", err)
		}

		color.Green("✓ Chat room %d for job %d", room.ID, room.JobID)
		if room.IsReadOnly {
			color.Yellow("  read-only: the job is closed")
		}
		fmt.Printf("  Created: %s\n", room.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var (
	listCursor string
	listLimit  int
	listAll    bool
)

var chatListCmd = &cobra.Command{
	Use:   "list [room-id]",
	Short: "List messages, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid room ID: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		cursor := listCursor
		for {
			ctx, cancel := requestContext(cmd)
			page, err := c.ListMessages(ctx, roomID, cursor, listLimit)
			cancel()
			if err != nil {
				return fmt.Errorf("failed to list messages: %w", err)
			}

			for _, m := range page.Messages {
				printMessage(m)
			}
			if !page.HasMore || page.NextCursor == nil {
				break
			}
			if !listAll {
				color.HiBlack("-- more: --cursor %s", *page.NextCursor)
				break
			}
			cursor = *page.NextCursor
		}
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send [room-id] [content]",
	Short: "Send a message to a room",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid room ID: %w", err)
		}
		content := strings.Join(args[1:], " ")

		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		msg, err := c.SendMessage(ctx, roomID, content)
		if err != nil {
			if client.IsStatus(err, http.StatusLocked) {
				return fmt.Errorf("room %d is read-only, the job has been closed", roomID)
			}
			return fmt.Errorf("failed to send message: %w", err)
		}

		color.Green("✓ Message %d sent", msg.ID)
		return nil
	},
}

var chatReadCmd = &cobra.Command{
	Use:   "read [room-id] [message-id]",
	Short: "Mark a message as read",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid room ID: %w", err)
		}
		messageID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid message ID: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		if err := c.MarkRead(ctx, roomID, messageID); err != nil {
			return fmt.Errorf("failed to mark message read: %w", err)
		}
		color.Green("✓ Message %d marked read", messageID)
		return nil
	},
}

var chatUnreadCmd = &cobra.Command{
	Use:   "unread [room-id]",
	Short: "Show how many messages you have not read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid room ID: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		count, err := c.UnreadCount(ctx, roomID)
		if err != nil {
			return fmt.Errorf("failed to count unread messages: %w", err)
		}
		fmt.Printf("Room %d: %d unread\n", count.ChatRoomID, count.UnreadCount)
		return nil
	},
}

func printMessage(m client.ChatMessage) {
	ts := m.CreatedAt.Format("2006-01-02 15:04")
	switch m.SenderType {
	case "task_owner":
		color.Cyan("[%s] #%d owner %d: %s", ts, m.ID, deref(m.SenderOwnerUserID), m.Content)
	case "crew":
		color.Magenta("[%s] #%d crew %d: %s", ts, m.ID, deref(m.SenderCrewID), m.Content)
	default:
		color.Yellow("[%s] #%d %s", ts, m.ID, m.Content)
	}
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func init() {
	chatListCmd.Flags().StringVar(&listCursor, "cursor", "", "continue from this cursor")
	chatListCmd.Flags().IntVar(&listLimit, "limit", 0, "page size (server default when 0, max 100)")
	chatListCmd.Flags().BoolVar(&listAll, "all", false, "follow cursors until the oldest message")

	chatCmd.AddCommand(chatRoomCmd)
	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatReadCmd)
	chatCmd.AddCommand(chatUnreadCmd)
}
