package command

// root.go defines the root command for the jobchat CLI.
// Global flags pick the API server and the identity to act as.

import (
	"context"
	"fmt"
	"os"
	"time"

	"jobchat/cmd/cli/command/client"
	"jobchat/internal/microservices/http-api/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	apiURL    string // Global flag for API server URL
	actorType string // task_owner | crew
	ownerID   int64
	crewID    int64
	token     string // identity assertion token (jwt auth mode)
	timeout   time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobchat",
	Short: "jobchat - chat with the other side of a marketplace job",
	Long: `jobchat talks to the job chat API. Act as the task owner or the assigned
crew member of a job to:
- open the job's chat room
- read history page by page and send messages
- mark messages read and check unread counts
- close or assign jobs (which drives chat availability)

Identity comes from --actor-type with --owner-id or --crew-id, or from --token
when the server runs with AUTH_MODE=jwt ("jobchat token" signs one). JOBCHAT_API and JOBCHAT_TOKEN are read
from the environment when the flags are not given.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("JOBCHAT_API", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().StringVar(&actorType, "actor-type", "", "act as task_owner or crew")
	rootCmd.PersistentFlags().Int64Var(&ownerID, "owner-id", 0, "task owner user id (with --actor-type task_owner)")
	rootCmd.PersistentFlags().Int64Var(&crewID, "crew-id", 0, "crew id (with --actor-type crew)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("JOBCHAT_TOKEN"), "bearer token carrying the identity")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(tokenCmd)
}

// newClient builds the API client from the global flags
func newClient() (*client.HTTPClient, error) {
	identity := client.Identity{Token: token}
	if token == "" {
		actor, err := actorFromFlags(actorType, ownerID, crewID)
		if err != nil {
			return nil, err
		}
		identity.ActorType = string(actor.Kind())
		identity.OwnerID = ownerID
		identity.CrewID = crewID
	}
	return client.NewHTTPClient(apiURL, identity), nil
}

// actorFromFlags turns --actor-type with --owner-id / --crew-id into an identity
func actorFromFlags(actorType string, ownerID, crewID int64) (models.Identity, error) {
	switch actorType {
	case "task_owner":
		if ownerID <= 0 || crewID != 0 {
			return models.Identity{}, fmt.Errorf("--actor-type task_owner needs --owner-id and no --crew-id")
		}
		return models.OwnerIdentity(ownerID), nil
	case "crew":
		if crewID <= 0 || ownerID != 0 {
			return models.Identity{}, fmt.Errorf("--actor-type crew needs --crew-id and no --owner-id")
		}
		return models.CrewIdentity(crewID), nil
	case "":
		return models.Identity{}, fmt.Errorf("set --actor-type (task_owner|crew) or --token")
	}
	return models.Identity{}, fmt.Errorf("unknown actor type %q", actorType)
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
