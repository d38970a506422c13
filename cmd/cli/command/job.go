package command

import (
	"fmt"
	"strconv"

	"jobchat/cmd/cli/command/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Job lifecycle commands that affect chat",
}

var jobShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, args[0], func(c *client.HTTPClient, jobID int64) (*client.Job, error) {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return c.GetJob(ctx, jobID)
		})
	},
}

var jobCloseCmd = &cobra.Command{
	Use:   "close [job-id]",
	Short: "Close a job; its chat becomes read-only",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, args[0], func(c *client.HTTPClient, jobID int64) (*client.Job, error) {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return c.UpdateJobStatus(ctx, jobID, "closed")
		})
	},
}

var jobAssignCmd = &cobra.Command{
	Use:   "assign [job-id] [crew-id]",
	Short: "Assign a crew member to a job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		assignee, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid crew ID: %w", err)
		}
		return runJob(cmd, args[0], func(c *client.HTTPClient, jobID int64) (*client.Job, error) {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return c.AssignCrew(ctx, jobID, assignee)
		})
	},
}

func runJob(cmd *cobra.Command, rawID string, call func(*client.HTTPClient, int64) (*client.Job, error)) error {
	jobID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	job, err := call(c, jobID)
	if err != nil {
		return fmt.Errorf("%s failed: %w", cmd.Name(), err)
	}

	color.Green("✓ Job %d (%s)", job.ID, job.Status)
	fmt.Printf("  Owner: %d\n", job.OwnerID)
	if job.AssignedCrewID != nil {
		fmt.Printf("  Crew: %d\n", *job.AssignedCrewID)
	} else {
		fmt.Println("  Crew: unassigned")
	}
	return nil
}

func init() {
	jobCmd.AddCommand(jobShowCmd)
	jobCmd.AddCommand(jobCloseCmd)
	jobCmd.AddCommand(jobAssignCmd)
}
