package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// issueCmd groups the Jira issue operations.
var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Read and write Jira issues",
}

var issueGetCmd = &cobra.Command{
	Use:     "get ISSUE",
	Short:   "Show a Jira issue",
	Example: "  atlas issue get PROJ-123",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rt.toolset.GetIssue(cmd.Context(), rt.identity, args[0]))
		return nil
	},
}

var issueCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a Jira issue",
	Example: "  atlas issue create --project PROJ --summary \"Fix login\" --type Bug",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		issueSummary, _ := cmd.Flags().GetString("summary")
		issueType, _ := cmd.Flags().GetString("type")
		description, _ := cmd.Flags().GetString("description")

		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rt.toolset.CreateIssue(cmd.Context(), rt.identity, project, issueSummary, issueType, description))
		return nil
	},
}

var issueUpdateSummaryCmd = &cobra.Command{
	Use:     "update-summary ISSUE SUMMARY",
	Short:   "Replace the summary of a Jira issue",
	Example: "  atlas issue update-summary PROJ-123 \"Fix login on Safari\"",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rt.toolset.UpdateIssueSummary(cmd.Context(), rt.identity, args[0], args[1]))
		return nil
	},
}

func init() {
	issueCreateCmd.Flags().StringP("project", "p", "", "Project key")
	issueCreateCmd.Flags().StringP("summary", "s", "", "Issue summary")
	issueCreateCmd.Flags().StringP("type", "t", "", "Issue type, e.g. Task or Bug")
	issueCreateCmd.Flags().StringP("description", "d", "", "Issue description")
	issueCreateCmd.MarkFlagRequired("project")
	issueCreateCmd.MarkFlagRequired("summary")
	issueCreateCmd.MarkFlagRequired("type")

	issueCmd.AddCommand(issueGetCmd)
	issueCmd.AddCommand(issueCreateCmd)
	issueCmd.AddCommand(issueUpdateSummaryCmd)
}
