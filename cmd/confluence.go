package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// confluenceCmd groups the Confluence page operations.
var confluenceCmd = &cobra.Command{
	Use:   "confluence",
	Short: "Search, read and create Confluence pages",
}

var confluenceSearchCmd = &cobra.Command{
	Use:     "search CQL",
	Short:   "Search pages with a CQL query",
	Example: "  atlas confluence search 'type = page AND space = DEV'",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}

		pages, err := rt.toolset.SearchConfluencePages(cmd.Context(), rt.identity, args[0])
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(pages)
	},
}

var confluenceGetCmd = &cobra.Command{
	Use:     "get PAGE_ID",
	Short:   "Show a page as summarized markdown",
	Example: "  atlas confluence get 123456",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rt.toolset.GetConfluencePageContent(cmd.Context(), rt.identity, args[0]))
		return nil
	},
}

var confluenceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a page from storage-format HTML",
	Example: `  atlas confluence create --space-id 98765 --title "Runbook" --content "<p>hello</p>"
  atlas confluence create --space-id 98765 --title "Runbook" --file runbook.html`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spaceID, _ := cmd.Flags().GetString("space-id")
		title, _ := cmd.Flags().GetString("title")

		content, err := pageContent(cmd)
		if err != nil {
			return err
		}

		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rt.toolset.CreateConfluencePage(cmd.Context(), rt.identity, spaceID, title, content))
		return nil
	},
}

// pageContent returns --content, or the contents of --file.
func pageContent(cmd *cobra.Command) (string, error) {
	content, _ := cmd.Flags().GetString("content")
	file, _ := cmd.Flags().GetString("file")

	if file == "" {
		return content, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %v", err)
	}
	return string(data), nil
}

func init() {
	confluenceCreateCmd.Flags().String("space-id", "", "Numeric space id (not the space key)")
	confluenceCreateCmd.Flags().String("title", "", "Page title")
	confluenceCreateCmd.Flags().String("content", "", "Page body in storage-format HTML")
	confluenceCreateCmd.Flags().StringP("file", "f", "", "Read the page body from a file")
	confluenceCreateCmd.MarkFlagRequired("space-id")
	confluenceCreateCmd.MarkFlagRequired("title")
	confluenceCreateCmd.MarkFlagsOneRequired("content", "file")
	confluenceCreateCmd.MarkFlagsMutuallyExclusive("content", "file")

	confluenceCmd.AddCommand(confluenceSearchCmd)
	confluenceCmd.AddCommand(confluenceGetCmd)
	confluenceCmd.AddCommand(confluenceCreateCmd)
}
