package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resourcesCmd prints the tenant the identity's token resolves to.
var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Show the Atlassian site the token resolves to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}

		tenant, err := rt.toolset.Tenant(cmd.Context(), rt.identity)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Cloud ID: %s\nURL: %s\n", tenant.ID, tenant.URL)
		if tenant.Name != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Name: %s\n", tenant.Name)
		}
		return nil
	},
}
