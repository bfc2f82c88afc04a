package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/viant/oversight/service/httpapi"
)

// newPendingCmd creates the pending command
func newPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List requests awaiting a decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			client := httpapi.NewClient(baseURL)
			pending, err := client.Pending(ctx)
			if err != nil {
				return fmt.Errorf("list pending: %w", err)
			}
			if len(pending) == 0 {
				fmt.Println("No pending approval requests")
				return nil
			}

			for _, request := range pending {
				color.Yellow("%s", request.CorrelationID)
				fmt.Printf("  agent:       %s\n", request.AgentName)
				fmt.Printf("  action:      %s\n", request.ActionDescription)
				fmt.Printf("  approvers:   %s\n", strings.Join(request.ApproverEmails, ", "))
				fmt.Printf("  created:     %s\n", request.CreatedAt.Format(time.RFC3339))
				if request.ExpiresAt != nil {
					fmt.Printf("  expires:     %s\n", request.ExpiresAt.Format(time.RFC3339))
				}
				if len(request.Parameters) > 0 {
					fmt.Printf("  parameters:  %s\n", string(request.Parameters))
				}
			}
			return nil
		},
	}
}
