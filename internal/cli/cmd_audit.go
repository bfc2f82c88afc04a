package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/service/httpapi"
)

// newAuditCmd creates the audit command
func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			client := httpapi.NewClient(baseURL)
			records, err := client.Audit(ctx)
			if err != nil {
				return fmt.Errorf("list audit records: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("No audit records")
				return nil
			}

			for _, record := range records {
				printStatus(record.Status, record.CorrelationID)
				fmt.Printf("  agent:    %s\n", record.AgentName)
				fmt.Printf("  action:   %s\n", record.ActionDescription)
				if record.Approver != "" {
					fmt.Printf("  approver: %s\n", record.Approver)
				}
				fmt.Printf("  decided:  %s\n", record.DecidedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func printStatus(status approval.Status, correlationID string) {
	switch status {
	case approval.StatusApproved:
		color.Green("✓ %s  %s", status, correlationID)
	case approval.StatusRejected:
		color.Red("✗ %s  %s", status, correlationID)
	default:
		color.Yellow("⏱ %s  %s", status, correlationID)
	}
}
