package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/service/httpapi"
)

// newDecideCmd creates the decide command
func newDecideCmd() *cobra.Command {
	var responder string
	cmd := &cobra.Command{
		Use:   "decide <correlation-id> <approve|reject>",
		Short: "Resolve a pending approval request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			correlationID := args[0]
			var option string
			switch strings.ToLower(args[1]) {
			case "approve", "approved":
				option = approval.OptionApprove
			case "reject", "rejected":
				option = approval.OptionReject
			default:
				return fmt.Errorf("unsupported verdict %q: expected approve or reject", args[1])
			}

			client := httpapi.NewClient(baseURL)
			decision, err := client.Decide(ctx, correlationID, &approval.Callback{
				SelectedOption: option,
				ResponderEmail: responder,
			})
			if err != nil {
				return fmt.Errorf("decide %s: %w", correlationID, err)
			}

			if decision.Status == approval.StatusApproved {
				color.Green("✓ %s approved", correlationID)
			} else {
				color.Red("✗ %s rejected", correlationID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&responder, "as", "", "responder email recorded with the decision")
	return cmd
}
