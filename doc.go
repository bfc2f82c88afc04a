// Package oversight provides a human approval gate for sensitive automated
// actions.
//
// An agent marks an operation as requiring sign-off; running it suspends the
// caller, dispatches a prompt to the configured approvers and resumes with
// the operation result on approval or with a refusal value on rejection or
// timeout. Every terminal verdict leaves an audit record.
//
// The engine executes one lifecycle per request and comes with pluggable
// service layers such as:
//
//   - engine   – lifecycle orchestration and decision collection
//   - gate     – typed operation wrapper with fail-closed semantics
//   - notifier – prompt delivery (in-process feed, webhook)
//   - audit    – trail persistence (memory, file system, sqlite)
//   - httpapi  – HTTP surface plus a client for remote engines
//
// Oversight is designed to be embedded in host applications. End-users
// typically interact via the high-level Service façade exposed by the root
// package:
//
//	srv, _ := oversight.New()
//	refund := oversight.NewGate(srv, gate.Config{
//		AgentName:         "BillingAgent",
//		ActionDescription: "Issue refund",
//		ApproverEmails:    []string{"ops@example.com"},
//		Timeout:           2 * time.Minute,
//	}, "refund refused", issueRefund)
//	out, _ := refund.Run(ctx, input)
//
// For more details see the README and individual sub-packages.
package oversight
