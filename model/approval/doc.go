// Package approval defines the data model of the human oversight layer:
// the approval request submitted on behalf of a gated operation, the
// terminal decision, the merged audit record and the callback payload
// delivered by the external prompt channel.
package approval
