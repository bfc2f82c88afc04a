// Package gate wraps a sensitive operation with a mandatory human sign-off.
// Running a gated operation suspends the caller, dispatches an approval
// prompt and resumes with the operation result on approval or with a refusal
// value on rejection or timeout. The gate fails closed: any infrastructure
// fault short of an invalid request yields the refusal value, never an
// unapproved execution.
package gate
