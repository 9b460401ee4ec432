// Package identity names the sentinel author used when a commit's
// signature carries neither an email nor a name.
package identity

// Unknown is the author label used in churn aggregates when a commit
// signature has no usable email or name.
const Unknown = "<unmatched>"
