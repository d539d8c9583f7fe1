//go:build !integration

package domain

// SeedHardcodedCheckpoints is false when built for integration tests, which
// run fake chains that can't match the mainnet trust anchors.
const SeedHardcodedCheckpoints = true
