//go:build integration

package domain

const SeedHardcodedCheckpoints = false
