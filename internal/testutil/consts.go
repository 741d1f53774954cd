// Package testutil holds helpers shared by package tests.
package testutil

// Upstream fixtures shared by the service client tests.
const (
	TestToken       = "test-token-123"
	TestAgent       = "mcpanel-test/1.0"
	TestProjectSlug = "fabric-api"
	TestServerID    = "1a2b3c4d"
	TestFileName    = "server.properties"
	TestRequestID   = "test-request-123"
)

// TestError is a generic error message for failure scenarios.
const TestError = "test error"
