package app

import (
	"context"
	"time"

	"github.com/gaborage/mcpanel/logger"
)

// DefaultCredentialsTimeout bounds the startup credential check.
const DefaultCredentialsTimeout = 2 * time.Minute

// CredentialsModule checks the configured tokens against each upstream when
// it is registered. Rejected credentials are logged, or returned from Init
// when Strict is set.
type CredentialsModule struct {
	Timeout time.Duration
	Strict  bool

	log      logger.Logger
	verified map[string]bool
}

type credentialCheck struct {
	service string
	verify  func(context.Context) error
}

// NewCredentialsModule creates a non-strict module with the default timeout.
func NewCredentialsModule() *CredentialsModule {
	return &CredentialsModule{Timeout: DefaultCredentialsTimeout}
}

func (m *CredentialsModule) Name() string { return "credentials" }

func (m *CredentialsModule) DescribeModule() ModuleDescriptor {
	return ModuleDescriptor{Description: "Verifies upstream API credentials at startup"}
}

func (m *CredentialsModule) Init(deps *ModuleDeps) error {
	m.log = deps.Logger
	m.verified = make(map[string]bool)

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultCredentialsTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var checks []credentialCheck
	if deps.Modrinth != nil && deps.Config.Modrinth.Token != "" {
		checks = append(checks, credentialCheck{"modrinth", deps.Modrinth.VerifyCredentials})
	}
	if deps.Pterodactyl != nil {
		checks = append(checks, credentialCheck{"pterodactyl", deps.Pterodactyl.VerifyCredentials})
	}

	for _, c := range checks {
		err := c.verify(ctx)
		m.verified[c.service] = err == nil
		if err == nil {
			m.log.Info().Str("service", c.service).Msg("Credentials verified")
			continue
		}
		if m.Strict {
			return err
		}
		m.log.Warn().Err(err).Str("service", c.service).Msg("Credentials rejected")
	}
	return nil
}

// Verified reports whether service accepted its credentials during Init.
func (m *CredentialsModule) Verified(service string) bool {
	return m.verified[service]
}

func (m *CredentialsModule) Shutdown() error { return nil }
