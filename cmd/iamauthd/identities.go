package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	iamauth "github.com/andyvr/iamauth"
)

// staticIdentityProvider serves identities loaded once from the config file.
// Suitable for small deployments and integration environments; production
// installs plug in their own directory-backed provider.
type staticIdentityProvider struct {
	bySubject map[string]iamauth.Identity
}

type identityEntry struct {
	Email        string   `mapstructure:"email"`
	PasswordHash string   `mapstructure:"password_hash"`
	Authorities  []string `mapstructure:"authorities"`
	Disabled     bool     `mapstructure:"disabled"`
	Locked       bool     `mapstructure:"locked"`
}

func identitiesFromConfig(v *viper.Viper) (*staticIdentityProvider, error) {
	var entries []identityEntry
	if err := v.UnmarshalKey("identities", &entries); err != nil {
		return nil, fmt.Errorf("parse identities: %w", err)
	}

	p := &staticIdentityProvider{
		bySubject: make(map[string]iamauth.Identity, len(entries)),
	}
	for i, entry := range entries {
		subject := strings.ToLower(strings.TrimSpace(entry.Email))
		if subject == "" {
			return nil, fmt.Errorf("identities[%d]: email is required", i)
		}
		if entry.PasswordHash == "" {
			return nil, fmt.Errorf("identities[%d]: password_hash is required", i)
		}
		if _, dup := p.bySubject[subject]; dup {
			return nil, fmt.Errorf("identities[%d]: duplicate email %q", i, subject)
		}
		p.bySubject[subject] = iamauth.Identity{
			ID:           subject,
			Subject:      subject,
			PasswordHash: entry.PasswordHash,
			Enabled:      !entry.Disabled,
			Locked:       entry.Locked,
			Authorities:  entry.Authorities,
		}
	}
	return p, nil
}

func (p *staticIdentityProvider) FindBySubject(_ context.Context, subject string) (*iamauth.Identity, error) {
	identity, ok := p.bySubject[strings.ToLower(strings.TrimSpace(subject))]
	if !ok {
		return nil, iamauth.ErrIdentityNotFound
	}
	out := identity
	return &out, nil
}
