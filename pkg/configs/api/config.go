package api

import (
	"fmt"
	"time"

	kredis "github.com/savr-app/savr/pkg/conn/redis"
	"github.com/savr-app/savr/pkg/conn/storage"
	"github.com/savr-app/savr/pkg/domain/auth"
	"github.com/savr-app/savr/pkg/embedding"
	"gopkg.in/yaml.v3"
)

// ApiConfig is the configuration of the API server.
type ApiConfig struct {
	// ServerPort is the port the API server listens on.
	ServerPort string `yaml:"port"`

	// DBURI is the connection string for postgres.
	DBURI string `yaml:"database"`

	Redis kredis.Config `yaml:"redis"`

	Token TokenConfig `yaml:"token"`

	Storage storage.Config `yaml:"storage"`

	Embedding embedding.Config `yaml:"embedding"`
}

// TokenConfig configures the access/refresh token issuer.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c *TokenConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Secret     string `yaml:"secret"`
		AccessTTL  string `yaml:"accessTTL"`
		RefreshTTL string `yaml:"refreshTTL"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Secret = raw.Secret
	c.AccessTTL = auth.DefaultAccessTTL
	c.RefreshTTL = auth.DefaultRefreshTTL
	if raw.AccessTTL != "" {
		d, err := time.ParseDuration(raw.AccessTTL)
		if err != nil {
			return err
		}
		c.AccessTTL = d
	}
	if raw.RefreshTTL != "" {
		d, err := time.ParseDuration(raw.RefreshTTL)
		if err != nil {
			return err
		}
		c.RefreshTTL = d
	}
	return nil
}

func (c *ApiConfig) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("config: port is required")
	}
	if c.DBURI == "" {
		return fmt.Errorf("config: database is required")
	}
	if c.Token.Secret == "" {
		return fmt.Errorf("config: token.secret is required")
	}
	return nil
}
