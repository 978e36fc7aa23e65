package worker

import (
	"fmt"
	"os"

	kredis "github.com/savr-app/savr/pkg/conn/redis"
	"github.com/savr-app/savr/pkg/conn/storage"
	"github.com/savr-app/savr/pkg/embedding"
	"github.com/savr-app/savr/pkg/formalize"
	"gopkg.in/yaml.v3"
)

// WorkerConfig is the configuration of the background task worker.
type WorkerConfig struct {
	// DBURI is the connection string for postgres.
	DBURI string `yaml:"database"`

	Redis kredis.Config `yaml:"redis"`

	Storage storage.Config `yaml:"storage"`

	Embedding embedding.Config `yaml:"embedding"`

	Gemini formalize.Config `yaml:"gemini"`
}

func (c *WorkerConfig) Validate() error {
	if c.DBURI == "" {
		return fmt.Errorf("config: database is required")
	}
	return nil
}

func LoadWorkerConfig(filepath string) (*WorkerConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*WorkerConfig, error) {
	var out WorkerConfig
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
