package api

import (
	"os"

	"gopkg.in/yaml.v3"
)

func LoadApiConfig(filepath string) (*ApiConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*ApiConfig, error) {
	var out ApiConfig
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
