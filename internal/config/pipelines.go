package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed pipeline_config.yaml
var defaultPipelineConfig []byte

// PipelinesConfiguration holds the configured order of the ingest pipelines.
type PipelinesConfiguration struct {
	// FileIngestPipeline is the ordered list of file module class identifiers.
	FileIngestPipeline []string `yaml:"fileIngestPipeline"`
}

// FileIngestPipelineOrder returns a copy of the configured file module order.
func (c *PipelinesConfiguration) FileIngestPipelineOrder() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.FileIngestPipeline)
}

// DefaultPipelinesYAML returns the built-in pipeline configuration document.
func DefaultPipelinesYAML() []byte {
	return slices.Clone(defaultPipelineConfig)
}

func (c *PipelinesConfiguration) clone() *PipelinesConfiguration {
	return &PipelinesConfiguration{FileIngestPipeline: slices.Clone(c.FileIngestPipeline)}
}

// The process-wide pipeline configuration. It is loaded lazily from the
// built-in default on first access and is read-only for the pipelines.
var (
	pipelinesMu sync.Mutex
	pipelines   *PipelinesConfiguration
)

// Pipelines returns a copy of the process-wide pipeline configuration,
// loading the built-in default on first use.
func Pipelines() *PipelinesConfiguration {
	pipelinesMu.Lock()
	defer pipelinesMu.Unlock()

	if pipelines == nil {
		cfg, err := ParsePipelines(defaultPipelineConfig)
		if err != nil {
			slog.Default().Warn("built-in pipeline configuration is invalid", "error", err)
			cfg = &PipelinesConfiguration{}
		}
		pipelines = cfg
	}
	return pipelines.clone()
}

// ParsePipelines decodes a pipeline configuration document.
// Blank and duplicate entries are dropped; the first occurrence wins.
func ParsePipelines(data []byte) (*PipelinesConfiguration, error) {
	var cfg PipelinesConfiguration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPipelineConfig, err)
	}

	seen := make(map[string]struct{}, len(cfg.FileIngestPipeline))
	order := make([]string, 0, len(cfg.FileIngestPipeline))
	for _, class := range cfg.FileIngestPipeline {
		if class == "" {
			continue
		}
		if _, dup := seen[class]; dup {
			continue
		}
		seen[class] = struct{}{}
		order = append(order, class)
	}
	cfg.FileIngestPipeline = order
	return &cfg, nil
}

// LoadPipelines replaces the process-wide pipeline configuration with the
// contents of the YAML file at path.
func LoadPipelines(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrConfigNotFound
		}
		return err
	}

	cfg, err := ParsePipelines(data)
	if err != nil {
		return err
	}
	SetPipelines(cfg)
	return nil
}

// SetPipelines replaces the process-wide pipeline configuration.
// The configuration is copied; later changes to cfg have no effect.
func SetPipelines(cfg *PipelinesConfiguration) {
	pipelinesMu.Lock()
	defer pipelinesMu.Unlock()

	if cfg == nil {
		pipelines = nil
		return
	}
	pipelines = cfg.clone()
}

// ResetPipelines discards the process-wide pipeline configuration so that
// the next access loads the built-in default again.
func ResetPipelines() {
	SetPipelines(nil)
}
