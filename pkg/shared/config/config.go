package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the global scanforge configuration, loaded from a YAML file and
// normalized by Validate.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	Server     Server     `yaml:"server"`
	Scanforge  Scanforge  `yaml:"scanforge"`
	Executor   Executor   `yaml:"executor"`
	GitClient  GitClient  `yaml:"git_client"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Storage    Storage    `yaml:"storage"`
	Webhook    Webhook    `yaml:"webhook"`
}

type Logger struct {
	Level string `yaml:"level"`
}

type Server struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// Scanforge holds the filesystem layout of the service.
type Scanforge struct {
	UploadFolder      string   `yaml:"upload_folder"`
	ResultsFolder     string   `yaml:"results_folder"`
	StorageFolder     string   `yaml:"storage_folder"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// Executor describes the external scanner toolchain dispatcher.
type Executor struct {
	Path           string        `yaml:"path"`
	SummarizerPath string        `yaml:"summarizer_path"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
}

type GitClient struct {
	Token   string        `yaml:"token"`
	Depth   int           `yaml:"depth"`
	Timeout time.Duration `yaml:"timeout"`
}

type HTTPClient struct {
	Debug            bool            `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

// Storage controls optional mirroring of result artifacts to object storage.
type Storage struct {
	Type     string `yaml:"type"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
}

// Webhook controls the optional scan-completed notification.
type Webhook struct {
	URL string `yaml:"url"`
}

// Load reads the YAML configuration at path. A missing file is not an error;
// Validate fills every field with defaults and environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = "config.yml"
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config %q: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %q: %w", path, err)
	}

	return cfg, nil
}
