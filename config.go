package glal

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the usage properties of an application: which backend to
// open and how to set up logging, the window and the swapchain.
type Config struct {
	Backend     string          `yaml:"backend" toml:"backend"`
	Application string          `yaml:"application" toml:"application"`
	Validation  bool            `yaml:"validation" toml:"validation"`
	Lifetime    string          `yaml:"lifetime" toml:"lifetime"`
	Log         LogConfig       `yaml:"log" toml:"log"`
	Window      WindowConfig    `yaml:"window" toml:"window"`
	Swapchain   SwapchainConfig `yaml:"swapchain" toml:"swapchain"`
	Features    FeatureConfig   `yaml:"features" toml:"features"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	// Dir enables per-severity log files in that directory.
	Dir string `yaml:"dir" toml:"dir"`
}

type WindowConfig struct {
	Width     uint32 `yaml:"width" toml:"width"`
	Height    uint32 `yaml:"height" toml:"height"`
	Title     string `yaml:"title" toml:"title"`
	Resizable bool   `yaml:"resizable" toml:"resizable"`
}

type SwapchainConfig struct {
	ImageCount uint32 `yaml:"image_count" toml:"image_count"`
	Format     string `yaml:"format" toml:"format"`
}

type FeatureConfig struct {
	Disable []string `yaml:"disable" toml:"disable"`
}

// DefaultConfig is the configuration of the triangle demo.
func DefaultConfig() Config {
	return Config{
		Backend:     "opengl",
		Application: "glal",
		Lifetime:    "default",
		Log:         LogConfig{Level: "info"},
		Window:      WindowConfig{Width: 800, Height: 600, Title: "glal"},
		Swapchain:   SwapchainConfig{ImageCount: 2, Format: "RGBA8_UNorm"},
	}
}

// LoadConfig reads the file at path over DefaultConfig. The format is
// chosen by extension: .toml for TOML, anything else is YAML.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	cfg, err := ParseConfig(data, format)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes data, "yaml" or "toml", over DefaultConfig and
// validates the result.
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, errors.Wrap(err, "decoding yaml")
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.Wrap(err, "decoding toml")
		}
	default:
		return Config{}, errors.Newf("unknown config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every enumerated field.
func (c Config) Validate() error {
	if c.Backend == "" {
		return errors.New("config: backend is not set")
	}
	if _, err := ParseLifetime(c.Lifetime); err != nil {
		return errors.Wrap(err, "config")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "config")
	}
	if _, err := ParseImageFormat(c.Swapchain.Format); err != nil {
		return errors.Wrap(err, "config")
	}
	if c.Swapchain.ImageCount == 0 {
		return errors.New("config: swapchain image count is zero")
	}
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return errors.Newf("config: window size %dx%d is empty", c.Window.Width, c.Window.Height)
	}
	for _, f := range c.Features.Disable {
		if _, err := ParseDeviceFeature(f); err != nil {
			return errors.Wrap(err, "config")
		}
	}
	return nil
}

// Logger builds the logger described by c.Log.
func (c Config) Logger() (*Logger, error) {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Log.Dir != "" {
		return NewFileLogger(c.Log.Dir, level)
	}
	return NewLogger(os.Stderr, level), nil
}

// InstanceDesc converts c into the descriptor passed to Open.
// c must have been validated.
func (c Config) InstanceDesc(log *Logger) InstanceDesc {
	lifetime, _ := ParseLifetime(c.Lifetime)
	desc := InstanceDesc{
		ApplicationName:  c.Application,
		EnableValidation: c.Validation,
		Lifetime:         lifetime,
		Logger:           log,
	}
	for _, f := range c.Features.Disable {
		feature, _ := ParseDeviceFeature(f)
		desc.DisabledFeatures = append(desc.DisabledFeatures, feature)
	}
	return desc
}

// SwapchainDesc builds the swapchain descriptor for window handle at the
// configured size.
func (c Config) SwapchainDesc(handle interface{}, extent Extent2D) SwapchainDesc {
	format, _ := ParseImageFormat(c.Swapchain.Format)
	return SwapchainDesc{
		NativeWindowHandle: handle,
		Extent:             extent,
		Format:             format,
		ImageCount:         c.Swapchain.ImageCount,
	}
}
