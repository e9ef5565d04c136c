package config

import (
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phys-praktikum/fplab/internal/dataset"
	"github.com/phys-praktikum/fplab/internal/oscillator"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultNoise    = 0.02
	DefaultOmegaMin = 0.5
	DefaultOmegaMax = 12.0
	DefaultSteps    = 200
	DefaultSeed     = 1
)

type Config struct {
	Kind       string           `yaml:"kind"`
	Seed       int64            `yaml:"seed"`
	Oscillator OscillatorConfig `yaml:"oscillator"`
	Free       FreeScanConfig   `yaml:"free"`
	Driven     DrivenScanConfig `yaml:"driven"`
}

type OscillatorConfig struct {
	A0     float64 `yaml:"a0"`
	Omega0 float64 `yaml:"omega0"`
	Delta  float64 `yaml:"delta"`
	Phi    float64 `yaml:"phi"`
	Drive  float64 `yaml:"drive"`
}

type FreeScanConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Noise    float64 `yaml:"noise"`
}

type DrivenScanConfig struct {
	OmegaMin   float64 `yaml:"omega_min"`
	OmegaMax   float64 `yaml:"omega_max"`
	Steps      int     `yaml:"steps"`
	NoiseAmp   float64 `yaml:"noise_amp"`
	RelAmp     bool    `yaml:"rel_amp"`
	NoisePhase float64 `yaml:"noise_phase"`
}

func DefaultConfig() *Config {
	return &Config{
		Kind: "free",
		Seed: DefaultSeed,
		Oscillator: OscillatorConfig{
			A0:     1.0,
			Omega0: 2 * math.Pi,
			Delta:  0.3,
			Phi:    0.0,
			Drive:  1.0,
		},
		Free: FreeScanConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
			Noise:    DefaultNoise,
		},
		Driven: DrivenScanConfig{
			OmegaMin: DefaultOmegaMin,
			OmegaMax: DefaultOmegaMax,
			Steps:    DefaultSteps,
			NoiseAmp: DefaultNoise,
			RelAmp:   true,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) GetOscillator() oscillator.Oscillator {
	return oscillator.Oscillator{
		A0:     c.Oscillator.A0,
		Omega0: c.Oscillator.Omega0,
		Delta:  c.Oscillator.Delta,
		Phi:    c.Oscillator.Phi,
		Drive:  c.Oscillator.Drive,
	}
}

func (c *Config) GetFreeConfig() dataset.FreeConfig {
	return dataset.FreeConfig{
		Dt:       c.Free.Dt,
		Duration: c.Free.Duration,
		Sigma:    c.Free.Noise,
	}
}

func (c *Config) GetDrivenConfig() dataset.DrivenConfig {
	return dataset.DrivenConfig{
		OmegaMin:   c.Driven.OmegaMin,
		OmegaMax:   c.Driven.OmegaMax,
		Steps:      c.Driven.Steps,
		SigmaAmp:   c.Driven.NoiseAmp,
		RelAmp:     c.Driven.RelAmp,
		SigmaPhase: c.Driven.NoisePhase,
	}
}
