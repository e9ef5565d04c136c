package config

import "math"

var Presets = map[string]map[string]*Config{
	"free": {
		"clean": {
			Kind: "free", Seed: 1,
			Oscillator: OscillatorConfig{A0: 1.0, Omega0: 2 * math.Pi, Delta: 0.3, Drive: 1.0},
			Free:       FreeScanConfig{Dt: 0.01, Duration: 10.0, Noise: 0.0},
		},
		"noisy": {
			Kind: "free", Seed: 1,
			Oscillator: OscillatorConfig{A0: 1.0, Omega0: 2 * math.Pi, Delta: 0.3, Drive: 1.0},
			Free:       FreeScanConfig{Dt: 0.01, Duration: 10.0, Noise: 0.05},
		},
		"slow-decay": {
			Kind: "free", Seed: 1,
			Oscillator: OscillatorConfig{A0: 1.0, Omega0: 2 * math.Pi, Delta: 0.05, Drive: 1.0},
			Free:       FreeScanConfig{Dt: 0.01, Duration: 30.0, Noise: 0.02},
		},
		"undamped": {
			Kind: "free", Seed: 1,
			Oscillator: OscillatorConfig{A0: 1.0, Omega0: 2 * math.Pi, Delta: 0.0, Drive: 1.0},
			Free:       FreeScanConfig{Dt: 0.01, Duration: 10.0, Noise: 0.0},
		},
	},
	"driven": {
		"resonance": {
			Kind: "driven", Seed: 1,
			Oscillator: OscillatorConfig{A0: 1.0, Omega0: 2 * math.Pi, Delta: 0.3, Drive: 1.0},
			Driven:     DrivenScanConfig{OmegaMin: 4.0, OmegaMax: 9.0, Steps: 200, NoiseAmp: 0.02, RelAmp: true, NoisePhase: 0.01},
		},
		"wide": {
			Kind: "driven", Seed: 1,
			Oscillator: OscillatorConfig{A0: 1.0, Omega0: 2 * math.Pi, Delta: 0.3, Drive: 1.0},
			Driven:     DrivenScanConfig{OmegaMin: 0.5, OmegaMax: 12.57, Steps: 400, NoiseAmp: 0.001, NoisePhase: 0.01},
		},
		"heavy": {
			Kind: "driven", Seed: 1,
			Oscillator: OscillatorConfig{A0: 1.0, Omega0: 2 * math.Pi, Delta: 1.5, Drive: 1.0},
			Driven:     DrivenScanConfig{OmegaMin: 0.5, OmegaMax: 12.0, Steps: 200, NoiseAmp: 0.02, RelAmp: true, NoisePhase: 0.02},
		},
	},
}

func GetPreset(kind, preset string) *Config {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	cfg, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	return names
}
