package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/facility-sim/facility-sim/sim"
)

// legacyFields is the positional order of the plain-text configuration
// layout: one "label value," entry per line.
var legacyFields = []string{
	"queue_capacity",
	"num_servers",
	"closing_time",
	"avg_service_time",
	"avg_arrival_rate",
	"avg_tolerance",
}

// LoadFacilityConfig reads a facility configuration file. Files ending in
// .yaml or .yml are parsed as YAML with strict field checking; anything else
// is parsed as the legacy text layout. The result is validated.
func LoadFacilityConfig(path string) (sim.FacilityConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.FacilityConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg sim.FacilityConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAMLConfig(data)
	default:
		cfg, err = parseLegacyConfig(data)
	}
	if err != nil {
		return sim.FacilityConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return sim.FacilityConfig{}, err
	}
	return cfg, nil
}

func parseYAMLConfig(data []byte) (sim.FacilityConfig, error) {
	var cfg sim.FacilityConfig
	// typos must cause errors
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return sim.FacilityConfig{}, fmt.Errorf("%w: %w", sim.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// parseLegacyConfig reads six "label value," pairs. Labels are free text and
// ignored; values are taken in legacyFields order.
func parseLegacyConfig(data []byte) (sim.FacilityConfig, error) {
	tokens := strings.Fields(string(data))
	if len(tokens) != 2*len(legacyFields) {
		return sim.FacilityConfig{}, fmt.Errorf("%w: expected %d \"label value,\" entries, got %d tokens",
			sim.ErrInvalidConfig, len(legacyFields), len(tokens))
	}
	values := make([]int64, len(legacyFields))
	for i, name := range legacyFields {
		raw := strings.TrimSuffix(tokens[2*i+1], ",")
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sim.FacilityConfig{}, fmt.Errorf("%w: %s (entry %q): %w", sim.ErrInvalidConfig, name, tokens[2*i], err)
		}
		values[i] = v
	}
	return sim.FacilityConfig{
		QueueCapacity:  values[0],
		NumServers:     values[1],
		ClosingTime:    values[2],
		AvgServiceTime: values[3],
		AvgArrivalRate: values[4],
		AvgTolerance:   values[5],
	}, nil
}
