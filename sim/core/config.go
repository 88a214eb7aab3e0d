/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the root of a YAML scenario file. Time-valued fields are in
// seconds, bit-rates in bits per second, matching the scenario files.
type Config struct {
	Core     CoreConfig     `yaml:"core"`
	Shaper   ShaperConfig   `yaml:"shaper"`
	Fw       FwConfig       `yaml:"fw"`
	Consumer ConsumerConfig `yaml:"consumer"`
	Topology TopologyConfig `yaml:"topology"`
	Workload WorkloadConfig `yaml:"workload"`
}

type CoreConfig struct {
	LogLevel string `yaml:"log_level"`
	Seed     int64  `yaml:"seed"`
	TraceDb  string `yaml:"trace_db"`
}

// ShaperConfig carries the per-face shaper parameters.
type ShaperConfig struct {
	// Size of the shaper interest queue.
	MaxInterest int `yaml:"max_interest"`
	// Headroom in interest shaping to absorb burstiness.
	Headroom float64 `yaml:"headroom"`
	// Interval to update observed incoming interest rate.
	UpdateInterval float64 `yaml:"update_interval"`
	// When to reject/drop an interest (drop_tail/pie/codel).
	QueueMode string `yaml:"queue_mode"`
	// Target queueing delay (for PIE or CoDel).
	DelayTarget float64 `yaml:"delay_target"`
	// Maximum burst allowed before random early drop kicks in (for PIE).
	MaxBurst float64 `yaml:"max_burst"`
	// Interval to observe minimum packet sojourn time (for CoDel).
	DelayObserveInterval float64 `yaml:"delay_observe_interval"`
}

type FwConfig struct {
	Strategy         string  `yaml:"strategy"`
	InterestLifetime float64 `yaml:"interest_lifetime"`
}

type ConsumerConfig struct {
	// Initial interest emission rate in Hz.
	StartFrequency float64 `yaml:"start_frequency"`
	// Rate probing factor in Hz.
	ProbeFactor  float64 `yaml:"probe_factor"`
	InterestSize int     `yaml:"interest_size"`
}

type TopologyConfig struct {
	Nodes []string     `yaml:"nodes"`
	Links []LinkConfig `yaml:"links"`
}

type LinkConfig struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
	// Bit-rate from A to B; reverse defaults to the same.
	BitRate        uint64  `yaml:"bit_rate"`
	BitRateReverse uint64  `yaml:"bit_rate_reverse"`
	Delay          float64 `yaml:"delay"`
}

type TopoRoute struct {
	Node   string `yaml:"node"`
	Prefix string `yaml:"prefix"`
	Via    string `yaml:"via"`
	Rank   int    `yaml:"rank"`
}

type ConsumerInstance struct {
	Node   string  `yaml:"node"`
	Prefix string  `yaml:"prefix"`
	Start  float64 `yaml:"start"`
}

type ProducerInstance struct {
	Node        string  `yaml:"node"`
	Prefix      string  `yaml:"prefix"`
	PayloadSize int     `yaml:"payload_size"`
	ServiceTime float64 `yaml:"service_time"`
}

type WorkloadConfig struct {
	Duration  float64            `yaml:"duration"`
	Routes    []TopoRoute        `yaml:"routes"`
	Consumers []ConsumerInstance `yaml:"consumers"`
	Producers []ProducerInstance `yaml:"producers"`
}

// DefaultConfig returns the documented defaults for every parameter.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			LogLevel: "INFO",
			Seed:     1,
		},
		Shaper: ShaperConfig{
			MaxInterest:          100,
			Headroom:             0.98,
			UpdateInterval:       0.1,
			QueueMode:            "drop_tail",
			DelayTarget:          0.02,
			MaxBurst:             0.1,
			DelayObserveInterval: 0.1,
		},
		Fw: FwConfig{
			Strategy:         "congestion-aware",
			InterestLifetime: 4.0,
		},
		Consumer: ConsumerConfig{
			StartFrequency: 1.0,
			ProbeFactor:    10.0,
			InterestSize:   40,
		},
		Workload: WorkloadConfig{
			Duration: 10.0,
		},
	}
}

// LoadConfig reads a YAML scenario file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

// Seconds converts a seconds-valued config field to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
