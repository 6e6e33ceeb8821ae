// Package yamlconfig holds the YAML and environment parsing shared by cmd/node and cmd/client.
package yamlconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"myejbclient/domain"

	"gopkg.in/yaml.v3"
)

// Env variable names read by both binaries.
const (
	EnvConfigPath            = "CONFIG_PATH"
	EnvRedisAddr             = "REDIS_ADDR"
	EnvDiscoveryTimeoutMs    = "DISCOVERY_TIMEOUT_MS"
	EnvAdditionalNodeTimeout = "DISCOVERY_ADDITIONAL_NODE_TIMEOUT_MS"
	EnvConnectTimeoutMs      = "CONNECT_TIMEOUT_MS"
)

// Mapping is one destination of a node in YAML.
type Mapping struct {
	DestHost    string `yaml:"dest_host"`
	DestPort    int    `yaml:"dest_port"`
	SourceIP    string `yaml:"source_ip"`
	NetmaskBits *int   `yaml:"netmask_bits"`
}

// Node is a node entry in YAML: name and its mappings.
type Node struct {
	Name     string    `yaml:"name"`
	Mappings []Mapping `yaml:"mappings"`
}

// Discovery holds the optional discovery budgets in YAML (milliseconds).
type Discovery struct {
	TimeoutMs               *int `yaml:"timeout_ms"`
	AdditionalNodeTimeoutMs *int `yaml:"additional_node_timeout_ms"`
	ConnectTimeoutMs        *int `yaml:"connect_timeout_ms"`
}

// Module names a deployment in YAML.
type Module struct {
	AppName      string `yaml:"app_name"`
	ModuleName   string `yaml:"module_name"`
	DistinctName string `yaml:"distinct_name"`
}

// ConfigPath returns CONFIG_PATH made absolute.
//
// Returns: error when CONFIG_PATH is unset or blank.
func ConfigPath() (string, error) {
	configPath := strings.TrimSpace(os.Getenv(EnvConfigPath))
	if configPath == "" {
		return "", fmt.Errorf("%s is required", EnvConfigPath)
	}
	if filepath.IsAbs(configPath) {
		return configPath, nil
	}
	return filepath.Abs(configPath)
}

// Load reads the YAML file at path into out. Unknown keys are rejected so typos surface at startup;
// an empty file leaves out untouched.
func Load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ToNodeInfo validates and converts a YAML node.
//
// Returns: error when the name is empty, no mapping is given, a port is outside 1-65535 or a
// source_ip does not parse. netmask_bits defaults to the full address length (exact source match).
func (n Node) ToNodeInfo() (domain.NodeInfo, error) {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return domain.NodeInfo{}, fmt.Errorf("node name is required")
	}
	if len(n.Mappings) == 0 {
		return domain.NodeInfo{}, fmt.Errorf("node %s: at least one mapping is required", name)
	}
	out := domain.NodeInfo{Name: name, Mappings: make([]domain.MappingInfo, 0, len(n.Mappings))}
	for i, m := range n.Mappings {
		host := strings.TrimSpace(m.DestHost)
		if host == "" {
			return domain.NodeInfo{}, fmt.Errorf("node %s: mapping %d: dest_host is required", name, i)
		}
		if m.DestPort <= 0 || m.DestPort > 65535 {
			return domain.NodeInfo{}, fmt.Errorf("node %s: mapping %d: dest_port must be 1-65535, got %d", name, i, m.DestPort)
		}
		mi := domain.MappingInfo{DestHost: host, DestPort: m.DestPort}
		if src := strings.TrimSpace(m.SourceIP); src != "" {
			ip := net.ParseIP(src)
			if ip == nil {
				return domain.NodeInfo{}, fmt.Errorf("node %s: mapping %d: invalid source_ip %q", name, i, src)
			}
			if v4 := ip.To4(); v4 != nil {
				ip = v4
			}
			mi.SourceIP = ip
			mi.NetmaskBits = len(ip) * 8
			if m.NetmaskBits != nil {
				if *m.NetmaskBits < 0 || *m.NetmaskBits > len(ip)*8 {
					return domain.NodeInfo{}, fmt.Errorf("node %s: mapping %d: netmask_bits must be 0-%d", name, i, len(ip)*8)
				}
				mi.NetmaskBits = *m.NetmaskBits
			}
		}
		out.Mappings = append(out.Mappings, mi)
	}
	return out, nil
}

// ToNodeInfos converts a node list; names must be unique.
func ToNodeInfos(nodes []Node) ([]domain.NodeInfo, error) {
	out := make([]domain.NodeInfo, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		info, err := n.ToNodeInfo()
		if err != nil {
			return nil, err
		}
		if seen[info.Name] {
			return nil, fmt.Errorf("node %s is listed twice", info.Name)
		}
		seen[info.Name] = true
		out = append(out, info)
	}
	return out, nil
}

// ToModuleIdentifier converts a YAML module; module_name is required.
func (m Module) ToModuleIdentifier() (domain.ModuleIdentifier, error) {
	id := domain.ModuleIdentifier{
		AppName:      strings.TrimSpace(m.AppName),
		ModuleName:   strings.TrimSpace(m.ModuleName),
		DistinctName: strings.TrimSpace(m.DistinctName),
	}
	if id.ModuleName == "" {
		return domain.ModuleIdentifier{}, fmt.Errorf("module_name is required")
	}
	return id, nil
}

// DiscoveryConfig starts from the defaults, applies the YAML budgets and then the env overrides
// (DISCOVERY_TIMEOUT_MS, DISCOVERY_ADDITIONAL_NODE_TIMEOUT_MS, CONNECT_TIMEOUT_MS).
//
// Returns: error on an unparsable env value or budgets rejected by domain.DiscoveryConfig.Validate.
func (d Discovery) DiscoveryConfig() (domain.DiscoveryConfig, error) {
	cfg := domain.DefaultDiscoveryConfig()
	apply := func(dst *time.Duration, yamlMs *int, env string) error {
		if yamlMs != nil {
			*dst = time.Duration(*yamlMs) * time.Millisecond
		}
		v, ok, err := EnvMs(env)
		if err != nil {
			return err
		}
		if ok {
			*dst = v
		}
		return nil
	}
	if err := apply(&cfg.Timeout, d.TimeoutMs, EnvDiscoveryTimeoutMs); err != nil {
		return cfg, err
	}
	if err := apply(&cfg.AdditionalNodeTimeout, d.AdditionalNodeTimeoutMs, EnvAdditionalNodeTimeout); err != nil {
		return cfg, err
	}
	if err := apply(&cfg.ConnectTimeout, d.ConnectTimeoutMs, EnvConnectTimeoutMs); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// EnvPort reads a port from env name.
//
// Returns: (0, nil) when unset and not required; error when required and unset or outside 1-65535.
func EnvPort(name string, required bool) (int, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		if required {
			return 0, fmt.Errorf("%s must be a valid port (1-65535)", name)
		}
		return 0, nil
	}
	port, err := strconv.Atoi(s)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be 1-65535, got %q", name, s)
	}
	return port, nil
}

// EnvMs reads a non-negative millisecond count from env name.
//
// Returns: (d, true, nil) when set; (0, false, nil) when unset; error when not a non-negative integer.
func EnvMs(name string) (time.Duration, bool, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return 0, false, nil
	}
	ms, err := strconv.Atoi(s)
	if err != nil || ms < 0 {
		return 0, false, fmt.Errorf("%s must be a non-negative integer (ms), got %q", name, s)
	}
	return time.Duration(ms) * time.Millisecond, true, nil
}

// Ms converts an optional YAML millisecond value, falling back to def.
func Ms(v *int, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	return time.Duration(*v) * time.Millisecond
}
