package main

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"myejbclient/adapters/yamlconfig"
	"myejbclient/domain"
	"myejbclient/service"
)

const (
	defaultWarmup         = 10 * time.Second
	defaultClientNodeName = "client"
)

// Config is the client configuration: where the configured connections come from and the discovery
// budgets. Nodes from YAML, discoverer URLs (DiscovererHTTP) and REDIS_ADDR (announced nodes) are all
// node sources; at least one source is required.
type Config struct {
	ClientNode  string
	Nodes       []domain.NodeInfo
	Discoverers []string
	RedisAddr   string
	Client      service.ClientConfig
	Warmup      time.Duration
}

type yamlConfig struct {
	ClientNode           string               `yaml:"client_node"`
	LocalIP              string               `yaml:"local_ip"`
	Nodes                []yamlconfig.Node    `yaml:"nodes"`
	Discoverers          []string             `yaml:"discoverers"`
	Discovery            yamlconfig.Discovery `yaml:"discovery"`
	WatchRetryIntervalMs *int                 `yaml:"watch_retry_interval_ms"`
	RefreshIntervalMs    *int                 `yaml:"refresh_interval_ms"`
	WarmupMs             *int                 `yaml:"warmup_ms"`
}

// LoadConfig reads the client YAML at path (CONFIG_PATH when path is empty) and applies env overrides
// (REDIS_ADDR and the discovery budgets).
//
// Returns: (*Config, nil); (nil, error) on read or parse error, invalid nodes, local_ip or discoverer URL,
// invalid budgets, or no node source at all.
//
// Called from the root command before any subcommand runs.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := yamlconfig.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	var raw yamlConfig
	if err := yamlconfig.Load(path, &raw); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	nodes, err := yamlconfig.ToNodeInfos(raw.Nodes)
	if err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}
	discoverers := make([]string, 0, len(raw.Discoverers))
	for _, d := range raw.Discoverers {
		d = strings.TrimRight(strings.TrimSpace(d), "/")
		u, err := url.Parse(d)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("discoverers: %q is not an http(s) URL", d)
		}
		discoverers = append(discoverers, d)
	}
	discovery, err := raw.Discovery.DiscoveryConfig()
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	client := service.DefaultClientConfig()
	client.Discovery = discovery
	client.WatchRetryInterval = yamlconfig.Ms(raw.WatchRetryIntervalMs, service.DefaultWatchRetryInterval)
	client.RefreshInterval = yamlconfig.Ms(raw.RefreshIntervalMs, 0)
	if client.WatchRetryInterval <= 0 || client.RefreshInterval < 0 {
		return nil, fmt.Errorf("watch_retry_interval_ms must be positive and refresh_interval_ms not negative")
	}
	if s := strings.TrimSpace(raw.LocalIP); s != "" {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("local_ip: invalid address %q", s)
		}
		client.LocalIP = ip
	}
	redisAddr := strings.TrimSpace(os.Getenv(yamlconfig.EnvRedisAddr))
	if len(nodes) == 0 && len(discoverers) == 0 && redisAddr == "" {
		return nil, fmt.Errorf("no node source: set nodes, discoverers or %s", yamlconfig.EnvRedisAddr)
	}
	name := strings.TrimSpace(raw.ClientNode)
	if name == "" {
		name = defaultClientNodeName
	}
	return &Config{
		ClientNode:  name,
		Nodes:       nodes,
		Discoverers: discoverers,
		RedisAddr:   redisAddr,
		Client:      client,
		Warmup:      yamlconfig.Ms(raw.WarmupMs, defaultWarmup),
	}, nil
}
