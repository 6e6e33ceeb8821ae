package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"myejbclient/adapters/yamlconfig"
	"myejbclient/domain"
)

// Env variable names read only by the node.
const (
	envGRPCPort = "SERVICE_PORT_GRPC"
	envHTTPPort = "SERVICE_PORT_HTTP"
)

// Defaults of the node YAML.
const (
	defaultAnnounceTTL = 15 * time.Second
	defaultShutdown    = 5 * time.Second
)

// Config holds the node configuration loaded by LoadConfig from environment variables and the YAML file.
// GRPCPort from SERVICE_PORT_GRPC (required); HTTPPort from SERVICE_PORT_HTTP (0 disables the admin API);
// RedisAddr from REDIS_ADDR ("" disables announcements). Node, Cluster and Module from YAML; Cluster.Name
// is "" for a standalone node, otherwise Cluster.Nodes lists every member including Node.
type Config struct {
	GRPCPort        int
	HTTPPort        int
	RedisAddr       string
	Node            domain.NodeInfo
	Cluster         domain.ClusterInfo
	Module          domain.ModuleIdentifier
	AnnounceTTL     time.Duration
	ShutdownTimeout time.Duration
}

// yamlConfig is the root of the node YAML.
type yamlConfig struct {
	Node              yamlconfig.Node   `yaml:"node"`
	Cluster           yamlCluster       `yaml:"cluster"`
	Module            yamlconfig.Module `yaml:"module"`
	AnnounceTTLMs     *int              `yaml:"announce_ttl_ms"`
	ShutdownTimeoutMs *int              `yaml:"shutdown_timeout_ms"`
}

// yamlCluster names the node's cluster and its other members.
type yamlCluster struct {
	Name    string            `yaml:"name"`
	Members []yamlconfig.Node `yaml:"members"`
}

// LoadConfig builds the node config from env and the YAML at CONFIG_PATH. The node itself is always a
// member of its cluster; listing it among members again is allowed when the entries agree.
//
// Returns: (*Config, nil); (nil, error) on a bad port, missing CONFIG_PATH, YAML read or parse error,
// invalid node or module, members without a cluster name, a member entry contradicting the node, or
// REDIS_ADDR set for a node reachable only through source-constrained mappings.
//
// Called only from main at startup.
func LoadConfig() (*Config, error) {
	grpcPort, err := yamlconfig.EnvPort(envGRPCPort, true)
	if err != nil {
		return nil, err
	}
	httpPort, err := yamlconfig.EnvPort(envHTTPPort, false)
	if err != nil {
		return nil, err
	}
	configPath, err := yamlconfig.ConfigPath()
	if err != nil {
		return nil, err
	}
	var raw yamlConfig
	if err := yamlconfig.Load(configPath, &raw); err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	node, err := raw.Node.ToNodeInfo()
	if err != nil {
		return nil, fmt.Errorf("node: %w", err)
	}
	module, err := raw.Module.ToModuleIdentifier()
	if err != nil {
		return nil, fmt.Errorf("module: %w", err)
	}
	members, err := yamlconfig.ToNodeInfos(raw.Cluster.Members)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	cluster := domain.ClusterInfo{Name: strings.TrimSpace(raw.Cluster.Name)}
	if cluster.Name == "" && len(members) > 0 {
		return nil, fmt.Errorf("cluster: members given without a cluster name")
	}
	if cluster.Name != "" {
		cluster.Nodes = append(cluster.Nodes, node)
		for _, m := range members {
			if m.Name != node.Name {
				cluster.Nodes = append(cluster.Nodes, m)
				continue
			}
			if !reflect.DeepEqual(m, node) {
				return nil, fmt.Errorf("cluster: member %s differs from the node entry", m.Name)
			}
		}
	}

	ttl := yamlconfig.Ms(raw.AnnounceTTLMs, defaultAnnounceTTL)
	if ttl <= 0 {
		return nil, fmt.Errorf("announce_ttl_ms must be positive")
	}
	shutdown := yamlconfig.Ms(raw.ShutdownTimeoutMs, defaultShutdown)
	if shutdown <= 0 {
		return nil, fmt.Errorf("shutdown_timeout_ms must be positive")
	}
	redisAddr := strings.TrimSpace(os.Getenv(yamlconfig.EnvRedisAddr))
	if _, ok := domain.InstanceOf(node, time.Time{}, ttl); redisAddr != "" && !ok {
		return nil, fmt.Errorf("%s is set but node %s has no mapping open to every caller to announce", yamlconfig.EnvRedisAddr, node.Name)
	}
	return &Config{
		GRPCPort:        grpcPort,
		HTTPPort:        httpPort,
		RedisAddr:       redisAddr,
		Node:            node,
		Cluster:         cluster,
		Module:          module,
		AnnounceTTL:     ttl,
		ShutdownTimeout: shutdown,
	}, nil
}
