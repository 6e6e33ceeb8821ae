package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"myejbclient/adapters"
	"myejbclient/adapters/grpcnode"
	"myejbclient/adapters/myredis"
	"myejbclient/domain"
	"myejbclient/interfaces"
	"myejbclient/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

// errFailedOutcome makes the process exit non-zero after an exception outcome was printed.
var errFailedOutcome = errors.New("invocation failed")

type rootOptions struct {
	configPath string
	verbose    bool
}

type invokeOptions struct {
	bean     string
	method   string
	types    []string
	affinity string
	oneWay   bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Cluster-aware remote invocation client",
		Long: `Invokes bean methods on server nodes. Nodes are taken from the client YAML
(nodes, discoverers) and from REDIS_ADDR; cluster members are learned from the nodes themselves.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVarP(&root.configPath, "config", "c", "", "client YAML (defaults to $CONFIG_PATH)")
	cmd.PersistentFlags().BoolVarP(&root.verbose, "verbose", "v", false, "log discovery and routing decisions")

	cmd.AddCommand(newInvokeCmd(root), newOpenSessionCmd(root), newTopologyCmd(root))
	return cmd
}

func newInvokeCmd(root *rootOptions) *cobra.Command {
	opts := &invokeOptions{}
	cmd := &cobra.Command{
		Use:   "invoke [args...]",
		Short: "Invoke one method and print its outcome",
		Example: `  client invoke --bean app/demo/Echo --method echo hello
  client invoke --bean app/demo/Echo --method sleep --types long 500 --affinity cluster:ejb
  client invoke --bean app/demo/Counter --method next --affinity 'session:<id>@cluster:ejb'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bean, err := parseBean(opts.bean)
			if err != nil {
				return err
			}
			affinity, err := domain.ParseAffinity(opts.affinity)
			if err != nil {
				return err
			}
			types, params, err := parseParams(opts.types, args)
			if err != nil {
				return err
			}
			req := domain.InvocationRequest{
				Bean:     bean,
				Method:   domain.MethodLocator{Name: opts.method, ParamTypes: types},
				Affinity: affinity,
				Params:   params,
				OneWay:   opts.oneWay,
			}
			return withClient(cmd, root, bean.Module, func(ctx context.Context, c *service.ClientContext) error {
				start := time.Now()
				outcome := c.Invoke(ctx, req)
				printOutcome(cmd.OutOrStdout(), outcome, time.Since(start))
				if outcome.Kind != domain.OutcomeResult {
					return errFailedOutcome
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.bean, "bean", "b", "", "bean as [app/]module[/distinct]/Bean")
	cmd.Flags().StringVarP(&opts.method, "method", "m", "", "method name")
	cmd.Flags().StringSliceVarP(&opts.types, "types", "t", nil, "parameter types (comma-separated); untyped arguments are strings")
	cmd.Flags().StringVarP(&opts.affinity, "affinity", "a", "none", "none | node:<name> | cluster:<name> | session:<id>@<target>")
	cmd.Flags().BoolVar(&opts.oneWay, "one-way", false, "do not wait for the method to run")
	_ = cmd.MarkFlagRequired("bean")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

func newOpenSessionCmd(root *rootOptions) *cobra.Command {
	var beanFlag, affinityFlag string
	cmd := &cobra.Command{
		Use:   "open-session",
		Short: "Open a session on a stateful bean and print its affinity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bean, err := parseBean(beanFlag)
			if err != nil {
				return err
			}
			affinity, err := domain.ParseAffinity(affinityFlag)
			if err != nil {
				return err
			}
			return withClient(cmd, root, bean.Module, func(ctx context.Context, c *service.ClientContext) error {
				start := time.Now()
				s, err := c.OpenSession(ctx, bean, affinity)
				if err != nil {
					printOutcome(cmd.OutOrStdout(), domain.Outcome{Kind: domain.OutcomeException, Err: err}, time.Since(start))
					return errFailedOutcome
				}
				printOutcome(cmd.OutOrStdout(), domain.Outcome{Kind: domain.OutcomeResult, Session: &s}, time.Since(start))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&beanFlag, "bean", "b", "", "stateful bean as [app/]module[/distinct]/Bean")
	cmd.Flags().StringVarP(&affinityFlag, "affinity", "a", "none", "where to open the session")
	_ = cmd.MarkFlagRequired("bean")
	return cmd
}

func newTopologyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Print the clusters and deployments learned from the configured nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, domain.ModuleIdentifier{}, func(ctx context.Context, c *service.ClientContext) error {
				printTopology(cmd.OutOrStdout(), c.Topology(), c.Deployments())
				return nil
			})
		},
	}
}

// withClient loads the config, starts a client context and waits up to the warm-up time for a node
// to report module (any module when module is zero) before running fn.
func withClient(cmd *cobra.Command, root *rootOptions, module domain.ModuleIdentifier, fn func(ctx context.Context, c *service.ClientContext) error) error {
	cfg, err := LoadConfig(root.configPath)
	if err != nil {
		return err
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(cmd.ErrOrStderr()))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	if root.verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowWarn())
	}

	sources, closeSources, err := nodeSources(cfg)
	if err != nil {
		return err
	}
	defer closeSources()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c := service.NewClientContext(cfg.Client, grpcnode.NewConnector(cfg.ClientNode, logger), sources, logger)
	defer c.Close()
	if err := c.Start(ctx); err != nil {
		return err
	}
	if !waitForModule(ctx, c, module, cfg.Warmup) {
		level.Warn(logger).Log("msg", "no node reported the module within the warm-up time", "module", module.String(), "warmup", cfg.Warmup)
	}
	return fn(ctx, c)
}

func nodeSources(cfg *Config) ([]interfaces.NodeSource, func(), error) {
	var sources []interfaces.NodeSource
	if len(cfg.Nodes) > 0 {
		sources = append(sources, service.NewStaticNodeSource(cfg.Nodes))
	}
	httpClient := &http.Client{Timeout: 10 * time.Second}
	for _, url := range cfg.Discoverers {
		sources = append(sources, adapters.DiscovererHTTP(url, httpClient))
	}
	closeFn := func() {}
	if cfg.RedisAddr != "" {
		client, err := myredis.NewRedisUniversalClient(cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, service.NewCacheNodeSource(myredis.NewInstanceCache(client)))
		closeFn = func() { _ = client.Close() }
	}
	return sources, closeFn, nil
}

// moduleWaiter signals once a node reports the awaited module.
type moduleWaiter struct {
	module domain.ModuleIdentifier
	any    bool
	seen   chan struct{}
	once   sync.Once
}

func (w *moduleWaiter) ModuleAvailable(_ string, modules []domain.ModuleIdentifier) {
	for _, m := range modules {
		if w.any || m == w.module {
			w.once.Do(func() { close(w.seen) })
			return
		}
	}
}

func (w *moduleWaiter) ModuleUnavailable(string, []domain.ModuleIdentifier) {}

// waitForModule reports whether a node reported module before warmup passed.
func waitForModule(ctx context.Context, c *service.ClientContext, module domain.ModuleIdentifier, warmup time.Duration) bool {
	w := &moduleWaiter{module: module, any: module == (domain.ModuleIdentifier{}), seen: make(chan struct{})}
	handle := c.RegisterModuleAvailabilityListener(w)
	defer c.Unregister(handle)
	timer := time.NewTimer(warmup)
	defer timer.Stop()
	select {
	case <-w.seen:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func printOutcome(out io.Writer, o domain.Outcome, elapsed time.Duration) {
	fmt.Fprintf(out, "outcome: %s\n", o.Kind)
	switch o.Kind {
	case domain.OutcomeResult:
		if o.Value != nil {
			fmt.Fprintf(out, "value: %v\n", o.Value)
		}
	case domain.OutcomeException:
		fmt.Fprintf(out, "error: %v\n", o.Err)
	}
	if o.Node != "" {
		fmt.Fprintf(out, "node: %s\n", o.Node)
	}
	if o.Session != nil {
		fmt.Fprintf(out, "session: %s\n", o.Session.ID)
		fmt.Fprintf(out, "affinity: %s\n", o.Session.Affinity)
	}
	fmt.Fprintf(out, "elapsed: %s\n", elapsed.Round(time.Millisecond))
}

func printTopology(out io.Writer, t domain.Topology, deployments []domain.NodeDeployments) {
	fmt.Fprintf(out, "topology version %d\n", t.Version)
	for _, c := range t.Clusters {
		fmt.Fprintf(out, "cluster %s: %s\n", c.Name, strings.Join(c.NodeNames(), ", "))
	}
	for _, nd := range deployments {
		modules := make([]string, 0, len(nd.Deployments))
		for _, d := range nd.Deployments {
			modules = append(modules, d.Module.String())
		}
		fmt.Fprintf(out, "node %s: %s\n", nd.Node, strings.Join(modules, ", "))
	}
}
