// vnaug generates perturbed variants of Vietnamese sentences, as an HTTP service or from the command line.
package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/gomlx/go-vnaug/engine"
	"github.com/gomlx/go-vnaug/internal/config"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by all commands.
type globalFlags struct {
	configPath string
	seed       uint64
	klogFlags  *flag.FlagSet
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{klogFlags: flag.NewFlagSet("klog", flag.ContinueOnError)}
	klog.InitFlags(g.klogFlags)

	root := &cobra.Command{
		Use:   "vnaug",
		Short: "Vietnamese text augmentation",
		Long: `vnaug generates perturbed variants of Vietnamese sentences: typos, accent and spelling noise,
word noise, blanks, synonyms, back-translation, dependency tree pruning, and pipelines of these.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML configuration file, overridden by VNAUG_* environment variables")
	root.PersistentFlags().Uint64Var(&g.seed, "seed", 0, "random seed, 0 for a random one")
	root.PersistentFlags().AddGoFlagSet(g.klogFlags)

	root.AddCommand(
		newServeCmd(g),
		newAugmentCmd(g),
		newPipelineCmd(g),
		newBatchCmd(g),
		newConvertCmd(),
	)
	return root
}

// config loads the configuration, raising the log verbosity in debug mode.
func (g *globalFlags) config() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if cfg.Debug {
		if err := g.klogFlags.Set("v", "2"); err != nil {
			klog.Warningf("failed to raise verbosity: %v", err)
		}
	}
	return cfg, nil
}

// engine returns the process Engine, built on first use.
func (g *globalFlags) engine(ctx context.Context) (*engine.Engine, config.Config, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, cfg, err
	}
	e, err := engine.Global(func() (*engine.Engine, error) { return engine.New(ctx, cfg) })
	return e, cfg, err
}

// rand returns a generator seeded with --seed, or randomly.
func (g *globalFlags) rand() *rand.Rand {
	seed := g.seed
	if seed == 0 {
		seed = rand.Uint64()
		klog.V(1).Infof("random seed: %d", seed)
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
