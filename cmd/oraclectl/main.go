package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"OraclePortfolio/internal/repository"
	"OraclePortfolio/internal/services/allocation"
	"OraclePortfolio/internal/services/backtest"
	"OraclePortfolio/internal/services/regime"
	"OraclePortfolio/internal/services/seasonal"
	"OraclePortfolio/internal/usecase"
	"OraclePortfolio/pkg/config"
	applogger "OraclePortfolio/pkg/logger"
	"OraclePortfolio/pkg/metrics"
	"OraclePortfolio/pkg/util"
)

// app holds the offline engine shared by every subcommand.
type app struct {
	configPath string
	verbose    bool

	cfg       *config.Config
	portfolio *usecase.PortfolioUseCase
	backtest  *usecase.BacktestUseCase
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "oraclectl",
		Short: "Macro-regime classification and allocation from the command line",
		Long: `oraclectl runs the regime classifier, allocation scorer, seasonal adjuster
and backtester locally against the engine tables in the config file.
Only the static indicator provider is used; nothing is published.

Examples:
  oraclectl classify --indicator pmi=52.4 --indicator electricity_growth=1.8
  oraclectl allocate --regime EXPANSION --profile aggressive
  oraclectl backtest --input periods.json`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.init() },
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config/config.yaml", "config file; built-in defaults are used when it does not exist")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log engine warnings to stderr")

	root.AddCommand(
		newClassifyCmd(a),
		newMatrixCmd(a),
		newAnalyzeCmd(a),
		newSeasonalCmd(a),
		newAllocateCmd(a),
		newBacktestCmd(a),
		newCountriesCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default()
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	l := applogger.Nop()
	if a.verbose {
		if l, err = applogger.New(&applogger.Config{Level: "warn", Format: "console", Output: "stderr"}); err != nil {
			return err
		}
	}

	rec := metrics.New(prometheus.NewRegistry())
	a.portfolio = usecase.NewPortfolioUseCase(
		repository.NewStaticProvider(cfg.Provider.Static, l),
		regime.New(cfg.Engine),
		allocation.New(cfg.Engine, allocation.WithLogger(l)),
		seasonal.New(cfg.Engine, seasonal.WithLogger(l)),
		repository.NopPublisher{},
		rec,
		l,
	)
	a.backtest = usecase.NewBacktestUseCase(backtest.New(cfg.Engine.Backtest), a.portfolio, nil, rec, l)
	return nil
}

// parseIndicators turns name=value pairs into a raw indicator map.
func parseIndicators(pairs map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for name, raw := range pairs {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", name, err)
		}
		out[strings.ToLower(strings.TrimSpace(name))] = v
	}
	return out, nil
}

func parseMonth(s string) (int, error) {
	m, ok := util.ParseMonth(s)
	if !ok {
		return 0, fmt.Errorf("--month %q: want 1-12 or a month name", s)
	}
	return m, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
