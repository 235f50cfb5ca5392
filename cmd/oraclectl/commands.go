package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/internal/usecase"
	xhttp "OraclePortfolio/pkg/http"
)

func newClassifyCmd(a *app) *cobra.Command {
	var (
		pairs map[string]string
		mode  string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the macro regime from indicator values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := parseIndicators(pairs)
			if err != nil {
				return err
			}
			res, warnings, err := a.portfolio.ClassifyRaw(raw, mode)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringToStringVarP(&pairs, "indicator", "i", nil, "indicator value as name=value (repeatable)")
	cmd.Flags().StringVar(&mode, "mode", string(models.ModeVoting), "classification mode: voting or matrix")
	return cmd
}

func newMatrixCmd(a *app) *cobra.Command {
	var pmi, elec float64
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Place a PMI / electricity growth reading on the regime matrix",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, _, err := a.portfolio.ClassifyRaw(map[string]float64{
				string(models.IndicatorPMI):               pmi,
				string(models.IndicatorElectricityGrowth): elec,
			}, string(models.ModeMatrix))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Float64Var(&pmi, "pmi", 50, "manufacturing PMI")
	cmd.Flags().Float64Var(&elec, "electricity", 0, "electricity consumption growth, percent")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		p     usecase.AnalyzeParams
		month string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify and allocate for a country using the configured static indicators",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if month != "" {
				m, err := parseMonth(month)
				if err != nil {
					return err
				}
				p.Month = m
			}
			res, err := a.portfolio.Analyze(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&p.Country, "country", "c", "", "ISO-3 country code")
	cmd.Flags().StringVar(&p.RiskProfile, "profile", string(models.RiskModerate), "risk profile")
	cmd.Flags().StringVar(&p.Mode, "mode", string(models.ModeVoting), "classification mode")
	cmd.Flags().StringVar(&month, "month", "", "month used for seasonal adjustment, e.g. 3 or march (default current)")
	cmd.Flags().BoolVar(&p.Raw, "raw", false, "skip seasonal adjustment")
	_ = cmd.MarkFlagRequired("country")
	return cmd
}

func newSeasonalCmd(a *app) *cobra.Command {
	var (
		family  string
		value   float64
		country string
		month   string
		trend   string
		pairs   map[string]string
	)
	cmd := &cobra.Command{
		Use:   "seasonal",
		Short: "Seasonally adjust one reading (--family) or a set of indicators (--indicator)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := parseMonth(month)
			if err != nil {
				return err
			}
			if len(pairs) > 0 {
				raw, err := parseIndicators(pairs)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a.portfolio.AdjustIndicators(raw, country, m))
			}
			if family == "" {
				return fmt.Errorf("either --family or --indicator is required")
			}
			adj, t := a.portfolio.AdjustValue(models.IndicatorFamily(family), value, country, m, models.Trend(trend))
			return printJSON(cmd.OutOrStdout(), struct {
				models.AdjustedValue
				Trend models.Trend `json:"trend,omitempty"`
			}{adj, t})
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "electricity_consumption, pmi_manufacturing, maritime_trade or commodity_prices")
	cmd.Flags().Float64Var(&value, "value", 0, "raw reading")
	cmd.Flags().StringVarP(&country, "country", "c", "", "ISO-3 country code")
	cmd.Flags().StringVar(&month, "month", "", "month as 1-12 or a name such as aug")
	cmd.Flags().StringVar(&trend, "trend", "", "improving, deteriorating or stable")
	cmd.Flags().StringToStringVarP(&pairs, "indicator", "i", nil, "indicator value as name=value (repeatable)")
	return cmd
}

func newAllocateCmd(a *app) *cobra.Command {
	var (
		regimeName string
		profile    string
		country    string
		pairs      map[string]string
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Score an allocation for a regime and risk profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := parseIndicators(pairs)
			if err != nil {
				return err
			}
			res, err := a.portfolio.Allocate(regimeName, profile, raw, country)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&regimeName, "regime", "", "regime, e.g. EXPANSION")
	cmd.Flags().StringVar(&profile, "profile", string(models.RiskModerate), "conservative, moderate or aggressive")
	cmd.Flags().StringVarP(&country, "country", "c", "", "ISO-3 country code")
	cmd.Flags().StringToStringVarP(&pairs, "indicator", "i", nil, "indicator value as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("regime")
	return cmd
}

func newBacktestCmd(a *app) *cobra.Command {
	var (
		input string
		multi bool
	)
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Backtest allocations or indicator periods from a JSON request file",
		Long: `The input file has the same shape as the POST /api/backtest body:
either "allocations" with matching "returns", or "periods" with indicators and returns.
With --multi it has the shape of the POST /api/backtest/multi body instead.
Use "-" to read from stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if multi {
				var req models.MultiCountryBacktestRequest
				if err := readRequest(cmd, input, &req); err != nil {
					return err
				}
				res, err := a.backtest.MultiCountryBacktest(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			}

			var req models.BacktestRequest
			if err := readRequest(cmd, input, &req); err != nil {
				return err
			}
			if len(req.Periods) == 0 && len(req.Allocations) == 0 {
				return fmt.Errorf("invalid backtest request: either periods or allocations is required")
			}
			report, err := a.backtest.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "request file, or - for stdin")
	cmd.Flags().BoolVar(&multi, "multi", false, "backtest several countries, one history each")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// readRequest decodes a JSON request file into req and applies the same
// defaults and validation as the HTTP API.
func readRequest(cmd *cobra.Command, path string, req any) error {
	var err error
	if path == "-" {
		err = json.NewDecoder(cmd.InOrStdin()).Decode(req)
	} else {
		var b []byte
		if b, err = os.ReadFile(path); err == nil {
			err = json.Unmarshal(b, req)
		}
	}
	if err != nil {
		return fmt.Errorf("read backtest request: %w", err)
	}

	if verrs := xhttp.ValidateStruct(context.Background(), req); len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, v := range verrs {
			msgs = append(msgs, v.Message)
		}
		return fmt.Errorf("invalid backtest request: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func newCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List supported countries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), models.SupportedCountries)
		},
	}
}
