package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/paisatrail/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		layer1         = flag.Int("layer1", cfg.NumLayer1, "number of first-hop mule accounts")
		maxLayer2      = flag.Int("max-layer2", cfg.MaxLayer2, "maximum second-hop accounts per first-hop mule")
		withdrawChance = flag.Float64("withdrawal-chance", cfg.WithdrawalChance, "probability that a mule withdraws cash")
		highChance     = flag.Float64("high-chance", cfg.HighWithdrawalChance, "probability that a withdrawal is above the high threshold")
		repeatChance   = flag.Float64("repeat-chance", cfg.RepeatChance, "probability of a repeat transfer from the victim to the same mule")
		sharedChance   = flag.Float64("shared-chance", cfg.SharedMuleChance, "probability of reusing a second-hop account across branches")
		noise          = flag.Int("noise", cfg.NoiseRows, "number of below-threshold victim payments")
		malformed      = flag.Int("malformed", cfg.MalformedRows, "number of rows with unparsable amounts")
		minAmount      = flag.String("min-amount", cfg.MinAmount.String(), "analysis threshold the ring is planted above")
		highAmount     = flag.String("high-withdrawal", cfg.HighWithdrawal.String(), "high withdrawal threshold")
		plain          = flag.Bool("plain-amounts", !cfg.DecoratedAmounts, "write bare numbers instead of ₹-formatted amounts")
		seed           = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output         = flag.String("out", "data/ring.xlsx", "output file (.csv or .xlsx)")
		writeStdout    = flag.Bool("stdout", false, "write CSV to stdout instead of a file")
	)
	flag.Parse()

	minAmt, err := decimal.NewFromString(*minAmount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -min-amount: %v\n", err)
		os.Exit(2)
	}
	high, err := decimal.NewFromString(*highAmount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -high-withdrawal: %v\n", err)
		os.Exit(2)
	}

	genCfg := generator.Config{
		NumLayer1:            *layer1,
		MaxLayer2:            *maxLayer2,
		WithdrawalChance:     clampProbability(*withdrawChance),
		HighWithdrawalChance: clampProbability(*highChance),
		RepeatChance:         clampProbability(*repeatChance),
		SharedMuleChance:     clampProbability(*sharedChance),
		NoiseRows:            *noise,
		MalformedRows:        *malformed,
		MinAmount:            minAmt,
		HighWithdrawal:       high,
		DecoratedAmounts:     !*plain,
		Seed:                 *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	ds, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.WriteCSV(os.Stdout, ds); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteFile(*output, ds); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d rows for victim %s (%d first-hop mules, %d high withdrawals) into %s\n",
		len(ds.Rows), ds.Expected.Victim, len(ds.Expected.Layer1), ds.Expected.HighWithdrawals, *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
