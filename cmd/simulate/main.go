// Command simulate прогоняет движок розыгрыша офлайн и печатает наблюдаемые частоты.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"gacha_backend/internal/config/env"
	"gacha_backend/internal/engine"
	"gacha_backend/internal/model"
)

type options struct {
	configPath string
	batches    int
	batchSize  int
	seed       uint64
	asJSON     bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var opts options
	fs.StringVar(&opts.configPath, "config", "config.yaml", "path to draw config yaml")
	fs.IntVar(&opts.batches, "batches", 100000, "number of batches to draw")
	fs.IntVar(&opts.batchSize, "size", 10, "batch size (1 or the configured batch size)")
	fs.Uint64Var(&opts.seed, "seed", uint64(time.Now().UnixNano()), "rng seed")
	fs.BoolVar(&opts.asJSON, "json", false, "print report as json")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.batches < 1 {
		return opts, fmt.Errorf("batches must be >= 1")
	}
	if opts.batchSize < 1 {
		return opts, fmt.Errorf("size must be >= 1")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}
	cfg, err := env.NewDrawConfigFromYAML(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load draw config: %v\n", err)
		os.Exit(1)
	}

	rep := engine.Simulate(cfg.Draw(), opts.batches, opts.batchSize, engine.NewSeededRNG(opts.seed))
	if err := printReport(os.Stdout, cfg.Draw(), rep, opts); err != nil {
		fmt.Fprintf(os.Stderr, "write report: %v\n", err)
		os.Exit(1)
	}
}

type jsonReport struct {
	Seed         uint64             `json:"seed"`
	Pulls        int                `json:"pulls"`
	Counts       map[string]int     `json:"counts"`
	Rates        map[string]float64 `json:"rates"`
	Expected     map[string]float64 `json:"expected"`
	PityHits     int                `json:"pity_hits"`
	BatchBonuses int                `json:"batch_bonuses"`
	ToTopTier    engine.Percentiles `json:"to_top_tier"`
}

func printReport(w io.Writer, cfg model.DrawConfig, rep engine.SimulationReport, opts options) error {
	if opts.asJSON {
		out := jsonReport{
			Seed:         opts.seed,
			Pulls:        rep.Pulls,
			Counts:       map[string]int{},
			Rates:        map[string]float64{},
			Expected:     map[string]float64{},
			PityHits:     rep.PityHits,
			BatchBonuses: rep.BatchBonuses,
			ToTopTier:    rep.ToTopTier,
		}
		for _, r := range model.Rarities() {
			out.Counts[r.String()] = rep.CountsByRarity[r]
			out.Rates[r.String()] = rep.Rates[r]
			out.Expected[r.String()] = cfg.Probabilities[r]
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "seed\t%d\n", opts.seed)
	fmt.Fprintf(tw, "pulls\t%d\n\n", rep.Pulls)
	fmt.Fprintln(tw, "rarity\tcount\tobserved\tbase")
	for _, r := range model.Rarities() {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\n", r, rep.CountsByRarity[r], rep.Rates[r], cfg.Probabilities[r])
	}
	fmt.Fprintf(tw, "\npity hits\t%d\n", rep.PityHits)
	fmt.Fprintf(tw, "batch bonuses\t%d\n", rep.BatchBonuses)
	p := rep.ToTopTier
	fmt.Fprintf(tw, "pulls to %s\tmean %.1f\tp50 %.0f\tp90 %.0f\tp99 %.0f\tmax %d\n", model.TopRarity, p.Mean, p.P50, p.P90, p.P99, p.Max)
	return tw.Flush()
}
