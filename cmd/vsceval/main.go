// Command vsceval evaluates video-similarity descriptor submissions:
// it searches query descriptors against a reference set under a global
// result budget and scores the candidates with micro average precision.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsceval/vsceval"
	"github.com/vsceval/vsceval/dataset"
	"github.com/vsceval/vsceval/distance"
	"github.com/vsceval/vsceval/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "vsceval",
		Short:         "Video-similarity descriptor submission evaluator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional YAML config file")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newValidateCmd())
	return rootCmd
}

// initConfig wires viper: flag values are the defaults, overridable via
// VSCEVAL_* environment variables or a YAML config file.
func initConfig(cmd *cobra.Command, configPath string) error {
	viper.SetEnvPrefix("VSCEVAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	return viper.BindPFlags(cmd.Flags())
}

func newScoreCmd() *cobra.Command {
	var (
		queryPath         string
		refPath           string
		groundTruthPath   string
		subsetPath        string
		metricName        string
		augmentedL2       bool
		resultsPerRef     int
		requiredPrecision float64
		workers           int
		verbose           bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Search a submission and score it against ground truth",
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := distance.ParseMetric(viper.GetString("metric"))
			if err != nil {
				return err
			}

			logger := vsceval.NoopLogger()
			if verbose {
				logger = vsceval.NewTextLogger(slog.LevelDebug)
			}

			query, err := dataset.LoadDescriptors(queryPath)
			if err != nil {
				return err
			}
			reference, err := dataset.LoadDescriptors(refPath)
			if err != nil {
				return err
			}
			groundTruth, err := dataset.LoadGroundTruth(groundTruthPath)
			if err != nil {
				return err
			}
			if subsetPath != "" {
				subset, err := dataset.LoadQuerySubset(subsetPath)
				if err != nil {
					return err
				}
				groundTruth = groundTruth.FilterQueries(subset)
			}

			opts := []vsceval.Option{
				vsceval.WithMetric(metric),
				vsceval.WithResultsPerReference(viper.GetInt("results-per-ref")),
				vsceval.WithRequiredPrecision(viper.GetFloat64("required-precision")),
				vsceval.WithMaxWorkers(workers),
				vsceval.WithLogger(logger),
			}
			if augmentedL2 {
				opts = append(opts, vsceval.WithAugmentedL2())
			}

			candidates, err := vsceval.Search(context.Background(), query, reference, opts...)
			if err != nil {
				return err
			}

			metrics, err := vsceval.Score(candidates, groundTruth, opts...)
			if err != nil {
				return err
			}

			out, err := json.Marshal(metrics)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&queryPath, "query", "", "Path to query descriptors (query_descriptors.npz)")
	cmd.Flags().StringVar(&refPath, "ref", "", "Path to reference descriptors (reference_descriptors.npz)")
	cmd.Flags().StringVar(&groundTruthPath, "ground-truth", "", "Path to ground truth CSV (optionally .gz)")
	cmd.Flags().StringVar(&subsetPath, "subset", "", "Optional query subset CSV")
	cmd.Flags().StringVar(&metricName, "metric", "ip", "Similarity metric: ip or l2")
	cmd.Flags().BoolVar(&augmentedL2, "augmented-l2", false, "Route inner product through augmented L2 search")
	cmd.Flags().IntVar(&resultsPerRef, "results-per-ref", vsceval.DefaultResultsPerReference, "Global result budget per reference row")
	cmd.Flags().Float64Var(&requiredPrecision, "required-precision", vsceval.DefaultRequiredPrecision, "Precision constraint of the reported operating point")
	cmd.Flags().IntVar(&workers, "workers", 0, "Scan workers per batch (0 = all CPUs)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("ground-truth")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var (
		queryPath string
		refPath   string
		queryMeta string
		refMeta   string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a submission against run metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			sides := []struct {
				name     string
				dataPath string
				metaPath string
			}{
				{"query", queryPath, queryMeta},
				{"reference", refPath, refMeta},
			}

			for _, s := range sides {
				set, err := dataset.LoadDescriptors(s.dataPath)
				if err != nil {
					return err
				}
				meta, err := dataset.LoadMetadata(s.metaPath)
				if err != nil {
					return err
				}
				if err := dataset.Validate(set, meta, s.name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s descriptors ok: %d rows, %d videos\n",
					s.name, set.Len(), countVideos(set.IDs))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&queryPath, "query", "", "Path to query descriptors")
	cmd.Flags().StringVar(&refPath, "ref", "", "Path to reference descriptors")
	cmd.Flags().StringVar(&queryMeta, "query-metadata", "", "Path to query metadata CSV")
	cmd.Flags().StringVar(&refMeta, "ref-metadata", "", "Path to reference metadata CSV")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("query-metadata")
	_ = cmd.MarkFlagRequired("ref-metadata")

	return cmd
}

func countVideos(ids []model.VideoID) int {
	seen := make(map[model.VideoID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
