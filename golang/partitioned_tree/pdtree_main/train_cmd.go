package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/pdt"
	"go.uber.org/zap"
)

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	var srcConfig string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Grow a tree from partitioned data",
		Long:  `Grow a classification or regression tree from the partitions listed in a YAML config and store the model`,
		Run: func(cmd *cobra.Command, args []string) {
			logger := newLogger(rootConfig)
			defer logger.Sync()

			var config TrainConfig
			if err := decodeConfig(srcConfig, &config); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if err := train(config, logger); err != nil {
				logger.Error("train failed", zap.Error(err))
				os.Exit(2)
			}
		},
	}
	cmd.Flags().StringVarP(&srcConfig, "config", "c", "", "path to a YAML train config (required)")
	cmd.MarkFlagRequired("config")
	return cmd
}

func train(config TrainConfig, logger *zap.Logger) error {
	if err := config.ModelLocation.Validate(); err != nil {
		return err
	}
	dataset, err := config.LoadDataset()
	if err != nil {
		return err
	}
	params := config.Params()
	params.Logger = logger

	var (
		root    pdt.Node
		classes []float64
	)
	switch config.Task {
	case pdt.KindClassification:
		if len(params.Classes) == 0 {
			params.Classes = pdt.CollectClasses(dataset)
		}
		classes = params.Classes
		root, err = pdt.NewClassifier(params).Fit(dataset)
	case pdt.KindRegression:
		root, err = pdt.NewRegressor(params).Fit(dataset)
	default:
		return fmt.Errorf("unknown task %q, expected %s or %s", config.Task, pdt.KindClassification, pdt.KindRegression)
	}
	if err != nil {
		return err
	}

	logger.Info("tree grown", zap.Int("depth", pdt.Depth(root)), zap.Int("leaves", pdt.Leaves(root)))
	return config.ModelLocation.Save(pdt.NewModel(config.Task, classes, dataset.Cols(), root))
}
