package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/pdt"
	"go.uber.org/zap"
)

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	var srcConfig string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict every row of a feature matrix",
		Long:  `Load a model, predict the rows of an npy feature matrix and write the predictions as an npy column`,
		Run: func(cmd *cobra.Command, args []string) {
			logger := newLogger(rootConfig)
			defer logger.Sync()

			var config PredictConfig
			if err := decodeConfig(srcConfig, &config); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if err := predict(config, logger); err != nil {
				logger.Error("predict failed", zap.Error(err))
				os.Exit(2)
			}
		},
	}
	cmd.Flags().StringVarP(&srcConfig, "config", "c", "", "path to a YAML predict config (required)")
	cmd.MarkFlagRequired("config")
	return cmd
}

func predict(config PredictConfig, logger *zap.Logger) error {
	if err := config.ModelLocation.Validate(); err != nil {
		return err
	}
	model, err := config.ModelLocation.Load()
	if err != nil {
		return err
	}
	root, err := model.Root()
	if err != nil {
		return err
	}

	features, err := pdt.ReadNpy(config.FileNameFeatures)
	if err != nil {
		return err
	}
	if err := model.CheckFeatures(features); err != nil {
		return fmt.Errorf("%s: %w", config.FileNameFeatures, err)
	}
	prediction := pdt.PredictDense(root, features)
	h, _ := prediction.Dims()
	logger.Info("predicted", zap.Int("rows", h), zap.String("target", config.FileNameTarget))
	return pdt.WriteNpy(config.FileNameTarget, prediction)
}
