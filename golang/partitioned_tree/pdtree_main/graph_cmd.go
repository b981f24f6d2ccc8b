package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/pdt"
	"go.uber.org/zap"
)

func graphCmd(rootConfig *rootCmdConfig) *cobra.Command {
	var srcConfig string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw a model with graphviz",
		Run: func(cmd *cobra.Command, args []string) {
			logger := newLogger(rootConfig)
			defer logger.Sync()

			var config GraphConfig
			if err := decodeConfig(srcConfig, &config); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if err := graph(config, logger); err != nil {
				logger.Error("graph failed", zap.Error(err))
				os.Exit(2)
			}
		},
	}
	cmd.Flags().StringVarP(&srcConfig, "config", "c", "", "path to a YAML graph config (required)")
	cmd.MarkFlagRequired("config")
	return cmd
}

func graph(config GraphConfig, logger *zap.Logger) error {
	if err := config.ModelLocation.Validate(); err != nil {
		return err
	}
	if config.FigureType == "" {
		config.FigureType = "svg"
	}
	model, err := config.ModelLocation.Load()
	if err != nil {
		return err
	}
	root, err := model.Root()
	if err != nil {
		return err
	}
	logger.Info("rendering", zap.String("figure", config.FileNameGraph), zap.Int("nodes", len(model.Nodes)))
	return pdt.RenderTree(root, config.FigureType, config.FileNameGraph)
}
