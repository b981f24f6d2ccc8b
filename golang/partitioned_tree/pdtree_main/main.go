package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

type rootCmdConfig struct {
	verbose bool
	logFile string
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pdtree",
		Short: "pdtree grows decision trees over partitioned data",
		Long:  `A tool to grow classification and regression trees from data split into row partitions, predict with them and draw them`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log every split and leaf")
	rootCmd.PersistentFlags().StringVar(&(config.logFile), "log-file", "", "write logs to this file, rotated by size, instead of stderr")
	rootCmd.AddCommand(versionCmd(), trainCmd(config), predictCmd(config), graphCmd(config))
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("pdtree", version)
		},
	}
}
