package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagWorkspace string
	flagVerbose   bool
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:           "sct",
		Short:         "Speech consistency tracker for long manuscripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config yaml (default: $SCT_CONFIG or ~/.config/speech-tracker/config.yaml)")
	root.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "workspace directory (default: ~/SpeechTracker)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newAnalyzeCmd(log))
	root.AddCommand(newCharactersCmd(log))
	root.AddCommand(newCacheGCCmd(log))

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
