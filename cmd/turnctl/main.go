// turnctl manages local turn-detection models and runs one-shot predictions
// against them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/videosdk-community/agents-go/pkg/ai/llm"
	"github.com/videosdk-community/agents-go/pkg/turn"
	"github.com/videosdk-community/agents-go/pkg/version"
)

// fileConfig is the optional YAML config (--config). Flags override it.
type fileConfig struct {
	ModelPath string  `yaml:"model_path"`
	Model     string  `yaml:"model"`
	Language  string  `yaml:"language"`
	Threshold float64 `yaml:"threshold"`
	RemoteURL string  `yaml:"remote_url"`
}

var (
	configPath string
	modelPath  string
	modelName  string
	language   string
	threshold  float64
	remoteURL  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "turnctl",
	Short: "Manage and query end-of-turn detection models",
	Long: `turnctl downloads turn-detection model artifacts into the local cache
and runs one-shot end-of-turn predictions for debugging agent pipelines.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return applyConfigFile(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download model artifacts into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		switch turn.Model(modelName) {
		case turn.ModelTurnSense:
			return turn.DownloadTurnSenseModel(ctx, modelPath)
		case turn.ModelBinary:
			return turn.DownloadBinaryModel(ctx, modelPath)
		case turn.ModelNamo:
			return turn.DownloadNamoModel(ctx, modelPath, language)
		case "all":
			if err := turn.DownloadTurnSenseModel(ctx, modelPath); err != nil {
				return err
			}
			if err := turn.DownloadBinaryModel(ctx, modelPath); err != nil {
				return err
			}
			return turn.DownloadNamoModel(ctx, modelPath, language)
		default:
			return fmt.Errorf("unknown model %q (supported: turnsense|turn-detection-v1|namo|all)", modelName)
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which model families are fully cached",
	Run: func(cmd *cobra.Command, args []string) {
		for name, complete := range turn.ModelStatus(modelPath) {
			mark := "missing"
			if complete {
				mark = "ready"
			}
			fmt.Printf("%-40s %s\n", name, mark)
		}
	},
}

var predictText string

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a one-shot end-of-turn prediction for a text utterance",
	RunE: func(cmd *cobra.Command, args []string) error {
		detector, err := turn.NewDetector(cmd.Context(), turn.Config{
			Model:     turn.Model(modelName),
			Language:  language,
			Threshold: threshold,
			ModelPath: modelPath,
			RemoteURL: remoteURL,
			OnError: func(err error) {
				slog.Warn("detector reported error", slog.String("error", err.Error()))
			},
		})
		if err != nil {
			return err
		}
		defer detector.Close()

		chatCtx := llm.EmptyChatContext()
		chatCtx.AddMessage(llm.RoleUser, predictText)

		if detector.SupportsContinuousProbability() {
			p, err := detector.EOUProbability(cmd.Context(), chatCtx)
			if err != nil {
				return err
			}
			fmt.Printf("probability: %.4f (threshold %.2f)\n", p, detector.Threshold())
		}

		eou, err := detector.DetectEndOfUtterance(cmd.Context(), chatCtx)
		if err != nil {
			return err
		}
		if eou {
			fmt.Println("End of Turn")
		} else {
			fmt.Println("Not End of Turn")
		}
		return nil
	},
}

// applyConfigFile loads --config and fills in any flag the user did not set.
func applyConfigFile(cmd *cobra.Command) error {
	if configPath == "" {
		return nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("model-path") && cfg.ModelPath != "" {
		modelPath = cfg.ModelPath
	}
	if !flags.Changed("model") && cfg.Model != "" {
		modelName = cfg.Model
	}
	if !flags.Changed("language") && cfg.Language != "" {
		language = cfg.Language
	}
	if !flags.Changed("threshold") && cfg.Threshold != 0 {
		threshold = cfg.Threshold
	}
	if !flags.Changed("remote-url") && cfg.RemoteURL != "" {
		remoteURL = cfg.RemoteURL
	}
	return nil
}

func main() {
	version.Name = "turnctl"

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.StringVar(&modelPath, "model-path", "", "local model cache directory (default: user cache dir)")
	flags.StringVar(&modelName, "model", string(turn.ModelNamo), "model family: turnsense|turn-detection-v1|namo")
	flags.StringVar(&language, "language", "", "ISO 639-1 language code (namo only)")
	flags.Float64Var(&threshold, "threshold", turn.DefaultThreshold, "end-of-turn probability threshold")
	flags.StringVar(&remoteURL, "remote-url", "", "remote EOU inference endpoint")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	predictCmd.Flags().StringVar(&predictText, "text", "", "utterance to score")
	cobra.CheckErr(predictCmd.MarkFlagRequired("text"))

	rootCmd.AddCommand(versionCmd, downloadCmd, statusCmd, predictCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
