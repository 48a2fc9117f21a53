package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yosephberhanu/llm-blanket/blanket"
)

var chatCmd = &cobra.Command{
	Use:   "chat <prompt>",
	Short: "Send a prompt to an LLM",
	Long:  "Send a one-shot prompt to the model selected with --model; the provider, endpoint, and credential are resolved automatically.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("system", "", "System prompt")
	chatCmd.Flags().Bool("stream", false, "Stream the response as it arrives")
	chatCmd.Flags().Float64("temperature", 0, "Sampling temperature (0 = provider default)")
	chatCmd.Flags().Int("max-tokens", 0, "Response token cap (0 = provider default)")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	model := viper.GetString("model")
	verbose := viper.GetBool("verbose")
	system, _ := cmd.Flags().GetString("system")
	stream, _ := cmd.Flags().GetBool("stream")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	prompt := strings.Join(args, " ")

	llm, err := newBackend(model)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[blanket] model=%s provider=%s\n", llm.Model(), llm.Provider())
	}

	opts := []blanket.CallOption{blanket.WithUser(prompt)}
	if system != "" {
		opts = append(opts, blanket.WithSystem(system))
	}
	if temperature > 0 {
		opts = append(opts, blanket.WithTemperature(temperature))
	}
	if maxTokens > 0 {
		opts = append(opts, blanket.WithMaxTokens(maxTokens))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if stream {
		return streamChat(ctx, llm, opts, verbose)
	}

	resp, err := llm.Invoke(ctx, nil, opts...)
	if err != nil {
		return err
	}

	fmt.Println(resp.Content)
	if verbose {
		if resp.Usage != nil {
			fmt.Fprintf(os.Stderr, "[blanket] tokens: prompt=%d completion=%d total=%d\n",
				resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
		}
		if resp.FinishReason != "" {
			fmt.Fprintf(os.Stderr, "[blanket] finish: %s\n", resp.FinishReason)
		}
	}
	return nil
}

func streamChat(ctx context.Context, llm blanket.Backend, opts []blanket.CallOption, verbose bool) error {
	ch, err := llm.InvokeStream(ctx, nil, opts...)
	if err != nil {
		return err
	}

	for chunk := range ch {
		if chunk.Err != nil {
			return chunk.Err
		}
		fmt.Print(chunk.Content)
		if chunk.FinishReason != "" && verbose {
			fmt.Fprintf(os.Stderr, "\n[blanket] finish: %s\n", chunk.FinishReason)
		}
	}
	fmt.Println()
	return nil
}

// newBackend builds a Backend from the persistent flags.
func newBackend(model string) (blanket.Backend, error) {
	var opts []blanket.Option
	if p := viper.GetString("provider"); p != "" {
		opts = append(opts, blanket.WithProvider(p))
	}
	if k := viper.GetString("api_key"); k != "" {
		opts = append(opts, blanket.WithAPIKey(k))
	}
	if u := viper.GetString("base_url"); u != "" {
		opts = append(opts, blanket.WithBaseURL(u))
	}
	return blanket.New(model, opts...)
}
