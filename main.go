// Package main provides the entry point for the Parlando CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/parlando-tts/parlando/internal/ingest"
	"github.com/parlando-tts/parlando/internal/pcm"
	"github.com/parlando-tts/parlando/internal/player"
	"github.com/parlando-tts/parlando/internal/speaker"
	"github.com/parlando-tts/parlando/internal/synth"
	"github.com/parlando-tts/parlando/internal/textproc"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	voice      string
	model      string
	speed      float64
	outputPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "parlando [SOURCE|TEXT...]",
		Short: "Read text aloud from the command line",
		Long: "\nParlando reads text aloud using a cloud text-to-speech model.\n" +
			"Give it a text or PDF file, pipe text on stdin (or pass -), or just\n" +
			"pass the words to speak as arguments.",
		Example: "  parlando article.txt\n" +
			"  parlando thesis.pdf --speed 1.5\n" +
			"  cat notes.txt | parlando\n" +
			"  parlando \"hello there\" -o hello.wav",
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ArbitraryArgs,
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// envConfig is read from the environment, not flags: credentials and
// debugging knobs.
type envConfig struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	LogFile      string `env:"PARLANDO_LOGFILE"`
}

func validateOptions(cmd *cobra.Command) error {
	engineName = viper.GetString("engine")
	voice = viper.GetString("voice")
	model = viper.GetString("model")
	speed = viper.GetFloat64("speed")
	debug = viper.GetBool("debug")

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if !cmd.Flags().Changed("speed") && speed == 0 {
		speed = speaker.DefaultPlaybackRate
	}
	if speed < 0.25 || speed > 4.0 {
		return fmt.Errorf("speed must be between 0.25 and 4.0, got %.2f", speed)
	}

	switch engineName {
	case "gemini", "openai", "mock":
	default:
		return fmt.Errorf("unknown engine %q: use gemini, openai, or mock", engineName)
	}

	if outputPath != "" {
		if ext := strings.ToLower(filepath.Ext(outputPath)); ext != ".wav" {
			return fmt.Errorf("output file must end in .wav, got %q", outputPath)
		}
	}
	return nil
}

// resolveText finds the text to speak: piped stdin first, then a file or
// "-" argument, then the arguments themselves as literal text.
func resolveText(args []string) (string, error) {
	if yes, err := stdinIsPipe(); err != nil {
		return "", err
	} else if yes {
		return ingest.ReadAll(os.Stdin)
	}

	if len(args) == 0 {
		return "", errors.New("missing text: pass a file, pipe text on stdin, or give the words to speak")
	}

	if args[0] == "-" {
		return ingest.ReadAll(os.Stdin)
	}

	if len(args) == 1 {
		if st, err := os.Stat(args[0]); err == nil && !st.IsDir() {
			return ingest.Load(args[0])
		}
	}

	// Not a file: speak the arguments themselves.
	return strings.Join(args, " "), nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// newSynthesizer builds the selected backend with credentials from the
// environment.
func newSynthesizer(cfg envConfig) (synth.Synthesizer, error) {
	switch engineName {
	case "gemini":
		return synth.NewGemini(synth.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  model,
			Voice:  voice,
		})
	case "openai":
		return synth.NewOpenAI(cfg.OpenAIAPIKey, model, voice)
	case "mock":
		return synth.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engineName)
	}
}

func execute(_ *cobra.Command, args []string) error {
	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}

	text, err := resolveText(args)
	if err != nil {
		return err
	}

	backend, err := newSynthesizer(cfg)
	if err != nil {
		return errors.New(synth.UserMessage(err))
	}
	client := synth.NewClient(backend, viper.GetFloat64("requests_per_second"))

	if outputPath != "" {
		return exportWAV(client, text, outputPath)
	}
	return speakAloud(client, text)
}

// speakAloud plays the text through the default audio device, blocking
// until playback finishes or an interrupt stops it.
func speakAloud(client *synth.Client, text string) error {
	output, err := player.DefaultOutput()
	if err != nil {
		return fmt.Errorf("audio device unavailable: %w", err)
	}

	spk := speaker.New(client, player.NewEngine(output))

	done := make(chan struct{})
	spk.Speak(text, speaker.Options{
		PlaybackRate: speed,
		OnEnd:        func() { close(done) },
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-interrupt:
		log.Debug("Interrupted")
		_ = spk.Stop()
		<-done
	case <-done:
	}
	spk.Wait()

	if err := spk.Err(); err != nil {
		return errors.New(synth.UserMessage(err))
	}
	return nil
}

// exportWAV synthesizes the text and writes the audio to a WAV file
// instead of playing it.
func exportWAV(client *synth.Client, text, path string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chunks := textproc.Split(textproc.Sanitize(text), textproc.DefaultMaxChunkLen)
	if len(chunks) == 0 {
		return errors.New("nothing to synthesize")
	}

	payloads, err := client.SynthesizeAll(ctx, chunks)
	if err != nil {
		return errors.New(synth.UserMessage(err))
	}

	bufs := make([]*pcm.Buffer, 0, len(payloads))
	for i, payload := range payloads {
		buf, err := pcm.Decode(payload)
		if err != nil {
			log.Warn("Skipping undecodable chunk", "chunk", i, "error", err)
			continue
		}
		bufs = append(bufs, buf)
	}
	if len(bufs) == 0 {
		return errors.New("synthesis produced no audio")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	if err := pcm.EncodeWAV(f, bufs...); err != nil {
		_ = f.Close()
		return fmt.Errorf("unable to write WAV file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to write WAV file: %w", err)
	}

	if isTerminal() {
		fmt.Println("Wrote audio to:", path)
	}
	return nil
}

func main() {
	cfg, _ := env.ParseAs[envConfig]()
	closer, err := setupLog(cfg.LogFile, os.Getenv("PARLANDO_DEBUG") != "")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "gemini", "synthesis engine (gemini, openai, mock)")
	rootCmd.Flags().StringVar(&voice, "voice", "", "voice name (engine default when empty)")
	rootCmd.Flags().StringVar(&model, "model", "", "model name (engine default when empty)")
	rootCmd.Flags().Float64VarP(&speed, "speed", "x", speaker.DefaultPlaybackRate, "playback speed multiplier")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write a WAV file instead of playing")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "verbose logging")

	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("model", rootCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("speed", rootCmd.Flags().Lookup("speed"))
	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))

	viper.SetDefault("engine", "gemini")
	viper.SetDefault("speed", speaker.DefaultPlaybackRate)
	viper.SetDefault("requests_per_second", synth.DefaultRequestsPerSecond)

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "parlando")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "parlando")}, dirs...)
	}

	if c := os.Getenv("PARLANDO_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("parlando")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("parlando")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "parlando.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

// isTerminal reports whether stdout is a TTY; progress chatter is kept
// off when piped.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
