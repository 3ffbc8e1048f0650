package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/config"
	"github.com/tomatyss/mailos/llm"
	mailoslogger "github.com/tomatyss/mailos/logger"
	"github.com/tomatyss/mailos/tools"
	"github.com/tomatyss/mailos/tools/schemas"
	"github.com/tomatyss/mailos/vendors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", config.GetConfigPath(), "Path to config file")
		provider   = flag.String("provider", "", "Override the configured provider")
		model      = flag.String("model", "", "Override the configured model")
		system     = flag.String("system", "", "System prompt")
		prompt     = flag.String("prompt", "", "User prompt to send")
		stream     = flag.Bool("stream", false, "Stream the response as it is generated")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stdout/stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}
	if *prompt == "" {
		return fmt.Errorf("--prompt is required")
	}

	log, err := mailoslogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *provider != "" {
		settings.Provider = *provider
	}
	if *model != "" {
		settings.Model = *model
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := vendors.NewEngine(ctx, settings, log)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(log)
	if err != nil {
		return err
	}

	var messages []llm.Message
	if *system != "" {
		messages = append(messages, llm.NewTextMessage(llm.RoleSystem, *system))
	}
	messages = append(messages, llm.NewTextMessage(llm.RoleUser, *prompt))

	if *stream {
		return streamResponse(ctx, engine, messages)
	}

	resp, err := engine.Generate(ctx, messages, registry.List())
	if err != nil {
		return err
	}
	fmt.Println(resp.Text())
	return nil
}

// buildRegistry registers the tools this binary implements locally. The
// remaining schema declarations belong to the email pipeline, which binds
// its own implementations.
func buildRegistry(log zerolog.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry(log)
	if err := registry.Register(schemas.Bind(schemas.All()["read_csv"], readCSV)); err != nil {
		return nil, err
	}
	return registry, nil
}

func readCSV(args map[string]any) (any, error) {
	path, _ := args["input_path"].(string)
	if path == "" {
		return nil, fmt.Errorf("input_path is required")
	}

	f, err := os.Open(path) //#nosec 304 -- path chosen by the model on the user's behalf
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return rows, nil
}

func streamResponse(ctx context.Context, engine *llm.Engine, messages []llm.Message) error {
	s, err := engine.GenerateStream(ctx, messages, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	for s.Next() {
		fmt.Print(s.Current().Text())
	}
	fmt.Println()
	return s.Err()
}
