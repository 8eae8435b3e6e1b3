package client

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apimgr/earthquakes/src/server/model"
)

// Execute is the main entry point for the CLI
func Execute() error {
	flagSet := flag.NewFlagSet("quake-cli", flag.ContinueOnError)
	flagSet.Usage = func() {
		printUsage()
	}

	serverFlag := flagSet.String("server", "", "Server URL (overrides config)")
	outputFlag := flagSet.String("output", "", "Output format: json, table, plain (overrides config)")
	tuiFlag := flagSet.Bool("tui", false, "Launch TUI mode")
	noColorFlag := flagSet.Bool("no-color", false, "Disable colored output")
	timeoutFlag := flagSet.Int("timeout", 0, "Request timeout in seconds (overrides config)")
	versionFlag := flagSet.Bool("version", false, "Show version information")
	helpFlag := flagSet.Bool("help", false, "Show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return NewUsageError(err.Error())
	}

	if *versionFlag {
		return printVersion()
	}

	if *helpFlag || (flagSet.NArg() == 0 && !*tuiFlag) {
		printUsage()
		return nil
	}

	config, err := LoadCLIConfig()
	if err != nil {
		return err
	}

	if *serverFlag != "" {
		config.Server.Primary = *serverFlag
	}
	if *outputFlag != "" {
		config.Output.Format = *outputFlag
	}
	if *noColorFlag {
		config.Output.Color = "never"
	}
	if *timeoutFlag > 0 {
		config.Server.Timeout = *timeoutFlag
	}

	if *tuiFlag {
		return runTUI(config)
	}

	args := flagSet.Args()
	if len(args) == 0 {
		return NewUsageError("no command specified")
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "config":
		return handleConfigCommand(commandArgs)
	case "version":
		return printVersion()
	case "list":
		return handleListCommand(config, commandArgs)
	case "regions":
		return handleRegionsCommand()
	case "tui":
		return runTUI(config)
	default:
		return NewUsageError(fmt.Sprintf("unknown command: %s", command))
	}
}

// printUsage prints the usage information
func printUsage() {
	fmt.Println("Quake CLI - Command-line interface for the Earthquakes service")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  quake-cli [flags] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  config       Manage configuration (init, show, get, set)")
	fmt.Println("  version      Show version information")
	fmt.Println("  list         List recent earthquakes")
	fmt.Println("  regions      List known region filters")
	fmt.Println("  tui          Launch interactive TUI mode")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  --server <url>       Server URL (default: http://localhost:3000)")
	fmt.Println("  --output <format>    Output format: json, table, plain (default: table)")
	fmt.Println("  --tui                Launch TUI mode")
	fmt.Println("  --no-color           Disable colored output")
	fmt.Println("  --timeout <seconds>  Request timeout (default: 30)")
	fmt.Println("  --version            Show version information")
	fmt.Println("  --help               Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  quake-cli config init")
	fmt.Println("  quake-cli config set server http://localhost:3000")
	fmt.Println("  quake-cli list --min 6 --region pacific-ring")
	fmt.Println("  quake-cli list --search japan --output json")
	fmt.Println("  quake-cli tui")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  Config file location: ~/.config/earthquakes/cli.yml")
	fmt.Println("  Initialize config: quake-cli config init")
	fmt.Println()
}

// printVersion prints version information
func printVersion() error {
	fmt.Printf("quake-cli version %s\n", Version)
	fmt.Printf("Git commit: %s\n", GitCommit)
	fmt.Printf("Build date: %s\n", BuildDate)
	return nil
}

// handleListCommand fetches the current batch and renders it after applying
// the local filter
func handleListCommand(config *CLIConfig, args []string) error {
	flagSet := flag.NewFlagSet("list", flag.ContinueOnError)
	minFlag := flagSet.Float64("min", config.Filter.MinMagnitude, "Minimum magnitude")
	maxFlag := flagSet.Float64("max", config.Filter.MaxMagnitude, "Maximum magnitude")
	regionFlag := flagSet.String("region", config.Filter.Region, "Region filter")
	searchFlag := flagSet.String("search", config.Filter.Search, "Place substring filter")
	limitFlag := flagSet.Int("limit", 0, "Maximum events to request upstream")

	if err := flagSet.Parse(args); err != nil {
		return NewUsageError(err.Error())
	}
	if *minFlag > *maxFlag {
		return NewUsageError("--min must not exceed --max")
	}

	query := FeedQuery{}
	if *limitFlag > 0 {
		limit := *limitFlag
		query.Limit = &limit
	}

	client := NewHTTPClient(config)
	feed, err := client.FetchEarthquakes(query)
	if err != nil {
		return err
	}

	filter := model.DefaultFilterState(time.Now())
	filter.MinMagnitude = *minFlag
	filter.MaxMagnitude = *maxFlag
	filter.Region = strings.ToLower(*regionFlag)
	filter.SearchTerm = *searchFlag

	points := filter.Apply(model.EnrichEvents(feed.Earthquakes))
	filtered := &Feed{
		Count:    len(points),
		Metadata: feed.Metadata,
	}
	for _, p := range points {
		filtered.Earthquakes = append(filtered.Earthquakes, p.EarthquakeEvent)
	}

	formatter := NewFormatter(config.Output.Format, config.NoColor())
	fmt.Print(formatter.FormatFeed(filtered))
	return nil
}

// handleRegionsCommand lists the known region filters
func handleRegionsCommand() error {
	for _, r := range model.Regions() {
		fmt.Println(r)
	}
	return nil
}

// handleConfigCommand handles config subcommands
func handleConfigCommand(args []string) error {
	if len(args) == 0 {
		return NewUsageError("config command requires a subcommand (init, show, get, set)")
	}

	subcommand := args[0]

	switch subcommand {
	case "init":
		return InitConfig()

	case "show":
		config, err := LoadCLIConfig()
		if err != nil {
			return err
		}
		path, err := ConfigPath()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err == nil {
			fmt.Println(string(data))
		} else {
			// If file doesn't exist, show the effective defaults
			fmt.Printf("server: %s\n", config.GetPrimaryServer())
			fmt.Printf("output: %s\n", config.Output.Format)
			fmt.Printf("timeout: %d\n", config.Server.Timeout)
			fmt.Printf("filter.min_magnitude: %.1f\n", config.Filter.MinMagnitude)
			fmt.Printf("filter.region: %s\n", config.Filter.Region)
		}
		return nil

	case "get":
		if len(args) < 2 {
			return NewUsageError("config get requires a key")
		}
		value, err := GetConfigValue(args[1])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil

	case "set":
		if len(args) < 3 {
			return NewUsageError("config set requires a key and value")
		}
		if err := SetConfigValue(args[1], strings.Join(args[2:], " ")); err != nil {
			return err
		}
		fmt.Printf("Configuration updated: %s = %s\n", args[1], strings.Join(args[2:], " "))
		return nil

	default:
		return NewUsageError(fmt.Sprintf("unknown config subcommand: %s", subcommand))
	}
}
