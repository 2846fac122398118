// Package main is the entry point for the replstorm console.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/replstorm/internal/app"
	"github.com/dshills/replstorm/internal/config"
	"github.com/dshills/replstorm/internal/config/loader"
	"github.com/dshills/replstorm/internal/dispatcher/handlers/repl"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configDir   string
	replName    string
	sessionName string
	execText    string
	listRepls   bool
	logLevel    string
	debug       bool
	watchConfig bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.listRepls {
		return listDefinitions(opts)
	}

	level := opts.logLevel
	if opts.debug {
		level = "debug"
	}
	logCfg := app.DefaultLoggerConfig()
	logCfg.Level = app.ParseLogLevel(level)
	logger := app.NewLogger(logCfg)
	app.SetLogger(logger)

	appOpts := []app.Option{
		app.WithLogger(logger),
		app.WithRepl(opts.replName),
		app.WithSessionName(opts.sessionName),
		app.WithConfigWatch(opts.watchConfig),
	}
	if opts.configDir != "" {
		cfg := config.New(config.WithConfigDir(opts.configDir))
		if err := cfg.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
			return 1
		}
		appOpts = append(appOpts, app.WithConfig(cfg))
	}
	if opts.execText != "" {
		appOpts = append(appOpts, app.WithHeadless(true))
	}

	application, err := app.New(appOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown(app.DefaultShutdownTimeout)

	if opts.execText != "" {
		return execAndWait(application, opts.execText)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		application.Shutdown(app.DefaultShutdownTimeout)
	}()

	if err := application.Run(); err != nil {
		if errors.Is(err, app.ErrQuit) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// execAndWait sends the given text to the default session and waits
// for the session to become ready before printing its output.
func execAndWait(application *app.Application, text string) int {
	res := application.Dispatch(repl.ActionSendBuffer, map[string]any{"text": text})
	if res.IsError() {
		fmt.Fprintf(os.Stderr, "Error: %v\n", res.Error)
		return 1
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		res = application.Dispatch(repl.ActionReadiness, nil)
		if res.IsError() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", res.Error)
			return 1
		}
		if res.GetDataBool("ready") {
			break
		}
	}

	name := application.Registry().DefaultSessionName()
	if sess, ok := application.Registry().Get(name); ok {
		fmt.Print(strings.Join(sess.Scrollback().Lines(), "\n"))
		fmt.Println()
	}
	return 0
}

// listDefinitions prints the known REPL definitions.
func listDefinitions(opts cliOptions) int {
	cfgOpts := []config.Option{}
	if opts.configDir != "" {
		cfgOpts = append(cfgOpts, config.WithConfigDir(opts.configDir))
	}
	cfg := config.New(cfgOpts...)

	defs, err := config.LoadDefinitions(loader.DefaultFS(), cfg.DefinitionsPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	for _, name := range config.DefinitionNames(defs) {
		def := defs[name]
		fmt.Printf("%-12s %s %s\n", name, def.Command, strings.Join(def.Args, " "))
	}
	return 0
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configDir, "config", "", "Configuration directory")
	flag.StringVar(&opts.configDir, "c", "", "Configuration directory (shorthand)")
	flag.StringVar(&opts.replName, "repl", "", "REPL definition to launch (e.g. python, julia)")
	flag.StringVar(&opts.replName, "r", "", "REPL definition to launch (shorthand)")
	flag.StringVar(&opts.sessionName, "name", "", "Default session name")
	flag.StringVar(&opts.sessionName, "n", "", "Default session name (shorthand)")
	flag.StringVar(&opts.execText, "exec", "", "Send text to the session and print its output")
	flag.StringVar(&opts.execText, "e", "", "Send text to the session and print its output (shorthand)")
	flag.BoolVar(&opts.listRepls, "list", false, "List known REPL definitions and exit")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&opts.debug, "d", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&opts.watchConfig, "watch-config", true, "Reload configuration when its files change")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Replstorm - editor-to-REPL bridge console\n\n")
		fmt.Fprintf(os.Stderr, "Usage: replstorm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  replstorm                   Open the console with the configured REPL\n")
		fmt.Fprintf(os.Stderr, "  replstorm -r python         Open a Python session\n")
		fmt.Fprintf(os.Stderr, "  replstorm -r julia -n work  Open a Julia session named \"work\"\n")
		fmt.Fprintf(os.Stderr, "  replstorm -e '1 + 1'        Evaluate an expression and exit\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Replstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.logLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	return opts
}
