package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"

	"procmap/internal/client"
	"procmap/internal/config"
	"procmap/internal/model"
	"procmap/internal/server"
	"procmap/internal/tui"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "procmap",
		Repository: "procmap",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/procmap/procmap/releases")
	} else if pflag.Lookup("update").Changed {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: procmap [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "procmap is a process-mining explorer for event logs.\n")
		fmt.Fprintf(os.Stderr, "It discovers the process graph behind a CSV or XES event log and lets\n")
		fmt.Fprintf(os.Stderr, "you explore metrics, bottlenecks and variants interactively.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  procmap                   # Start TUI mode\n")
		fmt.Fprintf(os.Stderr, "  procmap --serve           # Run the bundled analysis server\n")
		fmt.Fprintf(os.Stderr, "  procmap --json log.csv    # One-shot analysis as JSON\n")
	}

	jsonFlag := pflag.BoolP("json", "j", false, "Analyze the given file and print the result as JSON")
	serveFlag := pflag.BoolP("serve", "s", false, "Run the bundled analysis server")
	addrFlag := pflag.StringP("addr", "a", "", "Listen address for --serve (default from config)")
	backendFlag := pflag.StringP("backend", "b", "", "Backend base URL for the TUI (default from config)")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("procmap version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Serve.Addr = *addrFlag
	}
	if *backendFlag != "" {
		cfg.Backend = *backendFlag
	}

	if *serveFlag {
		runServeMode(cfg)
		return
	}

	if *jsonFlag {
		if pflag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: --json needs an event log file")
			os.Exit(1)
		}
		runJSONMode(pflag.Arg(0), cfg)
		return
	}

	// Default: TUI
	runTuiMode(cfg)
}

func runServeMode(cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg.Serve).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func runJSONMode(path string, cfg config.Config) {
	result, err := server.AnalyzeFile(path, cfg.Serve.TopVariants)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(result)
}

func runTuiMode(cfg config.Config) {
	m := tui.InitialModel(client.New(cfg.Backend), cfg.ActivityLog)
	m.OnBottleneckSelect = func(b model.Bottleneck) {
		m.Activity.Logf("bottleneck %s -> %s selected", b.Source, b.Target)
	}

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
