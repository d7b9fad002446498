package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ykomatsu/troupe/internal/daemon"
	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/setup"
	"github.com/ykomatsu/troupe/internal/tmux"
	"github.com/ykomatsu/troupe/internal/uds"
	"github.com/ykomatsu/troupe/internal/waiter"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "setup":
		runSetup(os.Args[2:])
	case "daemon":
		runDaemon(os.Args[2:])
	case "spawn":
		runSpawn(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "down":
		runDown(os.Args[2:])
	case "version":
		fmt.Printf("troupe %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runSetup(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: troupe setup <project_dir> [--name <project>]")
		os.Exit(1)
	}
	projectDir := args[0]
	projectName := ""
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--name":
			if i+1 >= len(rest) {
				fmt.Fprintln(os.Stderr, "--name requires a value")
				os.Exit(1)
			}
			i++
			projectName = rest[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: troupe setup <project_dir> [--name <project>]\n", rest[i])
			os.Exit(1)
		}
	}

	if err := setup.Run(projectDir, projectName); err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(1)
	}
	absDir, _ := filepath.Abs(projectDir)
	fmt.Printf("Initialized %s in %s\n", setup.Dir, absDir)
}

func runDaemon(_ []string) {
	troupeDir := findTroupeDir()
	if troupeDir == "" {
		fmt.Fprintln(os.Stderr, "error: .troupe/ directory not found. Run 'troupe setup <dir>' first.")
		os.Exit(1)
	}

	cfg, err := loadConfig(troupeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	d, err := daemon.New(troupeDir, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create daemon: %v\n", err)
		os.Exit(1)
	}
	if err := d.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "daemon: %v\n", err)
		os.Exit(1)
	}
}

func runSpawn(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: troupe spawn <request.yaml|-> [--dry-run] [--wait]")
		os.Exit(1)
	}
	requestFile := args[0]
	dryRun := false
	wait := false
	for _, a := range args[1:] {
		switch a {
		case "--dry-run":
			dryRun = true
		case "--wait":
			wait = true
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: troupe spawn <request.yaml|-> [--dry-run] [--wait]\n", a)
			os.Exit(1)
		}
	}

	var data []byte
	var err error
	if requestFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(requestFile)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "read request: %v\n", err)
		os.Exit(1)
	}

	var req model.SpawnRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		fmt.Fprintf(os.Stderr, "parse request: %v\n", err)
		os.Exit(1)
	}
	if dryRun {
		req.DryRun = true
	}

	troupeDir := findTroupeDir()
	if troupeDir == "" {
		fmt.Fprintln(os.Stderr, "error: .troupe/ directory not found. Run 'troupe setup <dir>' first.")
		os.Exit(1)
	}

	// The project name defaults from config so request files stay portable.
	cfg, err := loadConfig(troupeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if req.ProjectName == "" {
		req.ProjectName = cfg.Project.Name
	}

	client := uds.NewClient(filepath.Join(troupeDir, uds.DefaultSocketName))
	resp, err := client.SendCommand("spawn", req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spawn: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		code := ""
		msg := "unknown error"
		if resp.Error != nil {
			code = resp.Error.Code
			msg = resp.Error.Message
		}
		fmt.Fprintf(os.Stderr, "spawn failed [%s]: %s\n", code, msg)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(json.RawMessage(resp.Data), "", "  ")
	fmt.Println(string(out))

	var outcome struct {
		OK       bool                   `json:"ok"`
		DryRun   bool                   `json:"dry_run"`
		Response model.CombinedResponse `json:"response"`
	}
	if err := json.Unmarshal(resp.Data, &outcome); err != nil {
		fmt.Fprintf(os.Stderr, "decode response: %v\n", err)
		os.Exit(1)
	}

	if wait && !outcome.DryRun {
		tmux.SetSessionName(cfg.Session.Name)
		w := waiter.New(cfg.Waiter)
		for _, r := range outcome.Response.SpawnedResources {
			found, err := w.WaitVisible(context.Background(), r.PID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "wait for %s: %v\n", r.Name, err)
				continue
			}
			if !found {
				fmt.Fprintf(os.Stderr, "warning: %s (pid %d) not visible before timeout\n", r.Name, r.PID)
			}
		}
	}

	if !outcome.OK {
		os.Exit(2)
	}
}

func runStatus(args []string) {
	jsonOutput := false
	for _, a := range args {
		switch a {
		case "--json":
			jsonOutput = true
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: troupe status [--json]\n", a)
			os.Exit(1)
		}
	}

	troupeDir := findTroupeDir()
	if troupeDir == "" {
		fmt.Fprintln(os.Stderr, "error: .troupe/ directory not found. Run 'troupe setup <dir>' first.")
		os.Exit(1)
	}

	client := uds.NewClient(filepath.Join(troupeDir, uds.DefaultSocketName))
	resp, err := client.SendCommand("status", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		msg := "unknown error"
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		fmt.Fprintf(os.Stderr, "status failed: %s\n", msg)
		os.Exit(1)
	}

	if jsonOutput {
		out, _ := json.MarshalIndent(json.RawMessage(resp.Data), "", "  ")
		fmt.Println(string(out))
		return
	}

	var payload struct {
		Project string `json:"project"`
		Session string `json:"session"`
		Slots   []struct {
			Index int    `json:"index"`
			Name  string `json:"name"`
		} `json:"slots"`
		LastRun *struct {
			OK   bool   `json:"ok"`
			Time string `json:"time"`
		} `json:"last_run"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "decode status: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Project: %s\n", payload.Project)
	fmt.Printf("Session: %s\n", payload.Session)
	if len(payload.Slots) == 0 {
		fmt.Println("Slots:   (none)")
	} else {
		fmt.Println("Slots:")
		for _, s := range payload.Slots {
			fmt.Printf("  %d: %s\n", s.Index, s.Name)
		}
	}
	if payload.LastRun != nil {
		outcome := "failed"
		if payload.LastRun.OK {
			outcome = "ok"
		}
		fmt.Printf("Last run: %s (%s)\n", outcome, payload.LastRun.Time)
	}
}

func runDown(_ []string) {
	troupeDir := findTroupeDir()
	if troupeDir == "" {
		fmt.Fprintln(os.Stderr, "error: .troupe/ directory not found. Run 'troupe setup <dir>' first.")
		os.Exit(1)
	}

	cfg, err := loadConfig(troupeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	client := uds.NewClient(filepath.Join(troupeDir, uds.DefaultSocketName))
	if _, err := client.SendCommand("shutdown", nil); err != nil {
		fmt.Fprintf(os.Stderr, "warning: daemon shutdown: %v\n", err)
	} else {
		fmt.Println("Daemon stopping.")
	}

	tmux.SetSessionName(cfg.Session.Name)
	if tmux.SessionExists() {
		if err := tmux.KillSession(); err != nil {
			fmt.Fprintf(os.Stderr, "kill session: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Session %q killed.\n", cfg.Session.Name)
	}
}

func findTroupeDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, setup.Dir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func loadConfig(troupeDir string) (model.Config, error) {
	data, err := os.ReadFile(filepath.Join(troupeDir, "config.yaml"))
	if err != nil {
		return model.Config{}, fmt.Errorf("read config.yaml: %w", err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parse config.yaml: %w", err)
	}
	return cfg, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `troupe %s — workspace slot resolution and spawn orchestration

Usage: troupe <command> [options]

Project:
  setup <dir> [--name <project>]  Initialize .troupe/ directory
  status [--json]                 Show workspace and last-run status
  down                            Stop daemon and kill the workspace session

Spawning:
  spawn <file.yaml|->  [--dry-run] [--wait]
                                  Resolve placements and launch resources
                                  from a YAML request file (or stdin)

Internal:
  daemon                          Run the background daemon
  version                         Show version
  help                            Show this help
`, version)
}
