package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/whimsy/internal/config"
	"github.com/1broseidon/whimsy/internal/editor"
)

const pathFlagUsage = "Config file path (default: $WHIMSY_CFG or ~/.config/whimsy/whimsy.yaml)"

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  whimsy config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  whimsy config print [--path PATH] [--effective|--defaults] [--format yaml|toml]")
		fmt.Fprintln(os.Stderr, "  whimsy config explain [--path PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", pathFlagUsage)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", pathFlagUsage)
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printEffective := fs.Bool("effective", false, "Print effective config (default)")
		format := fs.String("format", "yaml", "Output format: yaml or toml")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if *format != string(config.FormatYAML) && *format != string(config.FormatTOML) {
			fmt.Fprintf(os.Stderr, "unknown format %q (want yaml or toml)\n", *format)
			return 2
		}

		cfg := config.DefaultConfig()
		_ = printEffective // default
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal(config.Format(*format))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", pathFlagUsage)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", src)
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func loadConfig(path string) (*config.LoadResult, error) {
	resolved, err := config.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(resolved)
}

func runOpenConfig(args []string) int {
	fs := flag.NewFlagSet("open-cfg", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", pathFlagUsage)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: whimsy open-cfg [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Write the default config if missing, then open it in $VISUAL or $EDITOR,")
		fmt.Fprintln(os.Stderr, "falling back to the desktop's default application.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	resolved, err := config.ResolvePath(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	created, err := config.EnsureExists(resolved)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if created {
		fmt.Fprintf(os.Stderr, "wrote default config to %s\n", resolved)
	}

	// A terminal editor needs the terminal; the desktop opener does not.
	cmd := editor.Terminal(resolved, "")
	if cmd == nil {
		cmd = editor.Opener(resolved)
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", resolved, err)
			return 1
		}
		_ = cmd.Process.Release()
		return 0
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "editor failed: %v\n", err)
		return 1
	}
	return 0
}

func runRegenerateConfig(args []string) int {
	fs := flag.NewFlagSet("regenerate-cfg", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", pathFlagUsage)
	yes := fs.Bool("yes", false, "Overwrite without asking")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: whimsy regenerate-cfg [--path PATH] [--yes]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Replace the config file with the built-in defaults.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	resolved, err := config.ResolvePath(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return regenerateConfig(resolved, *yes, os.Stdout, confirmOverwrite)
}

// confirmFunc asks whether to overwrite path. ok is false when the user
// declined.
type confirmFunc func(path string) (ok bool, err error)

func regenerateConfig(path string, yes bool, out io.Writer, confirm confirmFunc) int {
	if _, err := os.Stat(path); err == nil && !yes {
		ok, err := confirm(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !ok {
			fmt.Fprintln(out, "aborted")
			return 1
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := config.WriteDefault(path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintf(out, "wrote default config to %s\n", path)
	return 0
}

// confirmOverwrite prompts on an interactive terminal and refuses
// otherwise, so scripts must pass --yes.
func confirmOverwrite(path string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("%s exists; pass --yes to overwrite it", path)
	}
	var ok bool
	err := huh.NewConfirm().
		Title("Overwrite " + path + "?").
		Description("Your bindings will be replaced by the defaults.").
		Affirmative("Overwrite").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
