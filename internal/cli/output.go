package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const commandTimeout = 30 * time.Second

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// resolveFormat picks table output for terminals and JSON for pipes unless
// a format was requested explicitly
func resolveFormat(requested string) (string, error) {
	switch requested {
	case "":
		if stdoutIsTerminal() {
			return formatTable, nil
		}
		return formatJSON, nil
	case formatTable, formatJSON, formatYAML:
		return requested, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use table, json or yaml)", requested)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// printStructured handles the json and yaml formats; it reports false for table
func printStructured(format string, v any) (bool, error) {
	switch format {
	case formatJSON:
		return true, printJSON(v)
	case formatYAML:
		return true, printYAML(v)
	}
	return false, nil
}
