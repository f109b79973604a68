// Package flagx contains helpers for parsing a subset of command-line flags
// without tripping over flags owned by other parts of the program.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// canonical strips leading dashes so "-config" and "--config" compare equal.
func canonical(name string) string {
	return strings.TrimLeft(name, "-")
}

// FilterArgs keeps only the flags listed in allowedFlags, together with their
// values. Both "-name value" and "-name=value" spellings are recognised, and a
// single or double leading dash is accepted for every allowed name.
//
// A token following an allowed flag is taken as its value unless it starts
// with a dash. Positional arguments and unknown flags are dropped.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[canonical(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if _, ok := allowed[canonical(name)]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if hasValue {
			continue
		}

		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFilePath extracts the JSON config file path given via -c or -config.
// Other arguments are ignored; an empty string means no file was requested.
func ConfigFilePath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
