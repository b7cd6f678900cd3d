// Package flagx holds small helpers for layered flag parsing, where the
// config file path has to be known before the rest of the flags are parsed.
package flagx

import (
	"flag"
	"strings"
)

// ConfigFlags are the names accepted for the JSON config file path.
var ConfigFlags = []string{"-c", "-config", "--c", "--config"}

// FilterArgs returns the subset of args made of allowed flags and their values.
//
// Both "-c conf.json" and "--config=conf.json" forms are recognised. A value is
// only consumed when the next token does not start with '-'.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// StripArgs is the complement of FilterArgs: it drops the named flags and
// their values so the remaining args can be handed to another FlagSet.
func StripArgs(args []string, drop []string) []string {
	dropped := make(map[string]struct{}, len(drop))
	for _, f := range drop {
		dropped[f] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			if _, ok := dropped[strings.SplitN(arg, "=", 2)[0]]; ok {
				continue
			}
			out = append(out, arg)
			continue
		}
		if _, ok := dropped[arg]; ok {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

// ConfigPath extracts the config file path given via -c/-config (single or
// double dash). It returns "" when none is present; the last occurrence wins.
func ConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, ConfigFlags))

	return config
}
