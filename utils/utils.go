package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultPackage is the application id used for per-volume directories
	DefaultPackage = "io.github.turskyi.sdcard"

	// DefaultDisplayWidth is used when no display width is configured
	DefaultDisplayWidth = 1080

	// DefaultHistoryLimit is the number of views printed by the history command
	DefaultHistoryLimit = 10
)

// DefaultMediaRoots are the parent directories under which removable volumes get mounted
var DefaultMediaRoots = []string{"/media", "/run/media", "/mnt"}

// Commands lists the recognised subcommands
var Commands = []string{"dirs", "cache", "show", "history", "save", "list", "read", "delete", "scan"}

// ParseArguments converts command-line arguments into a map of flags and values.
// The first recognised command word is stored under "command".
func ParseArguments(argv []string) map[string]string {
	args := make(map[string]string)

	commandIndex := -1
	for i, arg := range argv {
		if isCommand(arg) {
			args["command"] = arg
			commandIndex = i
			break
		}
	}

	for i := 0; i < len(argv); i++ {
		if i == commandIndex {
			continue
		}

		arg := argv[i]

		// --key=value
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			args[strings.TrimPrefix(parts[0], "--")] = parts[1]
			continue
		}

		// --key value, or a boolean --flag
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")
			if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "--") || i+1 == commandIndex {
				args[flagName] = "true"
			} else {
				args[flagName] = argv[i+1]
				i++
			}
		}
	}

	return args
}

func isCommand(arg string) bool {
	for _, c := range Commands {
		if arg == c {
			return true
		}
	}
	return false
}

// GetDefaultRoot returns the storage root, honouring SDCARD_HOME
func GetDefaultRoot() string {
	if home := os.Getenv("SDCARD_HOME"); home != "" {
		return home
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to current directory if no config dir is known
		return "sdcard-data"
	}
	return filepath.Join(configDir, "sdcard")
}

// GetDefaultDatabasePath returns the default path for the database file
func GetDefaultDatabasePath(root string) string {
	return filepath.Join(root, "sdcard.db")
}

// DefaultLogFile is written when --debug is set without --logfile
const DefaultLogFile = "sdcard.log"

// GetLogFilePath returns the log file to write and whether file logging is enabled.
// Either --debug or --logfile turns it on.
func GetLogFilePath(args map[string]string) (string, bool) {
	if logPath, ok := args["logfile"]; ok && logPath != "" && logPath != "true" {
		return logPath, true
	}
	if _, ok := args["debug"]; ok {
		return DefaultLogFile, true
	}
	return "", false
}

// ParseDisplayWidth parses a positive display width, falling back to SDCARD_DISPLAY_WIDTH and then the default
func ParseDisplayWidth(value string) (int, error) {
	if value == "" {
		value = os.Getenv("SDCARD_DISPLAY_WIDTH")
	}
	if value == "" {
		return DefaultDisplayWidth, nil
	}

	width, err := strconv.Atoi(value)
	if err != nil || width <= 0 {
		return DefaultDisplayWidth, fmt.Errorf("invalid display width '%s', using default (%d)", value, DefaultDisplayWidth)
	}
	return width, nil
}

// ParseLimit parses a positive row limit
func ParseLimit(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("invalid limit '%s', using default (%d)", value, def)
	}
	return n, nil
}

// SplitList splits a comma separated flag value, dropping empty entries
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s dirs [--root=PATH] [--media-roots=LIST]\n", os.Args[0])
	fmt.Printf("  %s cache [--root=PATH]\n", os.Args[0])
	fmt.Printf("  %s show --image=PATH [--out=PATH] [--reqsize=N] [--decoder=go|opencv]\n", os.Args[0])
	fmt.Printf("  %s history [--limit=N]\n", os.Args[0])
	fmt.Printf("  %s save --name=NAME --content=TEXT\n", os.Args[0])
	fmt.Printf("  %s list\n", os.Args[0])
	fmt.Printf("  %s read --name=NAME\n", os.Args[0])
	fmt.Printf("  %s delete --name=NAME\n", os.Args[0])
	fmt.Printf("  %s scan [--folder=PATH] [--force] [--reqsize=N]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --root        : Storage root (default: %s, env SDCARD_HOME)\n", GetDefaultRoot())
	fmt.Printf("  --package     : Application id for per-volume directories (default: %s)\n", DefaultPackage)
	fmt.Printf("  --media-roots : Comma separated mount parents for removable volumes (default: %s)\n", strings.Join(DefaultMediaRoots, ","))
	fmt.Printf("  --database    : Path to database file (default: <root>/sdcard.db)\n")
	fmt.Printf("  --image       : JPEG file to display\n")
	fmt.Printf("  --out         : Where to write the downsampled preview (default: <cache>/preview.jpg)\n")
	fmt.Printf("  --reqsize     : Display width in pixels (default: %d, env SDCARD_DISPLAY_WIDTH)\n", DefaultDisplayWidth)
	fmt.Printf("  --decoder     : Decoder backend, go or opencv (default: go)\n")
	fmt.Printf("  --folder      : Folder to index instead of the media directories\n")
	fmt.Printf("  --force       : Re-index unchanged files during scan\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: sdcard.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s show --image=/path/to/photo.jpg --reqsize=720\n", os.Args[0])
	fmt.Printf("  %s save --name=note.txt --content=\"hello\"\n", os.Args[0])
}
