package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandUpload    Command = "upload"
	CommandWatch     Command = "watch"
	CommandServe     Command = "serve"
	CommandStatus    Command = "status"
	CommandCancel    Command = "cancel"
	CommandRemove    Command = "remove"
	CommandShow      Command = "show"
	CommandNotes     Command = "notes"
	CommandCopy      Command = "copy"
	CommandSummarize Command = "summarize"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

type argMode int

const (
	argNone argMode = iota
	argOptional
	argRequired
)

var validCommands = map[Command]argMode{
	CommandUpload:    argRequired,
	CommandWatch:     argOptional,
	CommandServe:     argNone,
	CommandStatus:    argNone,
	CommandCancel:    argNone,
	CommandRemove:    argNone,
	CommandShow:      argNone,
	CommandNotes:     argNone,
	CommandCopy:      argNone,
	CommandSummarize: argNone,
	CommandDoctor:    argNone,
	CommandVersion:   argNone,
	CommandHelp:      argNone,
}

type Parsed struct {
	Command    Command
	Arg        string
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			mode, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			rest := args[i+1:]
			switch {
			case mode == argRequired && len(rest) == 0:
				return Parsed{}, fmt.Errorf("command %q requires a path", arg)
			case mode == argNone && len(rest) > 0,
				mode != argNone && len(rest) > 1:
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			if len(rest) == 1 {
				if strings.HasPrefix(rest[0], "-") {
					return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
				}
				parsed.Arg = rest[0]
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [ARG]

Commands:
  upload PATH   Validate PATH, upload it, and print the transcript
  watch [DIR]   Upload every video dropped into DIR (default: watch.dir)
  serve         Run the local HTTP API (and the drop watcher when watch.dir is set)
  status        Print current stage and progress
  cancel        Cancel the in-flight upload
  remove        Discard the selected file and the stored transcript
  show          Print the stored transcript
  notes         Print notes derived from the stored transcript
  copy          Copy the stored transcript to the clipboard
  summarize     Summarize the stored transcript through the service
  doctor        Run configuration and environment checks
  version       Print version information
  help          Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/scriber/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
