package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (log in once, run multiple commands)",
		Long: `Start an interactive session where one login is kept across commands.
The session keeps running until you type 'quit' or input ends.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunInteractive(app, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// RunInteractive reads one command per line from in and dispatches it to the
// matching operation. Input is lowercased before parsing. The login state
// lives in app.Session and carries over between runs.
func RunInteractive(app *AppContext, in io.Reader, out io.Writer) error {
	loop := &cobra.Command{Use: "scheduler"}
	loop.SetOut(out)
	loop.AddCommand(loopCommands(app)...)
	commands := operationCommands(loop)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to the COVID-19 Vaccine Reservation Scheduling Application!")
	printInteractiveHelp(out, commands)

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			break
		}

		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}

		// Parse command (respecting quotes)
		parts, err := parseCommandLine(line)
		if err != nil {
			fmt.Fprintln(out, msgTryAgain)
			continue
		}
		if len(parts) == 0 {
			continue
		}
		cmdName := parts[0]
		cmdArgs := parts[1:]

		if cmdName == "quit" || cmdName == "exit" {
			fmt.Fprintln(out, "Bye!")
			return nil
		}

		if cmdName == "help" {
			printInteractiveHelp(out, commands)
			continue
		}

		targetCmd, exists := commands[cmdName]
		if !exists {
			fmt.Fprintln(out, "Invalid operation name!")
			continue
		}

		// Reset command flags and args
		targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
			flag.Changed = false
			flag.Value.Set(flag.DefValue)
		})

		// Everything after the operation name is positional, so a dose count
		// like "-5" reaches the command instead of failing as a flag
		if err := targetCmd.ParseFlags(append([]string{"--"}, cmdArgs...)); err != nil {
			fmt.Fprintln(out, msgTryAgain)
			continue
		}
		cmdArgs = targetCmd.Flags().Args()

		if err := targetCmd.ValidateArgs(cmdArgs); err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		// Execute the RunE function directly, bypassing the full Execute() flow
		// This avoids re-running PersistentPreRunE which would call initApp() again
		if targetCmd.RunE != nil {
			if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
				fmt.Fprintln(out, err)
			}
		} else if targetCmd.Run != nil {
			targetCmd.Run(targetCmd, cmdArgs)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}

// operationCommands returns loop's subcommands keyed by name
func operationCommands(loop *cobra.Command) map[string]*cobra.Command {
	commands := make(map[string]*cobra.Command)
	for _, subCmd := range loop.Commands() {
		commands[subCmd.Name()] = subCmd
	}
	return commands
}

func printInteractiveHelp(out io.Writer, commands map[string]*cobra.Command) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, " *** Please enter one of the following commands *** ")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(out, "> %s\n", commands[name].Use)
	}
	fmt.Fprintln(out, "> help")
	fmt.Fprintln(out, "> quit")
	fmt.Fprintln(out)
}

// parseCommandLine splits a command line into arguments, respecting quoted strings
// Supports both single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune // 0 if not in quote, '"' or '\'' if in quote
	quoted := false  // an empty "" still produces an argument

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
			quoted = true
		case unicode.IsSpace(r):
			// Whitespace outside quotes - end current argument
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}

	// Add final argument if present
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args, nil
}
