package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Paste(ctx context.Context, scanner *bufio.Scanner) error
	AddFiles(ctx context.Context, paths []string) error
	List(ctx context.Context) error
	More(ctx context.Context) error
	Stats(ctx context.Context) error
	Refresh(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Anonymize(ctx context.Context, id string, value bool) error
	Process(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the harvesting shell.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	help          — show available commands
//	paste         — read URL lines until a blank line, then ingest
//	add <path>…   — ingest files from disk
//	list          — refresh and print the first page
//	more          — load the next page
//	stats         — print aggregate statistics
//	refresh       — re-read the list from the store
//	del <id>      — delete an item (and its blob, if any)
//	anon <id> on|off — toggle the anonymize preference
//	process       — start processing all pending items
//	exit | quit   — leave the program
//
// Any errors returned by command handlers are printed here; handlers return
// rather than log so the loop stays the single point of user I/O.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printlnFn("harvest> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: paste, add <path>..., list, more, stats, refresh, del <id>, anon <id> on|off, process, exit")

		case "paste":
			err = a.Paste(ctx, scanner)

		case "add":
			if len(args) == 0 {
				printlnFn("usage: add <path>...")
				continue
			}
			err = a.AddFiles(ctx, args)

		case "list":
			err = a.List(ctx)

		case "more":
			err = a.More(ctx)

		case "stats":
			err = a.Stats(ctx)

		case "refresh":
			err = a.Refresh(ctx)

		case "del":
			if len(args) != 1 {
				printlnFn("usage: del <id>")
				continue
			}
			err = a.Delete(ctx, args[0])

		case "anon":
			if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
				printlnFn("usage: anon <id> on|off")
				continue
			}
			err = a.Anonymize(ctx, args[0], args[1] == "on")

		case "process":
			err = a.Process(ctx)

		case "exit", "quit":
			return

		default:
			printlnFn(fmt.Sprintf("Unknown command: %s (try 'help')", cmd))
		}

		if err != nil {
			printlnFn(fmt.Sprintf("Error: %v", err))
		}
	}
}
