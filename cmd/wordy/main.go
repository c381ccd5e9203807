// wordy is a word-frequency shell over a persistent wordindex store.
//
// Usage:
//
//	wordy [opts] [<store-file>]        Open a store and run the shell
//	wordy new [opts] <store-file>      Provision a new store file
//
// Options:
//
//	-t, --truncate      Reset the store on open, discarding all data
//	-c, --config        Explicit config file (JWCC)
//
// Options for 'new':
//
//	-s, --size          Backing file size (bytes, or with K/M/G suffix)
//
// Commands (in the shell):
//
//	add <text...>       Insert every whitespace-separated word
//	count <word>        Show a word's occurrence count
//	del <word>          Remove a word entirely
//	list [limit]        Print words in ascending order with counts
//	stats               Show items/unique/region usage
//	help                Show this help
//	exit / quit / q     Exit
//
// When stdin is not a terminal, wordy reads lines from it, inserts every
// whitespace-separated token, and exits — no shell.
package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
	"github.com/spf13/pflag"

	"github.com/calvinalkan/wordvault/pkg/wordindex"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 && args[0] == "new" {
		return runNew(args[1:])
	}

	return runOpen(args)
}

func runNew(args []string) error {
	flags := pflag.NewFlagSet("new", pflag.ContinueOnError)

	sizeSpec := flags.StringP("size", "s", "", "backing file size (bytes, or K/M/G suffix)")
	configPath := flags.StringP("config", "c", "", "explicit config file")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wordy new [options] <store-file>\n\n")
		fmt.Fprintf(os.Stderr, "Provision a new store file and open the shell on it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
	}

	err := flags.Parse(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}

		return err
	}

	if flags.NArg() < 1 {
		flags.Usage()

		return errors.New("missing store file path")
	}

	storePath := flags.Arg(0)

	if _, err := os.Stat(storePath); err == nil {
		return fmt.Errorf("store file already exists: %s (use 'wordy %s' to open it)", storePath, storePath)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := LoadConfig(workDir, *configPath, os.Environ())
	if err != nil {
		return err
	}

	size := cfg.SizeBytes

	if *sizeSpec != "" {
		size, err = parseSize(*sizeSpec)
		if err != nil {
			return err
		}
	}

	// The region never grows its backing file, so the whole zeroed image
	// is materialized up front. Atomic write: either the full-size file
	// appears or nothing does.
	err = atomic.WriteFile(storePath, bytes.NewReader(make([]byte, size)))
	if err != nil {
		return fmt.Errorf("creating store file: %w", err)
	}

	fmt.Printf("Created %s (%d bytes)\n", storePath, size)

	return openAndRun(storePath, true)
}

func runOpen(args []string) error {
	flags := pflag.NewFlagSet("wordy", pflag.ContinueOnError)

	truncate := flags.BoolP("truncate", "t", false, "reset the store, discarding all data")
	configPath := flags.StringP("config", "c", "", "explicit config file")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wordy [options] [<store-file>]\n\n")
		fmt.Fprintf(os.Stderr, "Open a store file and run the shell. Without an argument the\n")
		fmt.Fprintf(os.Stderr, "configured store path is used. Run 'wordy new --help' to create one.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
	}

	err := flags.Parse(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}

		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := LoadConfig(workDir, *configPath, os.Environ())
	if err != nil {
		return err
	}

	storePath := cfg.Store
	if flags.NArg() > 0 {
		storePath = flags.Arg(0)
	}

	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		return fmt.Errorf("store file does not exist: %s (use 'wordy new %s' to create it)", storePath, storePath)
	}

	return openAndRun(storePath, *truncate)
}

func openAndRun(storePath string, truncate bool) error {
	ix, err := wordindex.Open(storePath, truncate)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer ix.Close()

	if !stdinIsTerminal() {
		return ingest(ix, os.Stdin)
	}

	repl := &REPL{ix: ix, store: storePath}

	return repl.Run()
}

// stdinIsTerminal reports whether stdin is an interactive terminal.
func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

// ingest reads lines from r and inserts every whitespace-separated token.
func ingest(ix *wordindex.Index, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		for _, word := range strings.Fields(scanner.Text()) {
			err := ix.Insert(word)
			if err != nil {
				return fmt.Errorf("inserting: %w", err)
			}
		}
	}

	err := scanner.Err()
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Printf("%d words, %d unique\n", ix.Items(), ix.Unique())

	return nil
}

// parseSize parses a byte count with an optional K/M/G suffix.
func parseSize(s string) (uint64, error) {
	mult := uint64(1)

	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		mult = 1 << 10
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		mult = 1 << 20
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "G"), strings.HasSuffix(s, "g"):
		mult = 1 << 30
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	return n * mult, nil
}

// REPL is the interactive command loop.
type REPL struct {
	ix    *wordindex.Index
	store string
	liner *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".wordy_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("wordy - %s (%d words, %d unique)\n", r.store, r.ix.Items(), r.ix.Unique())
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("wordy> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "add", "insert", "put":
			r.cmdAdd(args)

		case "count", "exists", "get":
			r.cmdCount(args)

		case "del", "delete", "rm":
			r.cmdDelete(args)

		case "list", "ls", "words":
			r.cmdList(args)

		case "stats", "info":
			r.cmdStats()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

// saveHistory persists command history to disk.
func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// completer provides tab completion for commands.
func (r *REPL) completer(line string) []string {
	commands := []string{
		"add", "insert", "put",
		"count", "exists", "get",
		"del", "delete", "rm",
		"list", "ls", "words",
		"stats", "info", "clear", "cls",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  add <text...>       Insert every whitespace-separated word")
	fmt.Println("  count <word>        Show a word's occurrence count")
	fmt.Println("  del <word>          Remove a word entirely")
	fmt.Println("  list [limit]        Print words in ascending order with counts")
	fmt.Println("  stats               Show items/unique/region usage")
	fmt.Println("  help                Show this help")
	fmt.Println("  exit / quit / q     Exit")
}

func (r *REPL) cmdAdd(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: add <text...>")

		return
	}

	for _, word := range args {
		err := r.ix.Insert(word)
		if err != nil {
			fmt.Printf("Error: %v\n", err)

			return
		}
	}

	fmt.Printf("ok (%d words, %d unique)\n", r.ix.Items(), r.ix.Unique())
}

func (r *REPL) cmdCount(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: count <word>")

		return
	}

	n := r.ix.Count(args[0])
	if n == 0 {
		fmt.Printf("%q is not indexed\n", args[0])

		return
	}

	fmt.Printf("%q: %d\n", args[0], n)
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: del <word>")

		return
	}

	err := r.ix.Delete(args[0])
	if err != nil {
		if errors.Is(err, wordindex.ErrNotFound) {
			fmt.Printf("%q is not indexed\n", args[0])

			return
		}

		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("deleted %q (%d words, %d unique)\n", args[0], r.ix.Items(), r.ix.Unique())
}

func (r *REPL) cmdList(args []string) {
	limit := 0

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			fmt.Println("Usage: list [limit]")

			return
		}

		limit = n
	}

	printed := 0

	r.ix.Walk(func(word string, count uint64) {
		if limit > 0 && printed >= limit {
			return
		}

		fmt.Printf("%8d  %s\n", count, word)
		printed++
	})

	if limit > 0 && r.ix.Unique() > uint64(limit) {
		fmt.Printf("... (%d more)\n", r.ix.Unique()-uint64(limit))
	}
}

func (r *REPL) cmdStats() {
	fmt.Printf("Store:     %s\n", r.store)
	fmt.Printf("Items:     %d\n", r.ix.Items())
	fmt.Printf("Unique:    %d\n", r.ix.Unique())
	fmt.Printf("Utilized:  %d bytes\n", r.ix.Utilized())
	fmt.Printf("Capacity:  %d bytes\n", r.ix.Capacity())
}
