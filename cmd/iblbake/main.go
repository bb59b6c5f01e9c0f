package main

import (
	"flag"
	"fmt"
	"iblbake/ibl"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/exp/slices"
)

type impl string

const (
	implGl impl = "opengl"
	implCl impl = "opencl"
	implSw impl = "software"
)

func (i *impl) String() string {
	return string(*i)
}

func (i *impl) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(ibl.BackendNames(), s) {
		return fmt.Errorf("%s is not a valid implementation; one of %s", s, strings.Join(ibl.BackendNames(), ", "))
	}
	*i = impl(s)
	return nil
}

type selection ibl.GenerationSelection

func (sel *selection) String() string {
	return ibl.GenerationSelection(*sel).String()
}

func (sel *selection) Set(s string) error {
	parsed, err := ibl.ParseSelection(s)
	if err != nil {
		return err
	}
	*sel = selection(parsed)
	return nil
}

func init() {
	// GL contexts are bound to the main thread
	runtime.LockOSThread()
}

type commonArgs struct {
	out     string
	quiet   bool
	supress bool
	verbose bool
}

var cargs = &commonArgs{}

type command struct {
	Run   func(self *command)
	Name  string
	Help  string
	Flags *flag.FlagSet
}

var commands = []*command{}

func printGeneralUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [arguments]\n\n", exe)
	fmt.Fprintf(os.Stderr, "The commands are:\n\n")
	longest := slices.MaxFunc(commands, func(a, b *command) int {
		return len(a.Name) - len(b.Name)
	})
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "    %*s%s\n", -len(longest.Name)-4, c.Name, c.Help)
	}
	fmt.Fprintln(os.Stderr, "")
	os.Exit(1)
}

func printCommandUsage(cmd *command, suffix string) {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s %s [arguments]%s\n\n", exe, cmd.Name, suffix)
	fmt.Fprintf(os.Stderr, "The arguments are:\n\n")
	cmd.Flags.SetOutput(os.Stderr)
	cmd.Flags.PrintDefaults()
	os.Exit(1)
}

func main() {
	commands = append(commands, createBakeCommand())
	commands = append(commands, createPreviewCommand())

	slices.SortFunc(commands, func(a, b *command) int {
		return strings.Compare(a.Name, b.Name)
	})

	if len(os.Args) < 2 {
		printGeneralUsage()
	}

	cmd := findCommand(os.Args[1])
	if cmd == nil {
		printGeneralUsage()
	}

	err := cmd.Flags.Parse(os.Args[2:])
	harderr(err)

	cmd.Run(cmd)
}

func findCommand(name string) *command {
	i := slices.IndexFunc(commands, func(c *command) bool {
		return strings.EqualFold(c.Name, name)
	})
	if i < 0 {
		return nil
	}
	return commands[i]
}

func registerCommonFlags(flags *flag.FlagSet, args *commonArgs) {
	flags.StringVar(&args.out, "out", args.out, "the output directory, must exist")
	flags.StringVar(&args.out, "o", args.out, "shorthand for out")
	flags.BoolVar(&args.quiet, "quiet", args.quiet, "disables informational logging")
	flags.BoolVar(&args.quiet, "q", args.quiet, "shorthand for quiet")
	flags.BoolVar(&args.supress, "supress", args.supress, "disables soft error logging")
	flags.BoolVar(&args.verbose, "verbose", args.verbose, "enables debug logging of the baking library")
}

func setCommonArgs(args *commonArgs) {
	cargs = args
	if args.out == "" {
		var err error
		args.out, err = os.Getwd()
		harderr(err)
	}

	harderr(ibl.ValidateOutputDir(args.out))

	if args.verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
		ibl.SetLogger(logger)
	}
}

func gatherInputFiles(globs []string) []string {
	matched := []string{}

	for _, g := range globs {
		m, err := filepath.Glob(g)
		softerr(err)
		matched = append(matched, m...)
	}

	return matched
}

// baseName returns the file name of p without directory and extension.
func baseName(p string) string {
	return strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
}

func infof(format string, a ...any) {
	if !cargs.quiet {
		fmt.Printf(format, a...)
	}
}

func close(closer io.Closer) {
	softerr(closer.Close())
}

func softerr(err error) bool {
	if err != nil && !cargs.supress {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return true
	}
	return err != nil
}

func harderr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
