// Command prim runs PRIM box discovery over experiment results and serves
// the stored runs.
//
// Usage:
//
//	prim run -config run.json -data results.csv [-boxes N] [-out dir] [-db prim.db] [-plots]
//	prim serve [-db prim.db] [-listen :8080]
//	prim migrate up|down|status|to N|force N [-db prim.db]
//	prim version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/prim/internal/db"
	"github.com/banshee-data/prim/internal/version"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("prim: %v", err)
	}
}

func dispatch(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return errUsage
	}
	switch args[0] {
	case "run":
		return runCommand(ctx, args[1:], stdout)
	case "serve":
		return serveCommand(ctx, args[1:])
	case "migrate":
		return migrateCommand(args[1:], stdout)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

// migrateCommand accepts -db anywhere after the action.
func migrateCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", db.DefaultPath, "SQLite database path")

	var positional []string
	for len(args) > 0 {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	return db.RunMigrateCommand(positional, *dbPath, stdout)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: prim <command> [flags]

Commands:
  run       Find boxes in a results file, print and export them
  serve     Serve stored runs over HTTP
  migrate   Manage the database schema
  version   Print build information
`)
}
