package db

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrUnknownMigrateAction is returned for an unrecognised migrate subcommand.
var ErrUnknownMigrateAction = errors.New("unknown migrate action")

// RunMigrateCommand handles the 'migrate' subcommand: up, down, status,
// to <version>, force <version>.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("%w: none given", ErrUnknownMigrateAction)
	}
	action := args[0]
	if action == "help" {
		PrintMigrateHelp(out)
		return nil
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch action {
	case "up":
		if err := database.MigrateUp(); err != nil {
			return err
		}
		fmt.Fprintln(out, "All migrations applied")
		return printStatus(database, out)

	case "down":
		if err := database.MigrateDown(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Rolled back one migration")
		return printStatus(database, out)

	case "status":
		return printStatus(database, out)

	case "to", "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: prim migrate %s <version>", action)
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if action == "to" {
			err = database.MigrateTo(uint(v))
		} else {
			err = database.MigrateForce(int(v))
		}
		if err != nil {
			return err
		}
		return printStatus(database, out)

	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("%w: %s", ErrUnknownMigrateAction, action)
	}
}

func printStatus(database *DB, out io.Writer) error {
	st, err := database.GetMigrationStatus()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current version: %d\n", st.Current)
	fmt.Fprintf(out, "Latest version:  %d\n", st.Latest)
	if st.Dirty {
		fmt.Fprintln(out, "State:           DIRTY (run 'prim migrate force <version>' to recover)")
	} else if st.Pending() {
		fmt.Fprintf(out, "State:           %d migration(s) pending\n", st.Latest-st.Current)
	} else {
		fmt.Fprintln(out, "State:           up to date")
	}
	fmt.Fprintf(out, "Tables:          %s\n", strings.Join(st.Tables, ", "))
	return nil
}

// PrintMigrateHelp writes usage for the migrate subcommand.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: prim migrate <action> [-db path]

Actions:
  up               Apply all pending migrations
  down             Roll back the most recent migration
  status           Show the applied and latest versions
  to <version>     Migrate up or down to a specific version
  force <version>  Set the recorded version without running migrations
  help             Show this help
`)
}
