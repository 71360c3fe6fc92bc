package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/gradebook/core/grading"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db  *sql.DB
	svc grading.ServiceInterface
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                    - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  hashpassword                              - hash the admin password for ADMIN_PASSWORDHASH")
	fmt.Fprintln(cli.out, "  recompute -subject NAME [-student CODE]   - recompute final grades")
}

// needsDB reports whether the command in args talks to the database.
func needsDB(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "migrate", "recompute":
		return true
	default:
		return false
	}
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	recomputeCmd := flag.NewFlagSet("recompute", flag.ContinueOnError)
	recomputeCmd.SetOutput(cli.out)
	recomputeSubject := recomputeCmd.String("subject", "", "The subject's name.")
	recomputeStudent := recomputeCmd.String("student", "", "Only recompute this student's final grade (code).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(pwd)
	case "recompute":
		if err := recomputeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *recomputeSubject == "" {
			recomputeCmd.Usage()
			return errHelp
		}
		return cli.recompute(*recomputeSubject, *recomputeStudent)
	default:
		cli.printUsage()
		return errHelp
	}
}
