package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/gradebook/core/grading"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	"github.com/trezcool/gradebook/testutil"
)

func setup(t *testing.T) (*commandLine, grading.Repository, *bytes.Buffer) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	repo := inmemdb.NewGradingRepository(db)

	out := new(bytes.Buffer)
	return &commandLine{
		svc: grading.NewService(repo, testutil.NewLogger()),
		out: out,
	}, repo, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case err == nil:
				if tt.wantErr != nil || tt.wantErrStr != "" {
					t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
				}
			case tt.wantErr != nil:
				if errors.Cause(err) != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			default:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
}

func Test_needsDB(t *testing.T) {
	assert.False(t, needsDB([]string{"admin"}))
	assert.False(t, needsDB([]string{"admin", "hashpassword"}))
	assert.True(t, needsDB([]string{"admin", "migrate", "up"}))
	assert.True(t, needsDB([]string{"admin", "recompute", "-subject", "Math"}))
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_cut_labels", "sql"}},
	})
}

func Test_commandLine_hashPassword(t *testing.T) {
	cli, _, out := setup(t)

	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })

	t.Run("empty password", func(t *testing.T) {
		readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
		runCLITests(t, cli, []cliTest{{name: "no input", args: []string{"hashpassword"}, wantErr: errHelp}})
	})

	t.Run("read error", func(t *testing.T) {
		readErr := errors.New("not a terminal")
		readPasswordFunc = func(fd int) ([]byte, error) { return nil, readErr }
		runCLITests(t, cli, []cliTest{{name: "not a terminal", args: []string{"hashpassword"}, wantErr: readErr}})
	})

	t.Run("prints a matching hash", func(t *testing.T) {
		out.Reset()
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte("Pwd#123!"), nil }

		require.NoError(t, cli.run([]string{"admin", "hashpassword"}))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		hash := lines[len(lines)-1]
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Pwd#123!")))
	})
}

func Test_commandLine_recompute(t *testing.T) {
	cli, repo, out := setup(t)

	std := testutil.CreateStudent(t, repo, "S1", "Ana", "Lopez", grading.SexFemale)
	testutil.CreateStudent(t, repo, "S2", "Luis", "Perez", grading.SexMale)
	sub := testutil.CreateSubject(t, repo, "Math", 4)
	cut1 := testutil.CreateCut(t, repo, sub, 1, "30")
	cut2 := testutil.CreateCut(t, repo, sub, 2, "30")
	cut3 := testutil.CreateCut(t, repo, sub, 3, "40")
	testutil.CreateGrade(t, repo, std, cut1, "4.0")
	testutil.CreateGrade(t, repo, std, cut2, "3.0")
	testutil.CreateGrade(t, repo, std, cut3, "5.0")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"recompute"}, wantErr: errHelp},
		{name: "unknown subject", args: []string{"recompute", "-subject", "History"}, wantErr: grading.ErrSubjectNotFound},
		{name: "unknown student", args: []string{"recompute", "-subject", "Math", "-student", "S9"}, wantErr: grading.ErrStudentNotFound},
	})

	t.Run("single student", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "recompute", "-subject", "Math", "-student", "S1"}))
		assert.Equal(t, "S1 Math: 4.10\n", out.String())

		fg, err := cli.svc.GetFinalGrade(context.Background(), std.ID, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, "4.10", fg.Value.StringFixed(2))
	})

	t.Run("whole subject", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "recompute", "-subject", "Math"}))
		assert.Equal(t, "Math: 1 final grade(s) recomputed\n", out.String())
	})
}
