package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pensezy/EduTrack-CM-sub003/apps/di"
	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := core.NewTestConfig()
	conf.Database.Engine = di.EngineMemory

	var out bytes.Buffer
	cli := newCommandLine(conf, testutil.NewLogger(conf), &out)
	t.Cleanup(cli.close)
	return cli, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	openDBFunc = func(*core.Config) (*sql.DB, error) { return nil, nil }
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
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

	runCLITests(t, cli, out, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "guardian_notes", "sql"}},
	})

	t.Run("configured table names", func(t *testing.T) {
		cli.conf.Database.Tables.People = "guardian_person"
		var got fs.FS
		gooseRunFunc = func(_ string, _ *sql.DB, fsys fs.FS, dir string, _ ...string) error {
			got = fsys
			assert.Equal(t, "migrations", dir)
			return nil
		}

		require.NoError(t, cli.run([]string{"admin", "migrate", "up"}))
		require.NotNil(t, got)
		raw, err := fs.ReadFile(got, "migrations/00002_create_person.sql")
		require.NoError(t, err)
		assert.Contains(t, string(raw), `CREATE TABLE IF NOT EXISTS "guardian_person"`)
		assert.NotContains(t, string(raw), "{{")
	})
}

func Test_commandLine_createdb(t *testing.T) {
	cli, out := setup(t)
	cli.conf.Database.AdminUser = "postgres"

	var gotPwd string
	createDBFunc = func(conf *core.Config) error {
		gotPwd = conf.Database.AdminPassword
		return nil
	}
	readPasswordFunc = func(int) ([]byte, error) { return []byte("s3cr3t"), nil }

	runCLITests(t, cli, out, []cliTest{
		{name: "prompts admin password", args: []string{"createdb"}, wantOut: "Enter password for postgres:"},
	})
	assert.Equal(t, "s3cr3t", gotPwd)
}

func Test_commandLine_registry(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "addschool: no args", args: []string{"addschool"}, wantErr: errHelp},
		{name: "addschool", args: []string{"addschool", "-code", "lbd", "-name", "Lycee Bilingue de Deido"}, wantOut: "school LBD created"},
		{name: "addstudent: unknown school", args: []string{"addstudent", "-school", "nope", "-given", "Amina"}, wantErrStr: "school not found: NOPE"},
		{name: "addstudent", args: []string{"addstudent", "-school", "LBD", "-given", "Amina", "-family", "Njoya"}, wantOut: "student Amina Njoya enrolled at LBD"},
		{name: "findperson: no args", args: []string{"findperson"}, wantErr: errHelp},
		{name: "findperson: no match", args: []string{"findperson", "-search", "mbarga"}, wantOut: "no match"},
		{name: "summary: no args", args: []string{"summary"}, wantErr: errHelp},
		{name: "summary: unknown", args: []string{"summary", "-id", "nope"}, wantErrStr: "person not found: nope"},
	})

	c, err := cli.container()
	require.NoError(t, err)
	p, created, err := c.Registry.GetOrCreate(testutil.StaffContext(""), person.Candidate{
		GivenName: "Paul", FamilyName: "Mbarga", Email: "paul@mail.cm",
	})
	require.NoError(t, err)
	require.True(t, created)

	runCLITests(t, cli, out, []cliTest{
		{name: "findperson by search", args: []string{"findperson", "-search", "mbarga"}, wantOut: p.GlobalID},
		{name: "findperson by email", args: []string{"findperson", "-email", "PAUL@mail.cm"}, wantOut: "Paul Mbarga"},
		{name: "summary", args: []string{"summary", "-id", p.GlobalID}, wantOut: `"total_schools": 0`},
	})
}
