package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/Pensezy/EduTrack-CM-sub003/apps/di"
	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	out    io.Writer
	c      *di.Container // set up on first use
}

func newCommandLine(conf *core.Config, logger core.Logger, out io.Writer) *commandLine {
	return &commandLine{conf: conf, logger: logger, out: out}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                               - run a goose migration command (up, down, status...)")
	fmt.Fprintln(cli.out, "  createdb                                             - create the app user and database if missing")
	fmt.Fprintln(cli.out, "  addschool -code CODE -name NAME [-city CITY]         - register a school")
	fmt.Fprintln(cli.out, "  addstudent -school CODE -given NAME [-family NAME]   - enrol a student at a school")
	fmt.Fprintln(cli.out, "  findperson -search TERM | -email EMAIL | -phone PHONE - look up identities")
	fmt.Fprintln(cli.out, "  summary -id GLOBAL_ID                                - print the cross-school summary of an identity")
}

func (cli *commandLine) container() (*di.Container, error) {
	if cli.c == nil {
		c, err := di.New(context.Background(), cli.conf, cli.logger, cli.logger)
		if err != nil {
			return nil, err
		}
		cli.c = c
	}
	return cli.c, nil
}

func (cli *commandLine) close() {
	if cli.c != nil {
		if err := cli.c.Close(); err != nil {
			cli.logger.Error("closing dependencies", err)
		}
		cli.c = nil
	}
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "createdb":
		if cli.conf.Database.AdminUser != "" && cli.conf.Database.AdminPassword == "" {
			fmt.Fprintf(cli.out, "Enter password for %s:", cli.conf.Database.AdminUser)
			pwd, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cli.out)
			if err != nil {
				return err
			}
			cli.conf.Database.AdminPassword = string(pwd)
		}
		return createDBFunc(cli.conf)

	case "addschool":
		cmd := flag.NewFlagSet("addschool", flag.ContinueOnError)
		code := cmd.String("code", "", "The school's short code, used to prefix local identifiers.")
		name := cmd.String("name", "", "The school's name.")
		city := cmd.String("city", "", "The school's city.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *code == "" || *name == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addSchool(*code, *name, *city)

	case "addstudent":
		cmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
		schoolCode := cmd.String("school", "", "The code of the student's school.")
		given := cmd.String("given", "", "The student's given name.")
		family := cmd.String("family", "", "The student's family name.")
		class := cmd.String("class", "", "The student's class.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *schoolCode == "" || *given == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addStudent(*schoolCode, *given, *family, *class)

	case "findperson":
		cmd := flag.NewFlagSet("findperson", flag.ContinueOnError)
		search := cmd.String("search", "", "A name, email, phone or specialization fragment.")
		email := cmd.String("email", "", "An exact email.")
		phone := cmd.String("phone", "", "An exact phone number.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *search == "" && *email == "" && *phone == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.findPerson(*search, *email, *phone)

	case "summary":
		cmd := flag.NewFlagSet("summary", flag.ContinueOnError)
		id := cmd.String("id", "", "The identity's global id.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *id == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.summary(*id)

	default:
		cli.printUsage()
		return errHelp
	}
}
