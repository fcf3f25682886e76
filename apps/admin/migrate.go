package main

import (
	"database/sql"

	"github.com/trezcool/goose"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/database"
)

// mockable
var (
	gooseRunFunc = goose.RunFS
	createDBFunc = database.CreateIfNotExist
	openDBFunc   = func(conf *core.Config) (*sql.DB, error) {
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		return db.DB, nil
	}
)

func (cli *commandLine) migrate(args []string) error {
	db, err := openDBFunc(cli.conf)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	migrations, err := database.MigrationsFS(cli.conf.Database.Tables)
	if err != nil {
		return err
	}

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], db, migrations, database.MigrationsDir, arguments...)
}
