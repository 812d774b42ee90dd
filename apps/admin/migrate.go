package main

import (
	"github.com/trezcool/goose"

	appfs "github.com/bitbox360/backend/fs"
	"github.com/bitbox360/backend/storage/database"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	db, err := database.Open(cli.conf)
	if err != nil {
		return err
	}
	defer db.Close()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], db.DB, appfs.FS, "migrations", arguments...)
}
