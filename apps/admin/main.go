package main

import (
	"log"
	"os"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
	logsvc "github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage/database"
	sqlxrepos "github.com/trezcool/gradebook/storage/database/sqlx"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	cli := commandLine{out: os.Stdout}

	// set up DB
	if needsDB(args) {
		db, err := database.Open(conf)
		if err != nil {
			logger.Error("opening database", err)
			return 1
		}
		defer func() { _ = db.Close() }()
		if err = db.Ping(); err != nil {
			logger.Error("pinging database", err)
			return 1
		}

		cli.db = db
		cli.svc = grading.NewService(sqlxrepos.NewGradingRepository(db), logger)
	}

	// start CLI
	if err := cli.run(args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}
