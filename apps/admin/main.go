package main

import (
	"log"
	"os"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// start CLI
	cli := newCommandLine(conf, logger, os.Stdout)
	err := cli.run(os.Args)
	cli.close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
