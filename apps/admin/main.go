package main

import (
	"log"
	"os"

	"github.com/bitbox360/backend/core"
)

var logger *log.Logger // todo: logger service

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	workDir, err := core.Getwd("backend")
	if err != nil {
		workDir, _ = os.Getwd()
	}
	conf, err := core.NewConfig(workDir)
	errAndDie(err)

	// start CLI
	cli := commandLine{conf: conf}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
