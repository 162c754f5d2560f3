package main

import (
	"fmt"
	"os"

	"github.com/trezcool/elimu/apps/di"
	"github.com/trezcool/elimu/core"
	logsvc "github.com/trezcool/elimu/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf), conf)
	logger.Enable(!conf.Debug)

	if err := core.ParseEmailTemplates(conf, logger); err != nil {
		logger.Fatal(err.Error(), err)
	}
	validate, _ := di.NewValidator()

	cli := &commandLine{
		conf:     conf,
		logger:   logger,
		validate: validate,
		out:      os.Stdout,
	}
	err := cli.run(os.Args)
	cli.close()
	logger.Sync()

	if err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
