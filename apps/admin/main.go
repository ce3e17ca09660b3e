package main

import (
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/apps/api/di/dig"
	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/report"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
	"github.com/trezcool/sajili/services/logger"
)

func newLogger(conf *core.Config) core.Logger {
	std := logsvc.NewZerolog(conf, os.Stderr).With().Str("component", "admin").Logger()
	return logsvc.NewRollbarLogger(std, conf)
}

func main() {
	c := dig_container.New()

	var logger core.Logger
	err := c.Invoke(func(
		conf *core.Config,
		store *dig_container.Store,
		validate *validator.Validate,
		translator ut.Translator,
		usrSvc *user.Service,
		stdSvc *student.Service,
		crsSvc *course.Service,
		rptSvc *report.Service,
	) error {
		logger = newLogger(conf)
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close store", err)
			}
		}()

		cli := commandLine{
			conf:       conf,
			logger:     logger,
			db:         store.DB,
			validate:   validate,
			translator: translator,
			usrSvc:     usrSvc,
			stdSvc:     stdSvc,
			crsSvc:     crsSvc,
			rptSvc:     rptSvc,
			out:        os.Stdout,
		}
		if err := cli.run(os.Args); err != nil {
			if errors.Is(err, errHelp) {
				return err
			}
			return errors.New(cli.describe(err))
		}
		return nil
	})

	if err != nil {
		if !errors.Is(err, errHelp) {
			if logger == nil {
				logger = newLogger(core.NewConfig())
			}
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
