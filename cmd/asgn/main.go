package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/cli"
	"github.com/classtools/asgn/internal/config"
)

func main() {
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)

	if err := cli.Execute(cfg); err != nil {
		apperr.Render(os.Stderr, err)
		os.Exit(1)
	}
}
