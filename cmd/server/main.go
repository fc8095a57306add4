// entry point to app :)
package main

import (
	"errors"
	"os"

	"github.com/ds124wfegd/png-diff-server/config"
	"github.com/ds124wfegd/png-diff-server/internal/appServer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	appServer.NewServer(cfg)
}
