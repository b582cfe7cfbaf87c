package log

import (
	"os"

	"github.com/Luismorlan/dailydrop/utils/dotenv"
	"github.com/Luismorlan/dailydrop/utils/flag"
	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()

	// Prod emits json for log collection, dev keeps the plain text formatter
	// for better readability.
	if os.Getenv("DAILYDROP_ENV") == dotenv.ProdEnv {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetOutput(os.Stderr)

	Log = logger.WithFields(
		logrus.Fields{"service": *flag.ServiceName, "is_development": os.Getenv("DAILYDROP_ENV") != dotenv.ProdEnv},
	)
}
