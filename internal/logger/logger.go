package logger

import "go.uber.org/zap"

// New builds the logger used by the server binaries. Development mode gives
// human-readable console output for local runs without a database.
func New(development bool) (*zap.SugaredLogger, error) {
	var (
		log *zap.Logger
		err error
	)
	if development {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
