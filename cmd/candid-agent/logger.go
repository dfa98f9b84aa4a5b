package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

func InitLogger(app string, out io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
}
