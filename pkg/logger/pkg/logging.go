package logging

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type requestIDKey struct{}

var _logger = NewTmpLogger()

// NewLogger builds a zap logger from the log.* config section.
func NewLogger() (*zap.Logger, error) {
	var c zap.Config
	var opts []zap.Option
	if viper.GetBool("log.pretty") {
		c = zap.NewDevelopmentConfig()
		opts = append(opts, zap.AddStacktrace(zap.ErrorLevel))
	} else {
		c = zap.NewProductionConfig()
	}

	level := zap.NewAtomicLevel()

	levelName := viper.GetString("log.level")
	if levelName == "" {
		levelName = "INFO"
	}

	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("could not parse log level %s", levelName)
	}
	c.Level = level

	return c.Build(opts...)
}

func InitLogger() (err error) {
	_logger, err = NewLogger()
	return err
}

func NewTmpLogger() *zap.Logger {
	c := zap.NewProductionConfig()
	c.DisableStacktrace = true
	l, err := c.Build()
	if err != nil {
		panic(err)
	}
	return l
}

// WithRequestID stores a request id on the context for Logger to pick up.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Logger Return new logger with context value
// ctx:  nillable
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return _logger
	}
	requestID, ok := ctx.Value(requestIDKey{}).(string)
	if !ok || requestID == "" {
		return _logger
	}
	return _logger.With(zap.String("request_id", requestID))
}
