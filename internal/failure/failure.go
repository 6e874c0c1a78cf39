package failure

import (
	"fmt"

	"bankauth/internal/logger"
)

// Failure is a coded operational failure, used for startup and shutdown paths
// where the process logs and usually exits rather than answering a caller.
type Failure struct {
	Code    int
	Message string
	Err     error
}

func (e Failure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e Failure) Unwrap() error {
	return e.Err
}

func (e Failure) WithErr(err error) Failure {
	return Failure{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

func (e Failure) LogFatal() {
	event := logger.Fatal().Int("code", e.Code)
	if e.Err != nil {
		event = event.Err(e.Err)
	}
	event.Msg(e.Message)
}

func (e Failure) Warn() {
	event := logger.Warn().Int("code", e.Code)
	if e.Err != nil {
		event = event.Err(e.Err)
	}
	event.Msg(e.Message)
}

func (e Failure) LogError() {
	event := logger.Error().Int("code", e.Code)
	if e.Err != nil {
		event = event.Err(e.Err)
	}
	event.Msg(e.Message)
}
