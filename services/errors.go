// file: services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors form the closed result vocabulary of the orchestration
// core. Controllers map them onto message codes; nothing here is retried.
var (
	ErrAlreadyRunning    = errors.New("team already has a container for this problem")
	ErrContainerLimit    = errors.New("team container limit reached")
	ErrPortsExhausted    = errors.New("no free ports in the configured range")
	ErrProblemNotFound   = errors.New("problem does not exist")
	ErrContainerNotFound = errors.New("no running container for this team and problem")
	ErrHandleNotFound    = errors.New("container handle not known to the engine")
)

// EngineError wraps a container engine failure. Retryable failures (daemon
// busy, timeout) get bounded automatic retries; the rest escalate at once.
type EngineError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("docker %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// ProvisioningError covers failures preparing an instance before the engine
// is ever invoked, e.g. the entropy source or a bad image config.
type ProvisioningError struct {
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning: %v", e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is an EngineError marked retryable.
func IsRetryable(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Retryable
}
