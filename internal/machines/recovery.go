package machines

import (
	"context"
	"errors"
	"log/slog"
	"time"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/alexjbarnes/build-cli/internal/retry"
)

// DefaultStartGrace is how long to wait after a machine start before
// retrying the operation that needed it.
const DefaultStartGrace = 3 * time.Second

// WithRecovery runs op. If it fails with ErrMachineNotStarted, startMachine
// is called once; when it reports a restart op is rerun exactly once and
// that outcome is returned. Any other failure is returned unchanged.
func WithRecovery[T any](
	ctx context.Context,
	op func(ctx context.Context) (T, error),
	startMachine func(ctx context.Context) (bool, error),
) (T, error) {
	return retry.RecoverOnce(ctx, op, isMachineNotStarted, startMachine)
}

func isMachineNotStarted(err error) bool {
	return errors.Is(err, builderr.ErrMachineNotStarted)
}

// Starter boots the machine.
type Starter interface {
	Start(ctx context.Context, region, size string) (Response, error)
}

// AutoStart is the standard recovery continuation: start the machine,
// wait out the boot grace period and report a restart.
type AutoStart struct {
	Machine Starter
	Region  string
	Size    string
	Grace   time.Duration
	Logger  *slog.Logger

	// Wait replaces retry.Sleep for the grace period.
	Wait func(ctx context.Context, d time.Duration) error
}

// Run satisfies the startMachine signature of WithRecovery.
func (a AutoStart) Run(ctx context.Context) (bool, error) {
	region, size := a.Region, a.Size
	if region == "" {
		region = DefaultRegion
	}

	if size == "" {
		size = DefaultSize
	}

	if a.Logger != nil {
		a.Logger.Debug("machine not started, starting it", slog.String("region", region), slog.String("size", size))
	}

	if _, err := a.Machine.Start(ctx, region, size); err != nil {
		return false, err
	}

	wait := a.Wait
	if wait == nil {
		wait = retry.Sleep
	}

	if err := wait(ctx, a.Grace); err != nil {
		return false, err
	}

	return true, nil
}
