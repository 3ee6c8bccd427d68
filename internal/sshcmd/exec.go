package sshcmd

import (
	"fmt"
	"os"
	"syscall"
)

const shellPath = "/bin/sh"

// execFunc replaces the process image. Tests swap it out.
var execFunc = syscall.Exec

// Exec hands the terminal over to argv by replacing the current process
// with /bin/sh. It only returns on failure.
func Exec(argv []string) error {
	if err := execFunc(shellPath, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", shellPath, err)
	}

	return nil
}
