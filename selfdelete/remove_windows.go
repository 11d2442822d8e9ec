//go:build windows

package selfdelete

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	// deleteDelay gives this process time to exit before the detached process deletes it.
	deleteDelay = 2 * time.Second

	detachedProcess = 0x00000008
)

func isExecutable(path string) bool {
	self, err := Executable()
	if err != nil {
		return false
	}
	selfInfo, err := os.Stat(self)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return os.SameFile(selfInfo, info)
}

// remove deletes path. Windows keeps the image of a running executable locked,
// so deleting ourselves is handed to a detached cmd.exe that outlives this process.
func remove(path string) error {
	if !isExecutable(path) {
		return os.Remove(path)
	}

	// ping is the usual way to sleep in cmd.exe without a console, it waits about a second per echo request.
	script := fmt.Sprintf(`ping -n %d 127.0.0.1 > NUL & del /F /Q "%s"`, int(deleteDelay/time.Second)+1, path)
	cmd := exec.Command("cmd.exe")
	cmd.SysProcAttr = &syscall.SysProcAttr{
		// cmd.exe does not understand the quoting applied to Args, pass the raw command line instead.
		CmdLine:       `cmd.exe /C ` + script,
		HideWindow:    true,
		CreationFlags: detachedProcess | syscall.CREATE_NEW_PROCESS_GROUP,
	}

	return cmd.Start()
}
