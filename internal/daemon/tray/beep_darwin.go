package tray

import "os/exec"

func beep() {
	_ = exec.Command("osascript", "-e", "beep").Run()
}
