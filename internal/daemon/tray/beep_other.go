//go:build !darwin

package tray

import "fmt"

func beep() {
	fmt.Print("\a")
}
