//go:build windows
// +build windows

package main

import (
	"os"
	"syscall"

	"github.com/apimgr/earthquakes/src/utils"
)

var platformSignals = []syscall.Signal{}

func handlePlatformSignal(sig os.Signal, appLogger *utils.Logger) bool {
	// No SIGUSR1/SIGUSR2 on Windows; nothing to handle beyond the base set
	return false
}
