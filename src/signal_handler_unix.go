//go:build !windows
// +build !windows

package main

import (
	"log"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/earthquakes/src/utils"
)

func handlePlatformSignal(sig os.Signal, appLogger *utils.Logger) bool {
	switch sig {
	case syscall.SIGUSR1:
		log.Println("Received SIGUSR1, reopening log files...")
		if err := appLogger.RotateLogs(); err != nil {
			log.Printf("Failed to rotate logs: %v", err)
		} else {
			log.Println("Log files reopened")
		}
		return false

	case syscall.SIGUSR2:
		log.Println("Received SIGUSR2, toggling debug mode...")
		if gin.Mode() == gin.DebugMode {
			gin.SetMode(gin.ReleaseMode)
			log.Println("Debug mode: OFF (release mode)")
		} else {
			gin.SetMode(gin.DebugMode)
			log.Println("Debug mode: ON (debug mode)")
		}
		return false
	}
	return false
}
