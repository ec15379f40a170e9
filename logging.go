package main

import (
	"github.com/fatih/color"
)

// Colorized logging helpers, one family of calls used across every
// subsystem instead of raw fmt.Println. Decode errors go through logWarn;
// validation failures are dropped without a log call; blocks the miner
// accepts go through logMiner.

func logSuccess(format string, a ...interface{}) {
	color.Green("✅ "+format, a...)
}

func logError(format string, a ...interface{}) {
	color.Red("⛔ "+format, a...)
}

func logInfo(format string, a ...interface{}) {
	color.Cyan("ℹ️  "+format, a...)
}

func logWarn(format string, a ...interface{}) {
	color.Yellow("⚠️  "+format, a...)
}

func logMiner(format string, a ...interface{}) {
	c := color.New(color.FgYellow, color.Bold)
	c.Printf("⛏️  "+format+"\n", a...)
}

func logNetwork(format string, a ...interface{}) {
	c := color.New(color.FgBlue)
	c.Printf("🌐 "+format+"\n", a...)
}
