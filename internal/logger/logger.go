package logger

import (
	"fmt"
	"time"
)

// ANSI escape codes. The console these binaries run in is assumed
// ANSI-capable; redirected output just carries the codes through.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

func stamp() string {
	return time.Now().Format("15:04:05")
}

func line(color, tag, msg string) {
	fmt.Printf("%s%s%s %s[%s]%s %s\n", dim, stamp(), reset, color, tag, reset, msg)
}

// Info logs a neutral progress message.
func Info(tag, msg string) {
	line(cyan, tag, msg)
}

// Success logs a completed step.
func Success(tag, msg string) {
	line(green, tag, msg)
}

// Warn logs a recoverable anomaly.
func Warn(tag, msg string) {
	line(yellow, tag, msg)
}

// Error logs a failure. It does not exit; callers decide.
func Error(tag, msg string) {
	line(red, tag, msg)
}

// Banner prints the startup header with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s%s", bold, cyan)
	fmt.Println("  ┌─────────────────────────────────────┐")
	fmt.Printf("  │  baticore · devis & planning  %-6s│\n", version)
	fmt.Println("  └─────────────────────────────────────┘")
	fmt.Print(reset)
}

// Section prints a visual divider between demo phases.
func Section(title string) {
	fmt.Printf("\n%s── %s %s%s\n", bold, title, "──────────────────────────", reset)
}

// Stats prints an aligned key/value pair, for end-of-run summaries.
func Stats(key string, value any) {
	fmt.Printf("  %s%-28s%s %v\n", dim, key, reset, value)
}
