package observability

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
	ColorMag    = "\033[95m"
	ColorCyan   = "\033[96m"
)

// TermWidth reports the terminal width, falling back to 80 columns when
// stdout is not a terminal.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func rule() string {
	width := TermWidth()
	if width > 72 {
		width = 72
	}
	line := make([]byte, width)
	for i := range line {
		line[i] = '='
	}
	return string(line)
}

// PrintBanner prints the startup banner with the active provider name.
func PrintBanner(provider string) {
	fmt.Println(ColorYellow + rule() + ColorReset)
	fmt.Println(ColorYellow + ColorBold + "  sahayak :: AI task agent" + ColorReset)
	fmt.Printf(ColorYellow+"  provider: %s"+ColorReset+"\n", provider)
	fmt.Println(ColorYellow + "  type 'exit' to quit" + ColorReset)
	fmt.Println(ColorYellow + rule() + ColorReset)
}

// Uptime reports how long the process has been running.
func Uptime() time.Duration {
	return time.Since(startTime)
}
