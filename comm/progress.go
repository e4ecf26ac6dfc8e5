package comm

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressScale is the bar's resolution when no byte total is known
const progressScale = 10000

// ProgressTheme contains all the characters we need to show progress
type ProgressTheme struct {
	BarStart        string
	BarEnd          string
	Current         string
	CurrentHalfTone string
	Empty           string
	OpSign          string
	StatSign        string
}

var themes = map[string]*ProgressTheme{
	"unicode": {"▐", "▌", "▓", "▒", "░", "•", "✓"},
	"ascii":   {"|", "|", "#", "=", "-", ">", "<"},
	"cp437":   {"▐", "▌", "█", "▒", "░", "∙", "√"},
}

func (th *ProgressTheme) barTheme() progressbar.Theme {
	return progressbar.Theme{
		Saucer:        th.Current,
		SaucerHead:    th.CurrentHalfTone,
		SaucerPadding: th.Empty,
		BarStart:      th.BarStart,
		BarEnd:        th.BarEnd,
	}
}

func getCharset() string {
	if runtime.GOOS == "windows" && os.Getenv("OS") != "CYGWIN" {
		return "cp437"
	}

	var utf8 = ".UTF-8"
	if strings.Contains(os.Getenv("LC_ALL"), utf8) ||
		os.Getenv("LC_CTYPE") == "UTF-8" ||
		strings.Contains(os.Getenv("LANG"), utf8) {
		return "unicode"
	}

	return "ascii"
}

var theme = themes[getCharset()]

// GetTheme returns the theme used to show progress
func GetTheme() *ProgressTheme {
	return theme
}

// all of the following is guarded by outputMu
var (
	bar        *progressbar.ProgressBar
	barMax     int64
	barStarted time.Time
	barPaused  bool

	lastProgressAlpha = 0.0
	lastJsonPrintTime time.Time
)

var maxJsonPrintDuration = 500 * time.Millisecond

const maxLabelLength = 40

// ProgressLabel sets the string printed next to the progress indicator
func ProgressLabel(label string) {
	outputMu.Lock()
	defer outputMu.Unlock()

	if bar == nil {
		return
	}

	if len(label) > maxLabelLength {
		label = fmt.Sprintf("...%s", label[len(label)-(maxLabelLength-3):])
	}
	bar.Describe(label)
}

// StartProgress begins a period in which progress is regularly printed
func StartProgress() {
	StartProgressWithTotalBytes(0)
}

// StartProgressWithTotalBytes begins a period in which progress is regularly printed,
// and bps (bytes per second) is estimated from the total size given
func StartProgressWithTotalBytes(totalBytes int64) {
	outputMu.Lock()
	defer outputMu.Unlock()

	if bar != nil {
		// Already in-progress
		return
	}

	barMax = totalBytes
	if barMax <= 0 {
		barMax = progressScale
	}
	barStarted = time.Now()
	barPaused = false

	bar = progressbar.NewOptions64(barMax,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowBytes(totalBytes > 0),
		progressbar.OptionUseIECUnits(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetTheme(theme.barTheme()),
		// use bar for ETA, but don't print
		progressbar.OptionSetVisibility(!(settings.noProgress || settings.quiet || settings.json)),
	)
	bar.Set64(int64(lastProgressAlpha * float64(barMax)))
}

// PauseProgress temporarily stops printing the progress bar
func PauseProgress() {
	outputMu.Lock()
	defer outputMu.Unlock()

	if bar != nil {
		barPaused = true
		bar.Clear()
	}
}

// ResumeProgress resumes printing the progress bar after PauseProgress was called
func ResumeProgress() {
	outputMu.Lock()
	defer outputMu.Unlock()

	barPaused = false
}

// Progress sets the completion of a task whose progress is being printed
// It only has an effect if StartProgress was already called.
func Progress(alpha float64) {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}

	outputMu.Lock()
	lastProgressAlpha = alpha
	if bar == nil {
		outputMu.Unlock()
		return
	}

	if !barPaused {
		bar.Set64(int64(alpha * float64(barMax)))
	}

	if lastJsonPrintTime.IsZero() {
		lastJsonPrintTime = time.Now()
	}
	var msg JsonMessage
	if time.Since(lastJsonPrintTime) > maxJsonPrintDuration {
		lastJsonPrintTime = time.Now()
		state := bar.State()
		msg = JsonMessage{
			"progress":   alpha,
			"percentage": alpha * 100.0,
			"eta":        state.SecondsLeft,
			"bps":        state.KBsPerSecond * 1024,
		}
	}
	outputMu.Unlock()

	if msg != nil {
		send("progress", msg)
	}
}

// ProgressBytes is Progress for callers that count bytes against the total
// given to StartProgressWithTotalBytes
func ProgressBytes(done int64) {
	outputMu.Lock()
	max := barMax
	outputMu.Unlock()

	if max <= 0 {
		return
	}
	Progress(float64(done) / float64(max))
}

// EndProgress stops refreshing the progress bar and erases it.
func EndProgress() {
	outputMu.Lock()
	defer outputMu.Unlock()

	if bar != nil {
		bar.Finish()
		bar = nil
		barMax = 0
		lastProgressAlpha = 0
		lastJsonPrintTime = time.Time{}
	}
}

// clearProgress wipes the bar so a log line can be printed. The caller
// holds outputMu.
func clearProgress() {
	if bar != nil && !barPaused {
		bar.Clear()
	}
}
