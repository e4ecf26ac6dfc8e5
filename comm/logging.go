package comm

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var settings = &struct {
	noProgress bool
	quiet      bool
	verbose    bool
	json       bool
	panic      bool
}{
	false,
	false,
	false,
	false,
	false,
}

// outputMu serializes printing, several jobs may log at once
var outputMu sync.Mutex

// Configure sets all logging options in one go
func Configure(noProgress, quiet, verbose, json, panic bool) {
	settings.noProgress = noProgress
	settings.quiet = quiet
	settings.verbose = verbose
	settings.json = json
	settings.panic = panic

	if json {
		color.NoColor = true
	}
}

// JsonEnabled reports whether we're printing JSON-lines
func JsonEnabled() bool {
	return settings.json
}

// JsonMessage is a single JSON-lines message
type JsonMessage map[string]interface{}

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	statColor  = color.New(color.FgGreen)
)

// Opf prints a formatted string informing the user on what operation we're doing
func Opf(format string, args ...interface{}) {
	Logf("%s %s", theme.OpSign, fmt.Sprintf(format, args...))
}

// Statf prints a formatted string informing the user how fast the operation went
func Statf(format string, args ...interface{}) {
	Logf("%s %s", statColor.Sprint(theme.StatSign), fmt.Sprintf(format, args...))
}

// Log sends an informational message to the client
func Log(msg string) {
	Logl("info", msg)
}

// Logf sends a formatted informational message to the client
func Logf(format string, args ...interface{}) {
	Loglf("info", format, args...)
}

// Notice prints a box with important info in it.
// UX style guide: don't abuse it or people will stop reading it.
func Notice(header string, lines []string) {
	if settings.json {
		Logf("notice: %s", header)
		for _, line := range lines {
			Logf("notice: %s", line)
		}
		return
	}

	outputMu.Lock()
	defer outputMu.Unlock()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetColWidth(60)
	table.SetHeader([]string{header})
	for _, line := range lines {
		table.Append([]string{line})
	}
	table.Render()
}

// Table prints rows under a header, for human consumption only
func Table(header []string, rows [][]string) {
	if settings.json {
		return
	}

	outputMu.Lock()
	defer outputMu.Unlock()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}

// Warn lets the user know about a problem that's non-critical
func Warn(msg string) {
	Logl("warning", msg)
}

// Warnf is a formatted variant of Warn
func Warnf(format string, args ...interface{}) {
	Loglf("warning", format, args...)
}

// Debug messages are like Info messages, but printed only when verbose
func Debug(msg string) {
	Logl("debug", msg)
}

// Debugf is a formatted variant of Debug
func Debugf(format string, args ...interface{}) {
	Loglf("debug", format, args...)
}

// Logl logs a message of a given level
func Logl(level string, msg string) {
	send("log", JsonMessage{
		"message": msg,
		"level":   level,
	})
}

// Loglf logs a formatted message of a given level
func Loglf(level string, format string, args ...interface{}) {
	Logl(level, fmt.Sprintf(format, args...))
}

// Die exits with a non-zero exit code after giving a reason to the client
func Die(msg string) {
	send("error", JsonMessage{
		"message": msg,
	})
}

// Dief is a formatted variant of Die
func Dief(format string, args ...interface{}) {
	Die(fmt.Sprintf(format, args...))
}

// Result sends a result
func Result(value interface{}) {
	send("result", JsonMessage{
		"value": value,
	})
}

type printerFunc func()

// ResultOrPrint sends value in JSON mode, and calls p otherwise
func ResultOrPrint(value interface{}, p printerFunc) {
	if settings.json {
		Result(value)
	} else {
		p()
	}
}

// Event reports the outcome of one job. Outside JSON mode, only failures
// are printed, the engine already logged the rest.
func Event(jobID string, status string, fields JsonMessage) {
	obj := JsonMessage{
		"job":    jobID,
		"status": status,
	}
	for k, v := range fields {
		obj[k] = v
	}
	send("job", obj)
}

// sends a message to the client
func send(msgType string, obj JsonMessage) {
	if settings.json {
		obj["type"] = msgType
		obj["time"] = time.Now().UTC().Unix()
		if msgType == "log" && obj["level"] == "debug" {
			if settings.quiet || !settings.verbose {
				return
			}
		}

		sendJSON(obj)
		if msgType == "error" {
			os.Exit(1)
		}
		return
	}

	switch msgType {
	case "log":
		switch obj["level"] {
		case "info":
			if !settings.quiet {
				printLine(fmt.Sprint(obj["message"]))
			}
		case "debug":
			if !settings.quiet && settings.verbose {
				printLine(fmt.Sprint(obj["message"]))
			}
		case "warning":
			printLine(warnColor.Sprintf("warning: %s", obj["message"]))
		default:
			printLine(fmt.Sprintf("%s: %s", obj["level"], obj["message"]))
		}
	case "error":
		EndProgress()
		if settings.panic {
			log.Panicln(obj["message"])
		}
		printLine(errorColor.Sprint(obj["message"]))
		os.Exit(1)
	case "job":
		if obj["status"] == "failed" {
			printLine(errorColor.Sprintf("%s: %s", obj["archive"], obj["error"]))
		}
	case "result", "progress":
		// json-only
	default:
		printLine(fmt.Sprint(msgType, obj))
	}
}

// printLine goes through the log package, clearing the progress bar first
func printLine(line string) {
	outputMu.Lock()
	defer outputMu.Unlock()

	clearProgress()
	log.Println(line)
}

// sends a JSON-encoded message to the client
func sendJSON(obj JsonMessage) {
	outputMu.Lock()
	defer outputMu.Unlock()

	json, _ := json.Marshal(obj)
	fmt.Println(string(json))
}
