package comm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// envelopeKeys belong to the message itself. Attributes using one of them
// are moved under "attrs." so that a log line never passes for a job event.
var envelopeKeys = map[string]bool{
	"type":    true,
	"time":    true,
	"level":   true,
	"message": true,
}

type field struct {
	key   string
	value any
}

type slogHandler struct {
	level slog.Leveler
	// prefix is the current group path, dot-terminated
	prefix string
	// fields were flattened when they were attached with WithAttrs
	fields []field
}

var _ slog.Handler = (*slogHandler)(nil)

// NewSlogHandler returns a slog.Handler that logs through comm. In JSON
// mode records become "log" messages, with attributes as extra keys; a
// "job" attribute lines up with the job id of Event messages. Otherwise
// attributes are appended to the text as key=value pairs.
func NewSlogHandler(level slog.Leveler) slog.Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &slogHandler{level: level}
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *slogHandler) Handle(_ context.Context, r slog.Record) error {
	fields := append([]field{}, h.fields...)
	r.Attrs(func(attr slog.Attr) bool {
		fields = flatten(fields, h.prefix, attr)
		return true
	})

	level := commLevel(r.Level)
	if JsonEnabled() {
		obj := JsonMessage{
			"level":   level,
			"message": r.Message,
		}
		for _, f := range fields {
			key := f.key
			if envelopeKeys[key] {
				key = "attrs." + key
			}
			obj[key] = f.value
		}
		// the logger's level already decided whether debug records go out
		obj["type"] = "log"
		obj["time"] = time.Now().UTC().Unix()
		sendJSON(obj)
		return nil
	}

	Logl(level, textLine(r.Message, fields))
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.fields = append([]field{}, h.fields...)
	for _, attr := range attrs {
		nh.fields = flatten(nh.fields, h.prefix, attr)
	}
	return &nh
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func flatten(fields []field, prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return fields
	}

	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix = prefix + attr.Key + "."
		}
		for _, groupAttr := range attr.Value.Group() {
			fields = flatten(fields, prefix, groupAttr)
		}
		return fields
	}

	if attr.Key == "" {
		return fields
	}
	return append(fields, field{key: prefix + attr.Key, value: plainValue(attr.Value)})
}

// plainValue turns a slog value into something that reads well both as
// JSON and as text. Durations are in seconds, like job results.
func plainValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return v.Bool()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindDuration:
		return v.Duration().Seconds()
	case slog.KindTime:
		return v.Time().UTC().Unix()
	}

	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}

func textLine(message string, fields []field) string {
	if len(fields) == 0 {
		return message
	}

	sorted := append([]field{}, fields...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].key < sorted[j].key
	})

	var sb strings.Builder
	sb.WriteString(message)
	for _, f := range sorted {
		sb.WriteString(" ")
		sb.WriteString(f.key)
		sb.WriteString("=")
		s := fmt.Sprint(f.value)
		if s == "" || strings.ContainsAny(s, " \t\"=") {
			s = strconv.Quote(s)
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func commLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
