package analytics

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

func (f *Formatter) formatLine(e Event) string {
	var parts []string

	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Local().Format("15:04:05"))
	}

	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}

	parts = append(parts, describe(e))

	return strings.Join(parts, " ")
}

func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      string(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Local().Format("15:04:05"),
		Session:   e.Session,
		Artist:    e.String("artist"),
		Album:     e.String("album"),
		Title:     e.String("title"),
		TrackID:   e.String("track_id"),
		Params:    e.Params,
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Session   string
	Artist    string
	Album     string
	Title     string
	TrackID   string
	Params    Params
}

func describe(e Event) string {
	track := func() string {
		artist, title := e.String("artist"), e.String("title")
		if artist == "" && title == "" {
			return ""
		}
		if artist == "" {
			artist = "???"
		}
		if title == "" {
			title = "???"
		}
		return artist + " - " + title
	}

	switch e.Type {
	case Login:
		if m := e.String("method"); m != "" {
			return fmt.Sprintf("Logged in (%s)", m)
		}
		return "Logged in"
	case LoginFailed:
		return "Wrong password"
	case SecretUnlock:
		if m := e.String("method"); m != "" {
			return fmt.Sprintf("Secret unlocked (%s)", m)
		}
		return "Secret unlocked"
	case SongPlay:
		if t := track(); t != "" {
			return "Now playing: " + t
		}
		return "Track started"
	case SongComplete:
		if t := track(); t != "" {
			return "Finished: " + t
		}
		return "Track completed"
	case Skip:
		if t := track(); t != "" {
			return fmt.Sprintf("Skipped: %s at %ds", t, e.Int("position_seconds"))
		}
		return "Track skipped"
	case Pause:
		return "Paused"
	case Resume:
		return "Resumed"
	case Download:
		if t := track(); t != "" {
			return "Downloaded: " + t
		}
		return "Downloaded"
	case Search:
		return fmt.Sprintf("Searched %q (%d results)", e.String("search_term"), e.Int("results_count"))
	default:
		return "Unknown event"
	}
}

func eventEmoji(t Type) string {
	switch t {
	case Login:
		return "🔑"
	case LoginFailed:
		return "🚫"
	case SecretUnlock:
		return "💸"
	case SongPlay:
		return "🎵"
	case SongComplete:
		return "✅"
	case Skip:
		return "⏭️"
	case Pause:
		return "⏸️"
	case Resume:
		return "▶️"
	case Download:
		return "💾"
	case Search:
		return "🔎"
	default:
		return "❓"
	}
}
