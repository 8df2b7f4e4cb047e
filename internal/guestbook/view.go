package guestbook

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/samber/lo"
)

const (
	submitLabelIdle = "Sign the Guestbook"
	submitLabelBusy = "Signing..."
	shortDateLayout = "Jan 2"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

type entryView struct {
	ID      string
	Name    string
	Date    string
	Message string
}

type pageView struct {
	Form          Form
	Submitting    bool
	SubmitLabel   string
	Entries       []entryView
	Total         int
	Notifications []Notification
}

func newPageView(state State, notifications []Notification, loc *time.Location) pageView {
	label := submitLabelIdle
	if state.Submitting {
		label = submitLabelBusy
	}

	return pageView{
		Form:        state.Form,
		Submitting:  state.Submitting,
		SubmitLabel: label,
		Entries: lo.Map(state.Entries, func(e Entry, _ int) entryView {
			return entryView{
				ID:      e.ID,
				Name:    e.Name,
				Date:    formatShortDate(e.CreatedAt, loc),
				Message: e.Message,
			}
		}),
		Total:         len(state.Entries),
		Notifications: notifications,
	}
}

func formatShortDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(shortDateLayout)
}

func renderPage(w io.Writer, view pageView) error {
	return pageTemplate.Execute(w, view)
}
