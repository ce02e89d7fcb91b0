// Package render projects board snapshots for display. Card and list text is
// always treated as data: the HTML view relies on html/template contextual
// escaping and the terminal view strips control characters.
package render

import (
	"html/template"
	"io"
	"strings"

	"github.com/gmllt/kban/internal/board"
)

var labelIcons = map[board.Label]string{
	board.LabelBug:     "🐛",
	board.LabelFeature: "✨",
	board.LabelUrgent:  "🔥",
}

var funcs = template.FuncMap{
	"upper":     strings.ToUpper,
	"labelIcon": func(l board.Label) string { return labelIcons[l] },
}

var pageTmpl = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>kban</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body>
<form class="toolbar" method="get" action="/">
  <input type="search" name="q" value="{{.Filter.Query}}" placeholder="Search cards">
  <select name="priority">
    {{- range .Priorities}}
    <option value="{{.}}"{{if eq . $.Filter.Priority}} selected{{end}}>{{.}}</option>
    {{- end}}
  </select>
  <button type="submit">Filter</button>
</form>
<div id="board" class="board">
{{- range .Lists}}
  <div class="list" data-list-id="{{.ID}}">
    <div class="list-header"><h3 class="list-title">{{.Title}}</h3></div>
    <div class="cards" data-list="{{.ID}}">
    {{- range .Cards}}
      <div class="card{{if not .Visible}} hidden{{end}}" draggable="true" data-card-id="{{.ID}}">
        <div class="card-title">{{.Title}}</div>
        {{- if .Labels}}
        <div class="card-labels">
          {{- range .Labels}}
          <span class="card-label label-{{.}}">{{labelIcon .}} {{.}}</span>
          {{- end}}
        </div>
        {{- end}}
        {{- if .Description}}
        <div class="card-description">{{.Description}}</div>
        {{- end}}
        <div class="card-meta">
          {{- if .DueDate}}<span class="card-due">📅 {{.DueDate}}</span>{{end}}
          <span class="card-priority priority-{{.Priority}}">{{upper (print .Priority)}}</span>
          {{- if .Assignee}}<span class="card-assignee">👤 {{.Assignee}}</span>{{end}}
        </div>
      </div>
    {{- end}}
    </div>
  </div>
{{- end}}
</div>
</body>
</html>
`))

type cardView struct {
	board.Card
	Visible bool
}

type listView struct {
	ID    string
	Title string
	Cards []cardView
}

type pageView struct {
	Filter     board.Filter
	Priorities []string
	Lists      []listView
}

// columns groups snapshot cards under their lists, flagging the cards f hides.
func columns(snap board.Snapshot, f board.Filter) []listView {
	visible := f.Visible(snap)
	byID := make(map[string]board.Card, len(snap.Cards))
	for _, c := range snap.Cards {
		byID[c.ID] = c
	}
	out := make([]listView, 0, len(snap.Lists))
	for _, l := range snap.Lists {
		lv := listView{ID: l.ID, Title: l.Title}
		for _, id := range l.CardIDs {
			if c, ok := byID[id]; ok {
				lv.Cards = append(lv.Cards, cardView{Card: c, Visible: visible[id]})
			}
		}
		out = append(out, lv)
	}
	return out
}

// HTML writes the board page.
func HTML(w io.Writer, snap board.Snapshot, f board.Filter) error {
	if f.Priority == "" {
		f.Priority = board.PriorityAll
	}
	return pageTmpl.Execute(w, pageView{
		Filter: f,
		Priorities: []string{
			board.PriorityAll,
			string(board.PriorityLow),
			string(board.PriorityMedium),
			string(board.PriorityHigh),
		},
		Lists: columns(snap, f),
	})
}
