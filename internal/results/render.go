package results

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"text/tabwriter"
	"time"
)

var htmlTemplates = template.Must(template.New("results").Parse(`
{{- define "empty" -}}
<div class="text-center py-8 text-gray-500">
  <p class="text-lg">{{.Title}}</p>
  <p class="text-sm mt-2">{{.Hint}}</p>
</div>
{{- end -}}
{{- define "card" -}}
<div class="bg-gray-50 rounded-lg p-4 mb-4 border border-gray-200 hover:shadow-md transition-shadow">
  <div class="flex items-start justify-between">
    <div class="flex-1">
      <div class="flex items-center mb-2">
        <span class="bg-blue-600 text-white px-3 py-1 rounded-full text-sm font-bold mr-3">{{.Line}}</span>
        <span class="text-lg font-semibold text-gray-800">{{.Headsign}}</span>
      </div>
      <div class="grid grid-cols-1 md:grid-cols-2 gap-2 text-sm text-gray-600">
        <div class="flex items-center"><span class="mr-2">📍</span><span><strong>Stop:</strong> {{.Stop}}</span></div>
        <div class="flex items-center"><span class="mr-2">🕐</span><span><strong>Departure:</strong> {{.Time}}</span></div>
        {{- if .Distance}}
        <div class="flex items-center"><span class="mr-2">📏</span><span><strong>Distance:</strong> {{.Distance}}</span></div>
        {{- end}}
      </div>
    </div>
    <div class="ml-4 text-right">
      <div class="bg-blue-100 text-blue-800 px-2 py-1 rounded text-sm font-semibold">{{.Label}}</div>
    </div>
  </div>
</div>
{{- end -}}
{{- if .Empty}}{{template "empty" .Message}}{{else}}{{range .Cards}}{{template "card" .}}
{{end}}{{end -}}
`))

type htmlView struct {
	Empty   bool
	Message EmptyMessage
	Cards   []Card
}

// HTML renders the results list. All service-provided text is escaped.
func HTML(r Result, loc *time.Location) (template.HTML, error) {
	view := htmlView{Cards: r.Cards(loc)}
	if state := r.Empty(); state != EmptyNone {
		view.Empty = true
		view.Message = MessageFor(state)
	}

	var buf bytes.Buffer
	if err := htmlTemplates.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render results: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Text writes the results as an aligned table, or the empty message.
func Text(w io.Writer, r Result, loc *time.Location) error {
	if state := r.Empty(); state != EmptyNone {
		msg := MessageFor(state)
		_, err := fmt.Fprintf(w, "%s\n%s\n", msg.Title, msg.Hint)
		return err
	}

	tw := tabwriter.NewWriter(w, 5, 3, 3, ' ', 0)
	fmt.Fprintln(tw, "#\tline\theadsign\tstop\tdeparture\tdistance")
	for _, card := range r.Cards(loc) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			card.Label(), card.Line, card.Headsign, card.Stop, card.Time, card.Distance)
	}
	return tw.Flush()
}
