package web

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

type indexData struct {
	State  string
	LoadID string
	Groups []datasetGroup
}

// datasetGroup is one section of the index page.
type datasetGroup struct {
	Name     string
	Datasets []DatasetSummary
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse}td,th{padding:.3rem .8rem;border-bottom:1px solid #ddd;text-align:left}
.state{font-weight:600}`

// indexPage lists the loaded datasets with links to their JSON endpoints.
func indexPage(data indexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>Data Engine</title><style>"+
			pageStyle+"</style></head><body><h1>Data Engine</h1>"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<p>State: <span class=\"state\">%s</span>", templ.EscapeString(data.State)); err != nil {
			return err
		}
		if data.LoadID != "" {
			if _, err := fmt.Fprintf(w, " &middot; load <code>%s</code>", templ.EscapeString(data.LoadID)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</p>"); err != nil {
			return err
		}

		if len(data.Groups) == 0 {
			if _, err := io.WriteString(w, "<p>No datasets available.</p>"); err != nil {
				return err
			}
		}
		for _, g := range data.Groups {
			if _, err := fmt.Fprintf(w, "<h2>%s</h2>", templ.EscapeString(g.Name)); err != nil {
				return err
			}
			if err := datasetTable(g.Datasets).Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

func datasetTable(datasets []DatasetSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<table><thead><tr><th>Dataset</th><th>Format</th>"+
			"<th>Records</th><th>Fields</th><th>Source</th></tr></thead><tbody>"); err != nil {
			return err
		}
		for _, ds := range datasets {
			href := "/api/datasets/" + url.PathEscape(ds.Name)
			if _, err := fmt.Fprintf(w,
				"<tr><td><a href=\"%s\">%s</a></td><td>%s</td><td>%d</td><td>%d</td><td><code>%s</code></td></tr>",
				templ.EscapeString(href),
				templ.EscapeString(ds.Label),
				templ.EscapeString(ds.Format),
				ds.Records,
				len(ds.Header),
				templ.EscapeString(ds.Source),
			); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</tbody></table>")
		return err
	})
}
