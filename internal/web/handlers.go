package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/dataengine/internal/core"
	"github.com/JonMunkholm/dataengine/internal/dataset"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// DatasetSummary describes one dataset in listings.
type DatasetSummary struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Group   string   `json:"group,omitempty"`
	Format  string   `json:"format"`
	Source  string   `json:"source"`
	Records int      `json:"records"`
	Header  []string `json:"header"`
}

// DatasetList is the response of GET /api/datasets.
type DatasetList struct {
	State    string           `json:"state"`
	LoadID   string           `json:"load_id"`
	Datasets []DatasetSummary `json:"datasets"`
}

// DatasetPage is the response of GET /api/datasets/{name}.
type DatasetPage struct {
	Name    string           `json:"name"`
	Header  []string         `json:"header"`
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
	Records []dataset.Record `json:"records"`
}

func summarize(ds *dataset.Dataset) DatasetSummary {
	sum := DatasetSummary{
		Name:    ds.Name(),
		Label:   ds.Name(),
		Format:  ds.Format(),
		Source:  ds.Source(),
		Records: ds.Len(),
		Header:  ds.Header(),
	}
	if def, ok := core.Lookup(ds.Name()); ok {
		sum.Label = def.Label
		sum.Group = def.Group
	}
	return sum
}

// listDatasets gathers summaries in load order.
func (s *Server) listDatasets() (*DatasetList, error) {
	all, err := s.registry.AllDatasets()
	if err != nil {
		return nil, err
	}
	report, err := s.registry.LastReport()
	if err != nil {
		return nil, err
	}

	list := &DatasetList{
		State:    s.registry.State().String(),
		LoadID:   report.LoadID,
		Datasets: make([]DatasetSummary, len(all)),
	}
	for i, ds := range all {
		list.Datasets[i] = summarize(ds)
	}
	return list, nil
}

// handleListDatasets returns a summary of every dataset.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := s.listDatasets()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// handleDataset returns one page of records.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	limit, ok := parsePaging(r, "limit", defaultPageSize)
	if !ok {
		respondBadRequest(w, r, "limit must be a non-negative integer")
		return
	}
	offset, ok := parsePaging(r, "offset", 0)
	if !ok {
		respondBadRequest(w, r, "offset must be a non-negative integer")
		return
	}
	limit = min(limit, maxPageSize)

	ds, err := s.registry.DatasetByName(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	records := ds.Slice(offset, limit)
	if records == nil {
		records = []dataset.Record{}
	}
	writeJSON(w, r, http.StatusOK, DatasetPage{
		Name:    ds.Name(),
		Header:  ds.Header(),
		Total:   ds.Len(),
		Offset:  offset,
		Limit:   limit,
		Records: records,
	})
}

// handleHeaders returns the field names of a dataset.
func (s *Server) handleHeaders(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	header, err := s.registry.Headers(name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":   name,
		"header": header,
	})
}

// handleHealthz reports 200 once datasets are ready, 503 before.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	state := s.registry.State()
	status := http.StatusOK
	if state != core.StateReady {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, map[string]string{"status": state.String()})
}

// otherGroup holds datasets whose name is not in the catalog.
const otherGroup = "Other"

// groupDatasets sections summaries by catalog group, each in load order.
func groupDatasets(summaries []DatasetSummary) []datasetGroup {
	pending := make(map[string]DatasetSummary, len(summaries))
	for _, sum := range summaries {
		pending[sum.Name] = sum
	}

	var groups []datasetGroup
	for _, name := range core.Groups() {
		if name == "" {
			continue
		}
		g := datasetGroup{Name: name}
		for _, def := range core.ByGroup(name) {
			if sum, ok := pending[def.Name]; ok {
				g.Datasets = append(g.Datasets, sum)
				delete(pending, def.Name)
			}
		}
		if len(g.Datasets) > 0 {
			groups = append(groups, g)
		}
	}

	var other []DatasetSummary
	for _, sum := range summaries {
		if _, ok := pending[sum.Name]; ok {
			other = append(other, sum)
		}
	}
	if len(other) > 0 {
		groups = append(groups, datasetGroup{Name: otherGroup, Datasets: other})
	}
	return groups
}

// handleIndex renders the HTML dataset overview.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{State: s.registry.State().String()}
	if list, err := s.listDatasets(); err == nil {
		data.LoadID = list.LoadID
		data.Groups = groupDatasets(list.Datasets)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(data).Render(r.Context(), w); err != nil {
		respondError(w, r, err)
	}
}

// parsePaging parses a non-negative integer query parameter.
func parsePaging(r *http.Request, name string, defaultVal int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
