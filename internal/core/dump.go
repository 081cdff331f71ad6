package core

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/JonMunkholm/dataengine/internal/dataset"
)

// DumpDatasets writes up to limit records of every dataset to w, datasets
// sorted by name. limit is clamped to each dataset's size; a negative limit
// prints headers only.
//
// Output format:
//
//	Data Set: CountyList
//	  key:'State' => val:'TX'   key:'County' => val:'Travis'
func (r *Registry) DumpDatasets(w io.Writer, limit int) error {
	all, err := r.AllDatasets()
	if err != nil {
		return err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })

	bw := bufio.NewWriter(w)
	for _, ds := range all {
		writeDataset(bw, ds, limit)
	}
	return bw.Flush()
}

func writeDataset(w *bufio.Writer, ds *dataset.Dataset, limit int) {
	fmt.Fprintf(w, "Data Set: %s\n", ds.Name())
	for _, rec := range ds.Slice(0, limit) {
		for k, v := range rec.All() {
			fmt.Fprintf(w, "  key:'%s' => val:'%s' ", k, v)
		}
		w.WriteByte('\n')
	}
	w.WriteByte('\n')
}
