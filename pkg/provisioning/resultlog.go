package provisioning

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/entra-ops/entra-provision/pkg/tabular"
)

// LogColumns returns the result log header for a pipeline.
func LogColumns(p Pipeline) []string {
	if p == PipelineCreate {
		return []string{"UserPrincipalName", "DisplayName", "Status", "UserId", "AddedToGroup", "TempPassword", "Error"}
	}
	return []string{"Email", "DisplayName", "Status", "UserId", "AddedToGroup", "Error"}
}

// WriteResultLog writes every result to path in one go.
func WriteResultLog(path string, p Pipeline, results []RowResult) error {
	records := make([][]string, 0, len(results))
	for _, r := range results {
		rec := []string{
			r.Identifier,
			r.DisplayName,
			string(r.Status),
			r.RemoteID,
			strconv.FormatBool(r.AddedToGroup),
		}
		if p == PipelineCreate {
			rec = append(rec, r.GeneratedSecret)
		}
		rec = append(rec, r.ErrorMessage)
		records = append(records, rec)
	}
	return tabular.WriteCSV(path, LogColumns(p), records)
}

// DefaultLogPath names the log after the pipeline and the run start time.
func DefaultLogPath(dir string, p Pipeline, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-results-%s.csv", p, now.Format("20060102-150405")))
}
