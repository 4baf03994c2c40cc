package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/emu-next/devio/devices"
)

// ReportRequest asks for a manual failure report dump.
type ReportRequest struct {
	DeviceID string `json:"deviceId"`
	Reason   string `json:"reason,omitempty"`
}

// DumpReportCommand writes the device's recent frames and operation
// history into the report directory and returns the path.
func DumpReportCommand(req ReportRequest) *CommandResponse {
	if activeProfile.ReportDir == "" {
		return NewErrorResponse(fmt.Errorf("no report directory configured"))
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	var cause error
	if req.Reason != "" {
		cause = fmt.Errorf("manual dump: %s", req.Reason)
	}
	path, err := session.DumpReport(cause)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error writing report: %v", err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Report written to %s", path),
		"path":    path,
	})
}

// ReportSummary is one saved report as listed by ListReportsCommand.
type ReportSummary struct {
	Path   string          `json:"path"`
	Report *devices.Report `json:"report"`
}

// ListReportsCommand enumerates saved failure reports, newest first.
func ListReportsCommand() *CommandResponse {
	dir := activeProfile.ReportDir
	if dir == "" {
		return NewErrorResponse(fmt.Errorf("no report directory configured"))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSuccessResponse(map[string]interface{}{"reports": []ReportSummary{}})
		}
		return NewErrorResponse(fmt.Errorf("error reading report directory: %v", err))
	}

	var reports []ReportSummary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaPath := filepath.Join(dir, entry.Name(), "report.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var report devices.Report
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, ReportSummary{
			Path:   filepath.Join(dir, entry.Name()),
			Report: &report,
		})
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Report.CreatedAt.After(reports[j].Report.CreatedAt)
	})

	return NewSuccessResponse(map[string]interface{}{"reports": reports})
}
