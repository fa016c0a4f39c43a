package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/marvin21/MBP/internal/domain"
)

// ReportDownload carries the raw bytes of a generated test report together
// with the header value a transport layer should attach.
type ReportDownload struct {
	Filename           string
	ContentDisposition string
	Data               []byte
}

// ExportReport resolves the report file recorded on the test and returns its
// content for download. A test or file that does not exist yields
// ErrNotFound; an unreadable file propagates as an I/O error.
func (e *Engine) ExportReport(testID string) (*ReportDownload, error) {
	t, err := e.tests.FindByID(testID)
	if err != nil {
		return nil, fmt.Errorf("load test %s: %w", testID, err)
	}
	if t.ReportPath == "" {
		return nil, fmt.Errorf("test %s has no report: %w", testID, domain.ErrNotFound)
	}

	data, err := os.ReadFile(t.ReportPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("report %s: %w", t.ReportPath, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read report %s: %w", t.ReportPath, err)
	}

	filename := testID + ".pdf"
	return &ReportDownload{
		Filename:           filename,
		ContentDisposition: "attachment; filename=" + filename,
		Data:               data,
	}, nil
}
