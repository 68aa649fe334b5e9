package report

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

const logSheetName = "Verifications"

var logHeader = []string{
	"Timestamp", "Company", "Country", "Registry ID", "Trust Score",
	"Trust Tier", "Status", "Provisional", "Registry Found",
	"Email Match", "HR Verified", "Red Flags", "Report Path",
}

// XLSXLog appends one audit row per verification to a spreadsheet. Writes
// are serialized; the whole file is rewritten on each append, which is
// acceptable at audit-log volumes.
type XLSXLog struct {
	mu   sync.Mutex
	path string

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewXLSXLog creates a log writing to path. The file is created on first
// append.
func NewXLSXLog(path string) *XLSXLog {
	return &XLSXLog{path: path, nowFunc: time.Now}
}

// Append records one verification outcome.
func (l *XLSXLog) Append(req model.VerificationRequest, result model.AnalysisResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, sheet, err := l.open()
	if err != nil {
		return err
	}

	row := sheet.AddRow()
	for _, v := range []string{
		l.nowFunc().UTC().Format(time.RFC3339),
		req.Name,
		req.Country,
		req.RegistryID,
		fmt.Sprintf("%.1f", result.TrustScore),
		string(result.TrustTier),
		string(result.Status),
		fmt.Sprintf("%t", result.Provisional),
		fmt.Sprintf("%t", result.Signals.RegistryFound),
		fmt.Sprintf("%t", result.Signals.EmailDomainMatch),
		fmt.Sprintf("%t", result.Signals.HRVerified.Verified),
		strings.Join(result.RedFlags, "; "),
		result.ReportPath,
	} {
		row.AddCell().SetString(v)
	}

	if err := file.Save(l.path); err != nil {
		return eris.Wrap(err, "report: save xlsx log")
	}
	return nil
}

func (l *XLSXLog) open() (*xlsx.File, *xlsx.Sheet, error) {
	if _, err := os.Stat(l.path); err == nil {
		file, err := xlsx.OpenFile(l.path)
		if err != nil {
			return nil, nil, eris.Wrap(err, "report: open xlsx log")
		}
		if sheet, ok := file.Sheet[logSheetName]; ok {
			return file, sheet, nil
		}
		sheet, err := file.AddSheet(logSheetName)
		if err != nil {
			return nil, nil, eris.Wrap(err, "report: add xlsx sheet")
		}
		writeHeader(sheet)
		return file, sheet, nil
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(logSheetName)
	if err != nil {
		return nil, nil, eris.Wrap(err, "report: add xlsx sheet")
	}
	writeHeader(sheet)
	return file, sheet, nil
}

func writeHeader(sheet *xlsx.Sheet) {
	row := sheet.AddRow()
	for _, h := range logHeader {
		row.AddCell().SetString(h)
	}
}
