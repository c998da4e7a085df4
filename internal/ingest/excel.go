// Package ingest populates the knowledge index from an Excel workbook of
// question/answer rows. It is a one-shot batch step, separate from the
// dialogue loop, which only ever reads the index.
package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

// ReadWorkbook extracts Q&A pairs from every sheet. The first row of each
// sheet is a header; the question sits in the first column and the answer
// in the third. Rows missing either are skipped.
func ReadWorkbook(path string) ([]domain.KnowledgeEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var entries []domain.KnowledgeEntry
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		for i, row := range rows {
			if i == 0 {
				continue
			}
			question, answer := cell(row, 0), cell(row, 2)
			if question == "" || answer == "" {
				continue
			}
			entries = append(entries, domain.KnowledgeEntry{
				Question: question,
				Answer:   answer,
				Sheet:    sheet,
			})
		}
	}
	return entries, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
