package db

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type promptRecord struct {
	Topic1 string
	Topic2 string
}

// LoadPrompts reads topic pairs from a CSV (header row, then topic1,topic2)
// and inserts the ones not already present. It returns how many were added.
func LoadPrompts(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	records, err := readPrompts(file)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	entries := make([]Prompt, 0, len(records))
	for _, record := range records {
		entries = append(entries, Prompt{Topic1: record.Topic1, Topic2: record.Topic2})
	}
	result := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func readPrompts(r io.Reader) ([]promptRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []promptRecord
	seen := make(map[promptRecord]bool)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			continue
		}
		record := promptRecord{
			Topic1: strings.TrimSpace(row[0]),
			Topic2: strings.TrimSpace(row[1]),
		}
		if record.Topic1 == "" || record.Topic2 == "" || seen[record] {
			continue
		}
		seen[record] = true
		records = append(records, record)
	}
	return records, nil
}
