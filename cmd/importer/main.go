package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/khmerdata/registry/internal/location"
)

// Row markers in the official gazetteer workbook. The first column labels
// each row with the Khmer administrative unit type.
const (
	typeDistrictSrok  = "ស្រុក"
	typeDistrictKrong = "ក្រុង"
	typeCommuneKhum   = "ឃុំ"
	typeCommuneSkat   = "សង្កាត់"
	typeVillage       = "ភូមិ"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	var (
		input  = flag.String("in", "camboia.xlsx", "gazetteer workbook, one sheet per province")
		output = flag.String("out", "cambodia_locations.json", "hierarchy JSON output path")
	)
	flag.Parse()

	hierarchy, err := readWorkbook(*input)
	if err != nil {
		return err
	}

	if err := writeJSON(*output, hierarchy); err != nil {
		return err
	}

	var districts, communes, villages int
	for _, d := range hierarchy {
		districts += len(d)
		for _, c := range d {
			communes += len(c)
			for _, v := range c {
				villages += len(v)
			}
		}
	}
	log.Info().
		Int("provinces", len(hierarchy)).
		Int("districts", districts).
		Int("communes", communes).
		Int("villages", villages).
		Str("output", *output).
		Msg("gazetteer imported")

	return nil
}

func readWorkbook(path string) (location.Hierarchy, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hierarchy := location.Hierarchy{}

	for _, sheet := range f.GetSheetList() {
		province := provinceFromSheet(sheet)
		if _, ok := hierarchy[province]; !ok {
			hierarchy[province] = map[string]map[string][]string{}
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		var district, commune string
		for i, row := range rows {
			// First two rows are headers.
			if i < 2 {
				continue
			}

			rowType := cell(row, 0)
			name := cell(row, 3)
			if name == "" {
				name = cell(row, 2)
			}
			if name == "" {
				continue
			}

			switch rowType {
			case typeDistrictSrok, typeDistrictKrong:
				district = name
				commune = ""
				if _, ok := hierarchy[province][district]; !ok {
					hierarchy[province][district] = map[string][]string{}
				}
			case typeCommuneKhum, typeCommuneSkat:
				if district == "" {
					continue
				}
				commune = name
				if _, ok := hierarchy[province][district][commune]; !ok {
					hierarchy[province][district][commune] = []string{}
				}
			case typeVillage:
				if district == "" || commune == "" {
					continue
				}
				if !contains(hierarchy[province][district][commune], name) {
					hierarchy[province][district][commune] = append(hierarchy[province][district][commune], name)
				}
			}
		}
	}

	return hierarchy, nil
}

// provinceFromSheet strips the numeric prefix from sheet names such as
// "7. Kampot".
func provinceFromSheet(sheet string) string {
	if _, after, ok := strings.Cut(sheet, ". "); ok {
		return after
	}
	return sheet
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func writeJSON(path string, hierarchy location.Hierarchy) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(hierarchy); err != nil {
		return fmt.Errorf("encode hierarchy: %w", err)
	}
	return nil
}
