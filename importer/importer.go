package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxFileSize caps an uploaded registry file.
const MaxFileSize = 5 << 20

// Expected column layout after the header row
const (
	colDNI = iota
	colName
	colEmail
	colArea
)

var zipMagic = []byte("PK\x03\x04")

// Parse reads a voter registry in CSV or XLSX format. The first row is a
// header and is skipped; rows without dni or name are ignored. Any row with
// an unknown area rejects the whole file.
func Parse(r io.Reader) ([]models.Voter, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, errs.BadRequest("No se pudo leer el archivo.")
	}
	if len(data) > MaxFileSize {
		return nil, errs.BadRequest("El archivo supera el tamaño máximo permitido.")
	}

	var rows [][]string
	if bytes.HasPrefix(data, zipMagic) {
		rows, err = ReadXLSX(bytes.NewReader(data))
	} else {
		rows, err = ReadCSV(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}

	return Voters(rows)
}

// ReadXLSX returns the rows of the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errs.BadRequest("Archivo Excel inválido.")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errs.BadRequest("Archivo Excel inválido.")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errs.BadRequest("Archivo Excel inválido.")
	}
	return rows, nil
}

// ReadCSV returns the records of a comma or semicolon separated file. The
// separator is taken from the first line.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.BadRequest("No se pudo leer el archivo.")
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		reader.Comma = ';'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, errs.BadRequest("Archivo CSV inválido en la línea %d.", parseErr.Line)
		}
		return nil, errs.BadRequest("Archivo CSV inválido.")
	}
	return rows, nil
}

// Voters converts raw rows (header first) into voters.
func Voters(rows [][]string) ([]models.Voter, error) {
	if len(rows) > 0 {
		rows = rows[1:]
	}

	voters := make([]models.Voter, 0, len(rows))
	for _, row := range rows {
		dni := NormalizeDNI(cell(row, colDNI))
		name := cell(row, colName)
		if dni == "" || name == "" {
			continue
		}

		raw := cell(row, colArea)
		area := NormalizeArea(raw)
		if !area.IsArea() {
			return nil, errs.BadRequest("Área inválida %q para DNI %s. Valores válidos: %s", raw, dni, validAreas())
		}

		voters = append(voters, models.Voter{
			DNI:   dni,
			Name:  name,
			Email: cell(row, colEmail),
			Area:  area,
		})
	}

	if len(voters) == 0 {
		return nil, errs.BadRequest("El archivo no contiene datos. Formato esperado: A = DNI, B = Nombre, C = Email, D = Área.")
	}
	return voters, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// NormalizeDNI restores leading zeros that spreadsheets drop from numeric
// cells.
func NormalizeDNI(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) >= 8 {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return strings.Repeat("0", 8-len(s)) + s
}

// NormalizeArea maps free-form spellings such as "ltk-fnz" or "Tí" onto an
// area code. Unknown values are returned normalized but fail IsArea.
func NormalizeArea(s string) models.Position {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		stripped = s
	}

	// Casers are stateful; one per call
	stripped = cases.Upper(language.Spanish).String(stripped)
	stripped = strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' || r == '/' {
			return '_'
		}
		return r
	}, stripped)

	return models.Position(stripped)
}

func validAreas() string {
	names := make([]string, len(models.AreaPositions))
	for i, p := range models.AreaPositions {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// Summary describes an import result for humans.
func Summary(voters []models.Voter) string {
	perArea := make(map[models.Position]int)
	for _, v := range voters {
		perArea[v.Area]++
	}

	parts := make([]string, 0, len(models.AreaPositions))
	for _, p := range models.AreaPositions {
		if n := perArea[p]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", p, n))
		}
	}
	return strings.Join(parts, " ")
}
