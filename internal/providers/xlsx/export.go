package xlsx

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.xlsx",
	fx.Provide(New),
)

const SheetName = "Buildings"

// Header is the column order of the building export.
var Header = []string{
	"EGID",
	"Status",
	"Canton",
	"Municipality",
	"Construction Year",
	"Category",
	"Class",
	"Area",
	"Volume",
	"Floors",
	"Apartments",
	"Reference Area",
	"Heating Systems",
	"Hot Water Systems",
	"Heat Generator",
	"Energy Source",
	"Latitude",
	"Longitude",
}

var columnWidths = []float64{12, 10, 8, 22, 18, 10, 10, 10, 10, 8, 12, 15, 16, 18, 16, 15, 12, 12}

type Exporter interface {
	Buildings(rows []domain.BuildingSummary) ([]byte, error)
}

type exporter struct{}

func New() Exporter {
	return exporter{}
}

func (exporter) Buildings(rows []domain.BuildingSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}

	for i, width := range columnWidths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, b := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := record(b)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func record(b domain.BuildingSummary) []any {
	values := []any{
		b.EGID,
		b.Status,
		b.Location.Canton,
		b.Location.MunicipalityName,
		number(b.Construction.Year),
		b.Construction.Category,
		b.Construction.Class,
		number(b.PhysicalCharacteristics.Area),
		number(b.PhysicalCharacteristics.Volume),
		number(b.PhysicalCharacteristics.Floors),
		number(b.PhysicalCharacteristics.Apartments),
		number(b.EnergySystems.ReferenceArea),
		b.EnergySystems.HeatingSystemCount,
		b.EnergySystems.HotWaterSystemCount,
		b.EnergySystems.PrimaryHeating.HeatGenerator,
		b.EnergySystems.PrimaryHeating.EnergySource,
		nil,
		nil,
	}
	if c := b.Location.Coordinates; c != nil {
		values[16] = c.Latitude
		values[17] = c.Longitude
	}
	return values
}

// number keeps numeric registry values numeric in the sheet.
func number(v string) any {
	if v == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
