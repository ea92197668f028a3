package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrEmptyView = errors.New("empty_building_view")

const emptyValue = "-"

type PDFProvider struct{}

type field struct {
	label string
	value string
}

func (p *PDFProvider) Factsheet(ctx context.Context, view *domain.BuildingView) ([]byte, error) {
	if view == nil || view.EGID == "" {
		return nil, ErrEmptyView
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := "Building " + view.EGID
	if view.BuildingName != "" {
		title += " - " + view.BuildingName
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(6, "EGRID: "+orDash(view.EGRID), props.Text{Size: 9}),
		text.NewCol(6, "Status: "+orDash(view.Status), props.Text{Size: 9, Align: align.Right}),
	)

	c := view.Construction
	addSection(m, "Construction", []field{
		{"Year", c.Year},
		{"Month", c.Month},
		{"Period", c.Period},
		{"Demolition year", deref(c.DemolitionYear)},
		{"Category", c.Category},
		{"Class", c.Class},
	})

	ph := view.PhysicalCharacteristics
	addSection(m, "Physical characteristics", []field{
		{"Area (m2)", ph.Area},
		{"Volume (m3)", ph.Volume},
		{"Volume norm", ph.VolumeNorm},
		{"Floors", ph.Floors},
		{"Apartments", ph.Apartments},
		{"Separate rooms", ph.SeparateRooms},
		{"Civil defense shelter", yesNo(ph.CivilDefenseShelter)},
	})

	loc := view.Location
	addSection(m, "Location", []field{
		{"Canton", loc.Canton},
		{"Municipality", strings.TrimSpace(loc.MunicipalityCode + " " + loc.MunicipalityName)},
		{"LV95 east", loc.Coordinates.East},
		{"LV95 north", loc.Coordinates.North},
	})

	prop := view.Property
	addSection(m, "Property", []field{
		{"EGRID", prop.EGRID},
		{"Land registry district", prop.LandRegistryDistrict},
		{"Plot", strings.TrimSpace(prop.PlotNumber + " " + prop.PlotSuffix)},
		{"Official number", view.OfficialNumber},
	})

	addHeading(m, "Energy systems")
	m.AddRow(6, text.NewCol(12, "Reference area: "+orDash(view.EnergySystems.ReferenceArea), props.Text{Size: 9}))
	addEnergyTable(m, "Heating", view.EnergySystems.Heating)
	addEnergyTable(m, "Hot water", view.EnergySystems.HotWater)

	addHeading(m, "Addresses")
	if len(view.Addresses) == 0 {
		m.AddRow(6, text.NewCol(12, "No address mapped to this building", props.Text{Size: 9}))
	}
	for _, addr := range view.Addresses {
		primary := ""
		if addr.IsPrimary {
			primary = "primary"
		}
		m.AddRow(6,
			text.NewCol(6, addr.StreetAddress, props.Text{Size: 9}),
			text.NewCol(4, strings.TrimSpace(addr.PostalCode+" "+addr.Locality), props.Text{Size: 9}),
			text.NewCol(2, primary, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate factsheet %s: %w", view.EGID, err)
	}
	return doc.GetBytes(), nil
}

func addHeading(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Top:   3,
		}),
	)
	m.AddRow(2, line.NewCol(12))
}

// addSection lays out fields two per row.
func addSection(m core.Maroto, title string, fields []field) {
	addHeading(m, title)
	for i := 0; i < len(fields); i += 2 {
		cols := []core.Col{
			text.NewCol(3, fields[i].label, props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(3, orDash(fields[i].value), props.Text{Size: 9}),
		}
		if i+1 < len(fields) {
			cols = append(cols,
				text.NewCol(3, fields[i+1].label, props.Text{Size: 9, Style: fontstyle.Bold}),
				text.NewCol(3, orDash(fields[i+1].value), props.Text{Size: 9}),
			)
		} else {
			cols = append(cols, col.New(6))
		}
		m.AddRow(6, cols...)
	}
}

func addEnergyTable(m core.Maroto, label string, systems []domain.EnergySystemView) {
	if len(systems) == 0 {
		return
	}
	m.AddRow(7,
		text.NewCol(3, label, props.Text{Size: 9, Style: fontstyle.Bold, Top: 1}),
		text.NewCol(3, "Heat generator", props.Text{Size: 8, Style: fontstyle.Bold, Top: 1}),
		text.NewCol(3, "Energy source", props.Text{Size: 8, Style: fontstyle.Bold, Top: 1}),
		text.NewCol(3, "Last updated", props.Text{Size: 8, Style: fontstyle.Bold, Top: 1, Align: align.Right}),
	)
	for _, sys := range systems {
		m.AddRow(6,
			col.New(3),
			text.NewCol(3, orDash(sys.HeatGenerator), props.Text{Size: 8}),
			text.NewCol(3, orDash(sys.EnergySource), props.Text{Size: 8}),
			text.NewCol(3, orDash(deref(sys.LastUpdated)), props.Text{Size: 8, Align: align.Right}),
		)
	}
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return emptyValue
	}
	return v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
