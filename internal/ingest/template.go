package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	// TemplateSheet is the worksheet name of the downloadable template.
	TemplateSheet = "Inventory_Template"
	// TemplateFilename is the suggested download name.
	TemplateFilename = "Nesine_Envanter_Sablonu.xlsx"
)

// TemplateExample is the example row written under the header, keyed by
// header.
var TemplateExample = map[string]string{
	HeaderName:             "SRV-PROD-APP01",
	HeaderIPAddress:        "10.20.10.50",
	HeaderOS:               "Linux",
	HeaderOSVersion:        "Ubuntu 22.04",
	HeaderVCenter:          "VC-ISTANBUL-01",
	HeaderCPU:              "4",
	HeaderRAM:              "16 GB",
	HeaderInstallationDate: "2023-05-12",
	HeaderPatchDate:        "",
	HeaderDepartment:       "Core Banking",
	HeaderOwner:            "Ahmet Yılmaz",
	HeaderTechTeam:         "DevOps Team",
	HeaderBackup:           "Evet",
}

// WriteTemplate writes a single-sheet XLSX workbook holding the header row
// and one example server.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range Headers {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
		if err := setCell(f, i+1, 2, TemplateExample[h]); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStr(TemplateSheet, cell, value); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
