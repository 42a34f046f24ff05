package tracker

import (
	"time"

	"github.com/rpggio/haulboard/internal/codec"
)

// SlotName is the mirror slot holding a tenant's tracking rows.
const SlotName = "windTurbineTracking"

// TrackingRow follows one wind-turbine component from the port of
// Constanța through Chornomorsk to the Tiligul site. Every field is free
// text and defaults to empty.
type TrackingRow struct {
	ID                         string `json:"id"`
	RowNumber                  string `json:"rowNumber"`
	Vessel                     string `json:"vessel"`
	Voyage                     string `json:"voyage"`
	Components                 string `json:"components"`
	SerialNumber               string `json:"serialNumber"`
	VuiBlades                  string `json:"vuiBlades"`
	DamageConstanta            string `json:"damageConstanta"`
	CustomConst                string `json:"customConst"`
	PlannedLoadingConstanta    string `json:"plannedLoadingConstanta"`
	ActualLoadingConstanta     string `json:"actualLoadingConstanta"`
	PlannedArrivalChornomorsk  string `json:"plannedArrivalChornomorsk"`
	ActualArrivalChornomorsk   string `json:"actualArrivalChornomorsk"`
	CustomChornomorsk          string `json:"customChornomorsk"`
	ActualUnloadingChornomorsk string `json:"actualUnloadingChornomorsk"`
	UnloadingBerth             string `json:"unloadingBerth"`
	StorageLocation            string `json:"storageLocation"`
	TruckNoPort                string `json:"truckNoPort"`
	TrailerNoPort              string `json:"trailerNoPort"`
	DriverPort                 string `json:"driverPort"`
	PlannedLoadingCar          string `json:"plannedLoadingCar"`
	ActualLoadingCar           string `json:"actualLoadingCar"`
	StorageDays                string `json:"storageDays"`
	DepartureDateCar           string `json:"departureDateCar"`
	TruckNoSite                string `json:"truckNoSite"`
	TrailerNoSite              string `json:"trailerNoSite"`
	DriverSite                 string `json:"driverSite"`
	DamageChornomorsk          string `json:"damageChornomorsk"`
	PlannedArrivalSite         string `json:"plannedArrivalSite"`
	ActualArrivalSite          string `json:"actualArrivalSite"`
	ActualUnloadingSite        string `json:"actualUnloadingSite"`
	UnloadingSite              string `json:"unloadingSite"`
	DamageBeforeUnloading      string `json:"damageBeforeUnloading"`
	TTNNumber                  string `json:"ttnNumber"`
	ReturnActNo                string `json:"returnActNo"`
	TTNInOffice                string `json:"ttnInOffice"`
	Column5                    string `json:"column5"`
	Column6                    string `json:"column6"`
	Column7                    string `json:"column7"`
	Column8                    string `json:"column8"`
	Column9                    string `json:"column9"`
	Column10                   string `json:"column10"`
	Column11                   string `json:"column11"`
	Column12                   string `json:"column12"`
}

func (r TrackingRow) RecordID() string { return r.ID }

func (r TrackingRow) WithID(id string) TrackingRow {
	r.ID = id
	return r
}

// Value returns the cell under key.
func (r TrackingRow) Value(key string) (string, bool) {
	col, ok := columnIndex[key]
	if !ok {
		return "", false
	}
	return *col.ref(&r), true
}

// With returns a copy of r with the cell under key set to value.
func (r TrackingRow) With(key, value string) (TrackingRow, error) {
	col, ok := columnIndex[key]
	if !ok {
		return r, ErrUnknownColumn
	}
	*col.ref(&r) = value
	return r, nil
}

// Fields returns every cell in column order.
func (r TrackingRow) Fields() []string {
	out := make([]string, 0, len(columnTable))
	for _, col := range columnTable {
		out = append(out, *col.ref(&r))
	}
	return out
}

// Arrived reports whether the component has an actual site arrival date.
func (r TrackingRow) Arrived() bool {
	return r.ActualArrivalSite != ""
}

// Damaged reports whether damage was noted at any waypoint.
func (r TrackingRow) Damaged() bool {
	return r.DamageConstanta != "" || r.DamageChornomorsk != "" || r.DamageBeforeUnloading != ""
}

func (r TrackingRow) toCodecRow() codec.Row {
	row := make(codec.Row, len(columnTable))
	for _, col := range columnTable {
		row[col.key] = *col.ref(&r)
	}
	return row
}

func fromCodecRow(row codec.Row) TrackingRow {
	var r TrackingRow
	for _, col := range columnTable {
		*col.ref(&r) = row[col.key]
	}
	return r
}

// Stats summarises the board.
type Stats struct {
	Total   int `json:"total"`
	Arrived int `json:"arrived_at_site"`
	Damaged int `json:"damage_reports"`
}

// Export is a rendered CSV download.
type Export struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	Rows        int    `json:"rows"`
}

// ExportFileName returns the download name for an export taken at t.
func ExportFileName(t time.Time) string {
	return "wind-turbine-tracking-" + t.UTC().Format("2006-01-02") + ".csv"
}
