package tracker

import "github.com/rpggio/haulboard/internal/codec"

type column struct {
	key   string
	label string
	ref   func(*TrackingRow) *string
}

// Column order matches the shipment spreadsheet used on site.
var columnTable = []column{
	{"rowNumber", "Стовпець 1", func(r *TrackingRow) *string { return &r.RowNumber }},
	{"vessel", "Судно/Vessel", func(r *TrackingRow) *string { return &r.Vessel }},
	{"voyage", "Рейс/Voyg", func(r *TrackingRow) *string { return &r.Voyage }},
	{"components", "Components / Компоненти вітрогенератору", func(r *TrackingRow) *string { return &r.Components }},
	{"serialNumber", "Serial Number", func(r *TrackingRow) *string { return &r.SerialNumber }},
	{"vuiBlades", "Vui Blades", func(r *TrackingRow) *string { return &r.VuiBlades }},
	{"damageConstanta", "Виявлені пошкодження перед навантаженням Констанца", func(r *TrackingRow) *string { return &r.DamageConstanta }},
	{"customConst", "Custom CONST", func(r *TrackingRow) *string { return &r.CustomConst }},
	{"plannedLoadingConstanta", "Запланована дата завантаження порт Констанца", func(r *TrackingRow) *string { return &r.PlannedLoadingConstanta }},
	{"actualLoadingConstanta", "Фактична дата завантаження порт Констанца", func(r *TrackingRow) *string { return &r.ActualLoadingConstanta }},
	{"plannedArrivalChornomorsk", "Запланована дата прибуття в порт Черноморск", func(r *TrackingRow) *string { return &r.PlannedArrivalChornomorsk }},
	{"actualArrivalChornomorsk", "Фактична дата прибуття в порт Черноморск", func(r *TrackingRow) *string { return &r.ActualArrivalChornomorsk }},
	{"customChornomorsk", "Custom Черноморск дата", func(r *TrackingRow) *string { return &r.CustomChornomorsk }},
	{"actualUnloadingChornomorsk", "Фактична дата розвантаження порт Чорноморськ", func(r *TrackingRow) *string { return &r.ActualUnloadingChornomorsk }},
	{"unloadingBerth", "Причал розвантаження", func(r *TrackingRow) *string { return &r.UnloadingBerth }},
	{"storageLocation", "Місце складування, порт", func(r *TrackingRow) *string { return &r.StorageLocation }},
	{"truckNoPort", "Truck No.", func(r *TrackingRow) *string { return &r.TruckNoPort }},
	{"trailerNoPort", "Trailer No.", func(r *TrackingRow) *string { return &r.TrailerNoPort }},
	{"driverPort", "Водитель", func(r *TrackingRow) *string { return &r.DriverPort }},
	{"plannedLoadingCar", "Запланована дата завантаження", func(r *TrackingRow) *string { return &r.PlannedLoadingCar }},
	{"actualLoadingCar", "Фактична дата завантаження на АВТО порт Черноморск", func(r *TrackingRow) *string { return &r.ActualLoadingCar }},
	{"storageDays", "Кількість днів зберігання порт Чорноморськ", func(r *TrackingRow) *string { return &r.StorageDays }},
	{"departureDateCar", "Фактична дата виїзда АВТО порт Черноморск", func(r *TrackingRow) *string { return &r.DepartureDateCar }},
	{"truckNoSite", "Truck No.", func(r *TrackingRow) *string { return &r.TruckNoSite }},
	{"trailerNoSite", "Trailer No.", func(r *TrackingRow) *string { return &r.TrailerNoSite }},
	{"driverSite", "Водитель", func(r *TrackingRow) *string { return &r.DriverSite }},
	{"damageChornomorsk", "Виявлені пошкодження перед навантаженням Черноморск", func(r *TrackingRow) *string { return &r.DamageChornomorsk }},
	{"plannedArrivalSite", "Запланована дата прибуття на САЙТ", func(r *TrackingRow) *string { return &r.PlannedArrivalSite }},
	{"actualArrivalSite", "Фактична дата прибуття на САЙТ", func(r *TrackingRow) *string { return &r.ActualArrivalSite }},
	{"actualUnloadingSite", "Фактична дата розвантаження САЙТ Тилигул", func(r *TrackingRow) *string { return &r.ActualUnloadingSite }},
	{"unloadingSite", "Майданчик розвантаження", func(r *TrackingRow) *string { return &r.UnloadingSite }},
	{"damageBeforeUnloading", "Виявлені пошкодження перед розвантаженням", func(r *TrackingRow) *string { return &r.DamageBeforeUnloading }},
	{"ttnNumber", "Номер ТТН", func(r *TrackingRow) *string { return &r.TTNNumber }},
	{"returnActNo", "Зворотній акт №, дата", func(r *TrackingRow) *string { return &r.ReturnActNo }},
	{"ttnInOffice", "ТТН в офісе", func(r *TrackingRow) *string { return &r.TTNInOffice }},
	{"column5", "Стовпець 5", func(r *TrackingRow) *string { return &r.Column5 }},
	{"column6", "Стовпець 6", func(r *TrackingRow) *string { return &r.Column6 }},
	{"column7", "Стовпець 7", func(r *TrackingRow) *string { return &r.Column7 }},
	{"column8", "Стовпець 8", func(r *TrackingRow) *string { return &r.Column8 }},
	{"column9", "Стовпець 9", func(r *TrackingRow) *string { return &r.Column9 }},
	{"column10", "Стовпець 10", func(r *TrackingRow) *string { return &r.Column10 }},
	{"column11", "Стовпець 11", func(r *TrackingRow) *string { return &r.Column11 }},
	{"column12", "Стовпець 12", func(r *TrackingRow) *string { return &r.Column12 }},
}

var columnIndex = func() map[string]column {
	idx := make(map[string]column, len(columnTable))
	for _, col := range columnTable {
		idx[col.key] = col
	}
	return idx
}()

// Columns returns the export column configuration in display order.
func Columns() []codec.Column {
	cols := make([]codec.Column, 0, len(columnTable))
	for _, col := range columnTable {
		cols = append(cols, codec.Column{Key: col.key, Label: col.label})
	}
	return cols
}

// HasColumn reports whether key names a tracker column.
func HasColumn(key string) bool {
	_, ok := columnIndex[key]
	return ok
}
