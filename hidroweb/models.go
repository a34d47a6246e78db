package hidroweb

import (
	"fmt"
	"net/url"
	"time"
)

// Station represents a monitoring station of the national hydrometeorological network
type Station struct {
	Code         string   `json:"codigo"`
	Name         string   `json:"nome"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Altitude     *float64 `json:"altitude"`
	Operator     string   `json:"operadora"`
	Responsible  string   `json:"responsavel"`
	Basin        string   `json:"bacia"`
	SubBasin     string   `json:"sub_bacia"`
	State        string   `json:"estado"`
	Municipality string   `json:"municipio"`
	Type         string   `json:"tipo_estacao"`
}

// Basin represents a hydrographic basin
type Basin struct {
	Code string `json:"codigo"`
	Name string `json:"nome"`
}

// Entity represents an organization operating stations on behalf of the agency
type Entity struct {
	Code string `json:"codigo"`
	Name string `json:"nome"`
}

// SeriesPoint represents a single dated measurement of a time series
type SeriesPoint struct {
	Date    string `json:"data"`
	Value   Value  `json:"valor"`
	Quality string `json:"qualidade"`
	Method  string `json:"metodo"`
}

// Time parses the measurement date of the point
func (point *SeriesPoint) Time() (time.Time, error) {
	return time.Parse(dateLayoutISO, point.Date)
}

// SeriesKind enumerates the measurement types the service serves per station class
type SeriesKind string

const (
	// SeriesStage is the water level (cota) series of a fluviometric station
	SeriesStage SeriesKind = "cota"
	// SeriesRainfall is the rainfall (chuva) series of a pluviometric station
	SeriesRainfall SeriesKind = "chuva"
	// SeriesFlow is the flow (vazao) series of a fluviometric station
	SeriesFlow SeriesKind = "vazao"
)

var seriesEndpoints = map[SeriesKind]string{
	SeriesStage:    "HidroSerieCotas/v1",
	SeriesRainfall: "HidroSerieChuva/v1",
	SeriesFlow:     "HidroSerieVazao/v1",
}

// ParseSeriesKind resolves a user-supplied series kind string
func ParseSeriesKind(raw string) (SeriesKind, error) {
	kind := SeriesKind(raw)
	if _, ok := seriesEndpoints[kind]; !ok {
		return "", &ValidationError{Field: "series kind", Message: fmt.Sprintf("unknown series kind '%s' (expected 'cota', 'chuva' or 'vazao')", raw)}
	}
	return kind, nil
}

func (kind SeriesKind) endpoint() (string, error) {
	endpoint, ok := seriesEndpoints[kind]
	if !ok {
		return "", &ValidationError{Field: "series kind", Message: fmt.Sprintf("unknown series kind '%s'", string(kind))}
	}
	return endpoint, nil
}

// BasinFilter narrows down a basin lookup.
// The zero value requests the full basin inventory.
type BasinFilter struct {
	Code         string
	UpdatedSince string
	UpdatedUntil string
}

func (filter *BasinFilter) values() (url.Values, error) {
	params := url.Values{}
	if filter == nil {
		return params, nil
	}
	if filter.Code != "" {
		params.Set("Código da Bacia", filter.Code)
	}
	if err := setUpdateWindow(params, "Data Atualização Inicial", "Data Atualização Final", filter.UpdatedSince, filter.UpdatedUntil); err != nil {
		return nil, err
	}
	return params, nil
}

// EntityFilter narrows down an entity lookup.
// The zero value requests the full entity inventory.
type EntityFilter struct {
	Code         string
	UpdatedSince string
	UpdatedUntil string
}

func (filter *EntityFilter) values() (url.Values, error) {
	params := url.Values{}
	if filter == nil {
		return params, nil
	}
	if filter.Code != "" {
		params.Set("Código da Entidade", filter.Code)
	}
	if err := setUpdateWindow(params, "Data Atualização Inicial (yyyy-MM-dd)", "Data Atualização Final (yyyy-MM-dd)", filter.UpdatedSince, filter.UpdatedUntil); err != nil {
		return nil, err
	}
	return params, nil
}

// StationFilter narrows down a station inventory lookup.
// The zero value requests the full station inventory.
type StationFilter struct {
	Code         string
	State        string
	BasinCode    string
	UpdatedSince string
	UpdatedUntil string
}

func (filter *StationFilter) values() (url.Values, error) {
	params := url.Values{}
	if filter == nil {
		return params, nil
	}
	if filter.Code != "" {
		if err := ValidateStationCode(filter.Code); err != nil {
			return nil, err
		}
		params.Set("Código da Estação", filter.Code)
	}
	if filter.State != "" {
		params.Set("Unidade Federativa", filter.State)
	}
	if filter.BasinCode != "" {
		params.Set("Código da Bacia", filter.BasinCode)
	}
	if err := setUpdateWindow(params, "Data Atualização Inicial (yyyy-MM-dd)", "Data Atualização Final (yyyy-MM-dd)", filter.UpdatedSince, filter.UpdatedUntil); err != nil {
		return nil, err
	}
	return params, nil
}

func setUpdateWindow(params url.Values, sinceKey, untilKey, since, until string) error {
	if since != "" && until != "" {
		normalizedSince, normalizedUntil, err := ValidateDateRange(since, until)
		if err != nil {
			return err
		}
		params.Set(sinceKey, normalizedSince)
		params.Set(untilKey, normalizedUntil)
		return nil
	}
	if since != "" {
		normalized, err := NormalizeDate(since)
		if err != nil {
			return err
		}
		params.Set(sinceKey, normalized)
	}
	if until != "" {
		normalized, err := NormalizeDate(until)
		if err != nil {
			return err
		}
		params.Set(untilKey, normalized)
	}
	return nil
}
