package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v6"

	c "capm/service/api"
)

const (
	HostDefault = "api.stlouisfed.org"

	// SeriesSP500 is the S&P 500 daily close series
	SeriesSP500 = "SP500"
)

const (
	defaultTimeout  = time.Second * 30
	defaultFileType = "json"

	observations     = "/fred/series/observations"
	apiKey           = "api_key"
	fileType         = "file_type"
	seriesId         = "series_id"
	observationStart = "observation_start"
	observationEnd   = "observation_end"

	// fred writes "." for days without a value (market holidays)
	missingValue = "."
)

type FredClient struct {
	*c.Client
}

type Observation struct {
	Date  time.Time
	Value null.Float
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

func GetClient(apiKey string, requestsPerMinute int) FredClient {
	return FredClient{
		c.ClientFactory(HostDefault, apiKey, defaultTimeout, requestsPerMinute),
	}
}

func NewClient(client *c.Client) FredClient {
	return FredClient{client}
}

// SeriesObservations returns the observations of series between start and end inclusive, oldest first.
// https://fred.stlouisfed.org/docs/api/fred/series_observations.html
func (fc FredClient) SeriesObservations(ctx context.Context, series string, start, end time.Time) ([]Observation, error) {
	values := url.Values{}
	values.Set(apiKey, fc.Client.ApiKey)
	values.Set(fileType, defaultFileType)
	values.Set(seriesId, series)
	values.Set(observationStart, start.Format(time.DateOnly))
	values.Set(observationEnd, end.Format(time.DateOnly))

	endpoint := &url.URL{Path: observations, RawQuery: values.Encode()}

	response, err := fc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	var raw observationsResponse
	if err := json.NewDecoder(response.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("error decoding fred observations for %s: %w", series, err)
	}

	res := make([]Observation, 0, len(raw.Observations))
	for _, o := range raw.Observations {
		date, err := time.Parse(time.DateOnly, o.Date)
		if err != nil {
			return nil, fmt.Errorf("error parsing fred observation date %q: %w", o.Date, err)
		}
		res = append(res, Observation{Date: date, Value: parseValue(o.Value)})
	}

	return res, nil
}

func parseValue(val string) null.Float {
	if val == "" || val == missingValue {
		return null.Float{}
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(f)
}
