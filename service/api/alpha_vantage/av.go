package alpha_vantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // alpha vantage reports US/Eastern timestamps

	"github.com/guregu/null/v6"

	ex "capm/data/extensions"
	c "capm/service/api"
	"capm/service/logger"
)

// public
const (
	HostDefault = "www.alphavantage.co"
)

// private
const (
	defaultDataType = "json"
	defaultTimeout  = time.Second * 30

	// api request elements
	query      = "/query"
	apiKey     = "apikey"
	dataType   = "datatype"
	outputSize = "outputsize"
	symbol     = "symbol"
	function   = "function"

	metaDataKey = "Meta Data"
)

var (
	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}

	// json key suffix -> field name
	ohlcvResultKeys = map[string]string{
		"Open":          ". open",
		"High":          ". high",
		"Low":           ". low",
		"Close":         ". close",
		"AdjustedClose": ". adjusted close",
		"Volume":        ". volume",
	}

	// keys alpha vantage uses instead of data when a request is refused
	apiMessageKeys = []string{"Error Message", "Note", "Information"}

	ErrNoData = errors.New("alpha vantage returned no time series")
)

type AlphaVantageClient struct {
	*c.Client
}

type TimeSeriesResult struct {
	Metadata   *TimeSeriesMetadata
	TimeSeries []*TimeSeriesData
}

type TimeSeriesMetadata struct {
	Information   string
	Symbol        string
	LastRefreshed time.Time
	OutputSize    null.String
	TimeZone      string
}

type TimeSeriesData struct {
	Timestamp     time.Time
	Open          null.Float
	High          null.Float
	Low           null.Float
	Close         null.Float
	AdjustedClose null.Float
	Volume        null.Float
}

func GetClient(apiKey string, requestsPerMinute int) AlphaVantageClient {
	return AlphaVantageClient{
		c.ClientFactory(HostDefault, apiKey, defaultTimeout, requestsPerMinute),
	}
}

func NewClient(client *c.Client) AlphaVantageClient {
	return AlphaVantageClient{client}
}

// StockTimeSeries queries a time series at a specific frequency, rows are returned oldest first.
// https://www.alphavantage.co/documentation/#daily
func (avc AlphaVantageClient) StockTimeSeries(ctx context.Context, timeSeries TimeSeries, ticker string, size OutputSize) (*TimeSeriesResult, error) {
	endpoint := avc.buildRequestPath(map[string]string{
		function:   timeSeries.Function(),
		symbol:     ticker,
		outputSize: string(size),
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	if err := checkApiMessage(raw); err != nil {
		return nil, fmt.Errorf("%s %s: %w", timeSeries.Function(), ticker, err)
	}

	metaData, timeZone, err := parseMetaData(raw)
	if err != nil {
		return nil, err
	}

	timeSeriesData, err := parseTimeSeriesDataResult(raw, timeSeries.TimeSeriesKey(), timeZone)
	if err != nil {
		return nil, err
	}

	return &TimeSeriesResult{
		Metadata:   metaData,
		TimeSeries: timeSeriesData,
	}, nil
}

func (avc AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	endpoint := &url.URL{Path: query}

	// base parameters
	values := endpoint.Query()
	values.Set(apiKey, avc.Client.ApiKey)
	values.Set(dataType, defaultDataType)
	values.Set(outputSize, string(OutputSizeCompact))

	// additional parameters
	for key, value := range params {
		values.Set(key, value)
	}

	endpoint.RawQuery = values.Encode()

	return endpoint
}

func parseRawJson(reader io.Reader) (raw map[string]json.RawMessage, err error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	// converting to a <string, raw message> map
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return
}

// checkApiMessage turns a throttling or unknown symbol payload into an error
func checkApiMessage(raw map[string]json.RawMessage) error {
	if _, ok := raw[metaDataKey]; ok {
		return nil
	}

	for _, key := range apiMessageKeys {
		if msg, ok := raw[key]; ok {
			var text string
			if err := json.Unmarshal(msg, &text); err != nil {
				text = string(msg)
			}
			return fmt.Errorf("%w: %s", ErrNoData, text)
		}
	}

	return ErrNoData
}

func parseMetaData(raw map[string]json.RawMessage) (*TimeSeriesMetadata, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw[metaDataKey], &metadataElements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	metaDataKeys := slices.Collect(maps.Keys(metadataElements))
	find := func(suffix string) (string, bool) {
		key, err := ex.FilterSingle(metaDataKeys, func(s string) bool { return strings.HasSuffix(s, suffix) })
		if err != nil {
			return "", false
		}
		return metadataElements[key], true
	}

	symbolValue, ok := find(". Symbol")
	if !ok {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	timeZoneValue, ok := find(". Time Zone")
	if !ok {
		return nil, nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(timeZoneValue)
	if err != nil {
		return nil, nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", timeZoneValue, err)
	}

	lastRefreshedValue, ok := find(". Last Refreshed")
	if !ok {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(lastRefreshedValue, timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date: %w", err)
	}

	res := TimeSeriesMetadata{
		Symbol:        symbolValue,
		LastRefreshed: lastRefreshed,
		TimeZone:      timeZoneValue,
	}

	if information, ok := find(". Information"); ok {
		res.Information = information
	}
	if size, ok := find(". Output Size"); ok {
		res.OutputSize = null.StringFrom(size)
	}

	return &res, timeZone, nil
}

func parseTimeSeriesDataResult(raw map[string]json.RawMessage, key string, location *time.Location) ([]*TimeSeriesData, error) {
	var timeSeriesElements map[string]map[string]string
	if err := json.Unmarshal(raw[key], &timeSeriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series %q: %w", key, err)
	}

	if len(timeSeriesElements) == 0 {
		return nil, fmt.Errorf("%w under %q", ErrNoData, key)
	}

	// every row carries the same headers, build the lookup from any one of them
	var firstValue map[string]string
	for _, v := range timeSeriesElements {
		firstValue = v
		break
	}

	ohlcvLookup, err := getLookupKey(ohlcvResultKeys, firstValue)
	if err != nil {
		return nil, err
	}

	timeSeries := make([]*TimeSeriesData, 0, len(timeSeriesElements))
	for timeSeriesKey, timeSeriesValue := range timeSeriesElements {
		timestamp, err := parseDate(timeSeriesKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting timestamp from string to time.Time: %w", err)
		}

		row := &TimeSeriesData{Timestamp: timestamp}
		for jsonKey, field := range ohlcvLookup {
			setField(row, field, parseFloat(timeSeriesValue[jsonKey]))
		}

		timeSeries = append(timeSeries, row)
	}

	slices.SortFunc(timeSeries, func(i, j *TimeSeriesData) int {
		return i.Timestamp.Compare(j.Timestamp)
	})

	return timeSeries, nil
}

func setField(row *TimeSeriesData, field string, value null.Float) {
	switch field {
	case "Open":
		row.Open = value
	case "High":
		row.High = value
	case "Low":
		row.Low = value
	case "Close":
		row.Close = value
	case "AdjustedClose":
		row.AdjustedClose = value
	case "Volume":
		row.Volume = value
	}
}

// getLookupKey maps the response headers (e.g. "4. close") to field names
func getLookupKey(expectedKeys, values map[string]string) (map[string]string, error) {
	res := make(map[string]string)
	responseValueHeaders := slices.Collect(maps.Keys(values))

	for key, value := range expectedKeys {
		f := func(s string) bool {
			return strings.HasSuffix(strings.ToLower(s), strings.ToLower(value))
		}
		if jsonKey, err := ex.FilterSingle(responseValueHeaders, f); err == nil {
			res[jsonKey] = key
		}
	}

	if len(res) == 0 {
		return nil, fmt.Errorf("error generating key value map from av response object. Available headers: %v", responseValueHeaders)
	}

	return res, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		logger.GetLogger().WithComponent("alpha_vantage").WithFields(logger.Fields{"timeZone": location}).Debug("time zone not recognized, using UTC")
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation: %w", loc, err)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

func parseFloat(val string) null.Float {
	if val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return null.FloatFrom(f)
		}
	}
	return null.Float{}
}
