package workflow

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Data is the fixed field set carried by a session. Nil means unset.
type Data struct {
	CountryID   *int64  `json:"country_id"`
	CityID      *int64  `json:"city_id"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	HouseID     *int64  `json:"house_id"`
	PhoneNumber *string `json:"phone_number"`
	Comment     *string `json:"comment"`
	BookingID   *int64  `json:"booking_id"`
	IsActual    *bool   `json:"is_actual"`
}

// Session is the persisted record of one chat.
type Session struct {
	Step Step `json:"step"`
	Data Data `json:"data"`
}

// Merge returns d overlaid with every field set in fresh.
func (d Data) Merge(fresh Data) Data {
	out := d
	if fresh.CountryID != nil {
		out.CountryID = fresh.CountryID
	}
	if fresh.CityID != nil {
		out.CityID = fresh.CityID
	}
	if fresh.StartDate != nil {
		out.StartDate = fresh.StartDate
	}
	if fresh.EndDate != nil {
		out.EndDate = fresh.EndDate
	}
	if fresh.HouseID != nil {
		out.HouseID = fresh.HouseID
	}
	if fresh.PhoneNumber != nil {
		out.PhoneNumber = fresh.PhoneNumber
	}
	if fresh.Comment != nil {
		out.Comment = fresh.Comment
	}
	if fresh.BookingID != nil {
		out.BookingID = fresh.BookingID
	}
	if fresh.IsActual != nil {
		out.IsActual = fresh.IsActual
	}
	return out
}

// Params flattens the set fields into token parameters.
func (d Data) Params() map[string]string {
	p := make(map[string]string)
	putInt := func(key string, v *int64) {
		if v != nil {
			p[key] = strconv.FormatInt(*v, 10)
		}
	}
	putStr := func(key string, v *string) {
		if v != nil && *v != "" {
			p[key] = *v
		}
	}
	putInt(KeyCountryID, d.CountryID)
	putInt(KeyCityID, d.CityID)
	putStr(KeyStartDate, d.StartDate)
	putStr(KeyEndDate, d.EndDate)
	putInt(KeyHouseID, d.HouseID)
	putStr(KeyPhoneNumber, d.PhoneNumber)
	putStr(KeyComment, d.Comment)
	putInt(KeyBookingID, d.BookingID)
	if d.IsActual != nil {
		p[KeyIsActual] = encodeBool(*d.IsActual)
	}
	return p
}

// DataFromParams builds Data from parsed token parameters. Keys outside the
// session field set, such as page, are ignored.
func DataFromParams(params map[string]string) (Data, error) {
	raw := make(map[string]any, len(params))
	for k, v := range params {
		raw[k] = v
	}
	return NormalizeData(raw)
}

// NormalizeData coerces a loosely typed mapping into Data. Numbers may come
// as JSON floats or strings; booleans as bool, 0/1 or "true"/"false".
func NormalizeData(raw map[string]any) (Data, error) {
	var d Data
	var err error
	if d.CountryID, err = toInt(raw, KeyCountryID); err != nil {
		return Data{}, err
	}
	if d.CityID, err = toInt(raw, KeyCityID); err != nil {
		return Data{}, err
	}
	if d.StartDate, err = toDate(raw, KeyStartDate); err != nil {
		return Data{}, err
	}
	if d.EndDate, err = toDate(raw, KeyEndDate); err != nil {
		return Data{}, err
	}
	if d.HouseID, err = toInt(raw, KeyHouseID); err != nil {
		return Data{}, err
	}
	if d.PhoneNumber, err = toString(raw, KeyPhoneNumber); err != nil {
		return Data{}, err
	}
	if d.Comment, err = toString(raw, KeyComment); err != nil {
		return Data{}, err
	}
	if d.BookingID, err = toInt(raw, KeyBookingID); err != nil {
		return Data{}, err
	}
	if d.IsActual, err = toBool(raw, KeyIsActual); err != nil {
		return Data{}, err
	}
	return d, nil
}

// Start parses StartDate in loc.
func (d Data) Start(loc *time.Location) (time.Time, bool) {
	return parseDate(d.StartDate, loc)
}

// End parses EndDate in loc.
func (d Data) End(loc *time.Location) (time.Time, bool) {
	return parseDate(d.EndDate, loc)
}

func parseDate(v *string, loc *time.Location) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, *v, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func invalid(key string, v any) error {
	return fmt.Errorf("%w: %s=%v", ErrArgumentInvalid, key, v)
}

func toInt(raw map[string]any, key string) (*int64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n int64
	switch val := v.(type) {
	case int:
		n = int64(val)
	case int32:
		n = int64(val)
	case int64:
		n = val
	case float64:
		if val != math.Trunc(val) {
			return nil, invalid(key, v)
		}
		n = int64(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			n = i
			break
		}
		f, err := val.Float64()
		if err != nil || f != math.Trunc(f) {
			return nil, invalid(key, v)
		}
		n = int64(f)
	case string:
		if val == "" {
			return nil, nil
		}
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, invalid(key, v)
		}
		n = i
	default:
		return nil, invalid(key, v)
	}
	return &n, nil
}

func toString(raw map[string]any, key string) (*string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64, int, int64, json.Number:
		s = fmt.Sprint(val)
	default:
		return nil, invalid(key, v)
	}
	return &s, nil
}

func toDate(raw map[string]any, key string) (*string, error) {
	s, err := toString(raw, key)
	if err != nil || s == nil {
		return nil, err
	}
	if *s == "" {
		return nil, nil
	}
	if _, err := time.Parse(dateLayout, *s); err != nil {
		return nil, invalid(key, *s)
	}
	return s, nil
}

func toBool(raw map[string]any, key string) (*bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	var b bool
	switch val := v.(type) {
	case bool:
		b = val
	case float64:
		b = val != 0
	case int:
		b = val != 0
	case int64:
		b = val != 0
	case json.Number:
		b = val.String() != "0"
	case string:
		switch strings.ToLower(val) {
		case "1", "true":
			b = true
		case "0", "false":
			b = false
		case "":
			return nil, nil
		default:
			return nil, invalid(key, v)
		}
	default:
		return nil, invalid(key, v)
	}
	return &b, nil
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
