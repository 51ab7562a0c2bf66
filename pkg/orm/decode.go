package orm

import (
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// TagName is the struct tag Decode reads field names from. Untagged fields
// match case-insensitively.
const TagName = "orm"

// Decode copies records into dst, which must point to a slice of structs,
// a struct or a map. Values are converted weakly: "1" decodes into an int,
// and RFC 3339 or SQLite datetime strings decode into time.Time.
//
//	var articles []Article
//	err := orm.Decode(rows, &articles)
func Decode(records any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          TagName,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(records)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timeHook parses driver strings and unix seconds into time.Time.
func timeHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(n, 0).UTC(), nil
		}
	case int64:
		return time.Unix(v, 0).UTC(), nil
	}
	return data, nil
}
