package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// TimestampLayout is the only format a Timestamp is ever written in.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp normalizes every stored instant. Documents may carry a BSON
// datetime, a BSON timestamp, a date string, epoch milliseconds, an exported
// {seconds, nanoseconds} document or nothing at all; clients always receive
// an RFC 3339 UTC string with millisecond precision, or null.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates to the millisecond, which is what a BSON datetime keeps.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := ParseTimestamp(str)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("models: invalid timestamp %s", s)
	}
	*t = NewTimestamp(time.UnixMilli(ms))
	return nil
}

func (t Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if t.IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(t.UTC())
}

func (t *Timestamp) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: typ, Value: data}
	switch typ {
	case bson.TypeNull, bson.TypeUndefined:
		t.Time = time.Time{}
	case bson.TypeDateTime:
		*t = NewTimestamp(raw.Time())
	case bson.TypeTimestamp:
		sec, _ := raw.Timestamp()
		*t = NewTimestamp(time.Unix(int64(sec), 0))
	case bson.TypeString:
		parsed, err := ParseTimestamp(raw.StringValue())
		if err != nil {
			return err
		}
		*t = parsed
	case bson.TypeInt64, bson.TypeInt32, bson.TypeDouble:
		ms, _ := numeric(raw)
		*t = NewTimestamp(time.UnixMilli(ms))
	case bson.TypeEmbeddedDocument:
		doc := raw.Document()
		sec, ok := lookupNumber(doc, "seconds", "_seconds")
		if !ok {
			return fmt.Errorf("models: timestamp document has no seconds field")
		}
		nsec, _ := lookupNumber(doc, "nanoseconds", "_nanoseconds")
		*t = NewTimestamp(time.Unix(sec, nsec))
	default:
		return fmt.Errorf("models: cannot decode %s into a timestamp", typ)
	}
	return nil
}

// ParseTimestamp accepts RFC 3339 variants and plain dates.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range acceptedLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(parsed), nil
		}
	}
	return Timestamp{}, fmt.Errorf("models: unrecognized timestamp %q", s)
}

func lookupNumber(doc bson.Raw, keys ...string) (int64, bool) {
	for _, key := range keys {
		v, err := doc.LookupErr(key)
		if err != nil {
			continue
		}
		if n, ok := numeric(v); ok {
			return n, true
		}
	}
	return 0, false
}

func numeric(v bson.RawValue) (int64, bool) {
	switch v.Type {
	case bson.TypeInt32:
		return int64(v.Int32()), true
	case bson.TypeInt64:
		return v.Int64(), true
	case bson.TypeDouble:
		return int64(v.Double()), true
	}
	return 0, false
}
