package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Optional はJSONフィールドの「キーなし」「null」「値あり」を区別して保持する。
type Optional[T any] struct {
	Value T
	Set   bool // キーが存在した
	Null  bool // 値がnullだった
}

// Some は値ありのOptionalを返す。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null は明示的なnullを表すOptionalを返す。
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Get は値ありの場合に値とtrueを返す。キーなし・nullの場合はfalseを返す。
func (o Optional[T]) Get() (T, bool) {
	if o.Set && !o.Null {
		return o.Value, true
	}
	var zero T
	return zero, false
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// キーが存在しない場合は呼ばれないため、Setはfalseのまま残る。
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Timestamp はAPIが受け付ける日時表現。
// RFC 3339に加えて、タイムゾーンなしの日時（UTCとみなす）と日付のみを受け付ける。
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp は受け付け可能な形式の文字列を日時に変換する。
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeTime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime format: %q", s)
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// NormalizeTime は日時をUTCに変換し、マイクロ秒精度に切り詰める。
// PostgreSQLのtimestamp精度に合わせ、保存前後で値が変わらないようにする。
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
