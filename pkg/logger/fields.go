package logger

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field is a typed key/value attached to a log entry.
type Field interface {
	AddTo(event *zerolog.Event)
	GetKeyValue() (string, interface{})
}

type StringField struct {
	Key   string
	Value string
}

func (f StringField) AddTo(event *zerolog.Event)         { event.Str(f.Key, f.Value) }
func (f StringField) GetKeyValue() (string, interface{}) { return f.Key, f.Value }

type IntField struct {
	Key   string
	Value int
}

func (f IntField) AddTo(event *zerolog.Event)         { event.Int(f.Key, f.Value) }
func (f IntField) GetKeyValue() (string, interface{}) { return f.Key, f.Value }

type Int64Field struct {
	Key   string
	Value int64
}

func (f Int64Field) AddTo(event *zerolog.Event)         { event.Int64(f.Key, f.Value) }
func (f Int64Field) GetKeyValue() (string, interface{}) { return f.Key, f.Value }

type Float64Field struct {
	Key   string
	Value float64
}

func (f Float64Field) AddTo(event *zerolog.Event)         { event.Float64(f.Key, f.Value) }
func (f Float64Field) GetKeyValue() (string, interface{}) { return f.Key, f.Value }

type BoolField struct {
	Key   string
	Value bool
}

func (f BoolField) AddTo(event *zerolog.Event)         { event.Bool(f.Key, f.Value) }
func (f BoolField) GetKeyValue() (string, interface{}) { return f.Key, f.Value }

type ErrorField struct {
	Value error
}

func (f ErrorField) AddTo(event *zerolog.Event) { event.Err(f.Value) }

func (f ErrorField) GetKeyValue() (string, interface{}) {
	if f.Value == nil {
		return "error", nil
	}
	return "error", f.Value.Error()
}

type AnyField struct {
	Key   string
	Value interface{}
}

func (f AnyField) AddTo(event *zerolog.Event)         { event.Interface(f.Key, f.Value) }
func (f AnyField) GetKeyValue() (string, interface{}) { return f.Key, f.Value }

func String(key, value string) Field          { return StringField{Key: key, Value: value} }
func Int(key string, value int) Field         { return IntField{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Int64Field{Key: key, Value: value} }
func Float64(key string, v float64) Field     { return Float64Field{Key: key, Value: v} }
func Bool(key string, value bool) Field       { return BoolField{Key: key, Value: value} }
func Error(err error) Field                   { return ErrorField{Value: err} }
func Any(key string, value interface{}) Field { return AnyField{Key: key, Value: value} }

// Duration logs milliseconds.
func Duration(key string, value time.Duration) Field {
	return Int64Field{Key: key, Value: value.Milliseconds()}
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}
