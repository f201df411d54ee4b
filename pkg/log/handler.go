package log

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	// ErrAttrKey is the field name used for an error passed as the first field.
	ErrAttrKey = "error"
)

// appendFields は key/value ペアを zerolog のイベントに追加します。
// 先頭要素が error で要素数が奇数の場合、その error を ErrAttrKey として扱います。
// error 値にはcockroachdb/errorsのスタックトレースを StacktraceKey として付与します。
func appendFields(e *zerolog.Event, fields []any) *zerolog.Event {
	if e == nil {
		return e
	}
	i := 0
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			e = appendError(e, ErrAttrKey, err)
			i = 1
		}
	}
	for ; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = appendError(e, key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

func appendError(e *zerolog.Event, key string, err error) *zerolog.Event {
	e = e.Str(key, err.Error())
	if m, ok := err.(zerolog.LogObjectMarshaler); ok {
		e = e.Object(key+".detail", m)
	}
	if st := extractStacktrace(err); st != "" {
		e = e.Str(StacktraceKey, st)
	}
	return e
}

// fieldMap は With で渡された key/value ペアを zerolog.Context 用のマップに変換します。
func fieldMap(fields []any) map[string]interface{} {
	m := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			m[key] = err.Error()
			continue
		}
		m[key] = fields[i+1]
	}
	return m
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
