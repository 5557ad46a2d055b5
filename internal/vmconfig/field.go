package vmconfig

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Repair records one place where decoding substituted a default or
// dropped data instead of using what the document said.
type Repair struct {
	Path   string
	Reason string
}

func (r Repair) String() string {
	return r.Path + ": " + r.Reason
}

type decoder struct {
	repairs []Repair
}

func (d *decoder) repair(path, format string, args ...interface{}) {
	r := Repair{Path: path, Reason: fmt.Sprintf(format, args...)}
	log.WithField("path", path).Debugf("repaired configuration: %s", r.Reason)
	d.repairs = append(d.repairs, r)
}

// field reads obj[key] through coerce. A missing key yields def silently;
// a present key of the wrong shape yields def and is recorded.
func field[T any](d *decoder, obj Value, path, key string, def T, coerce func(Value) (T, bool)) T {
	raw, ok := obj.Get(key)
	if !ok {
		return def
	}
	val, ok := coerce(raw)
	if !ok {
		d.repair(join(path, key), "unexpected %s value, using default", raw.Kind())
		return def
	}
	return val
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func asString(v Value) (string, bool) {
	return v.AsString()
}

func asBool(v Value) (bool, bool) {
	switch v.Kind() {
	case KindBool:
		return v.AsBool()
	case KindNumber:
		f, err := strconv.ParseFloat(v.num, 64)
		if err != nil {
			return false, false
		}
		return f != 0, true
	case KindString:
		switch strings.ToLower(v.str) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

type unsigned interface {
	~uint16 | ~uint32 | ~uint64
}

func maxOf[T unsigned]() uint64 {
	var zero T
	switch any(zero).(type) {
	case uint16:
		return math.MaxUint16
	case uint32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

func asUint[T unsigned](v Value) (T, bool) {
	u, ok := v.Uint64()
	if !ok || u > maxOf[T]() {
		return 0, false
	}
	return T(u), true
}

func asInt32(v Value) (int32, bool) {
	i, ok := v.Int64()
	if !ok || i < math.MinInt32 || i > math.MaxInt32 {
		return 0, false
	}
	return int32(i), true
}

// enumField reads a string-valued enum. Unknown names decode to the zero
// variant and are recorded.
func enumField[E interface {
	enum
	fmt.Stringer
}](d *decoder, obj Value, path, key string, def E, parse func(string) E) E {
	s := field(d, obj, path, key, def.String(), asString)
	e := parse(s)
	if e.String() != s {
		d.repair(join(path, key), "unknown value %q, using %s", s, e)
	}
	return e
}

// asObject and asArray are used for nested records and lists.
func asObject(v Value) (Value, bool) {
	if v.Kind() != KindObject {
		return Value{}, false
	}
	return v, true
}

func asArray(v Value) ([]Value, bool) {
	if v.Kind() != KindArray {
		return nil, false
	}
	return v.Items(), true
}
