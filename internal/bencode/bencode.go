package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrUnexpectedEnd = errors.New("bencode: unexpected end of data")
	ErrTrailingData  = errors.New("bencode: trailing data after value")
	ErrNoInfo        = errors.New("bencode: no info dictionary")
)

type decoder struct {
	data []byte
	pos  int
}

// Decode parses a single bencoded value. Strings decode to string, integers
// to int64, lists to []any and dictionaries to map[string]any.
func Decode(data []byte) (any, error) {
	d := &decoder{data: data}
	val, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, ErrTrailingData
	}
	return val, nil
}

// DecodeDict is Decode for input that must be a dictionary.
func DecodeDict(data []byte) (map[string]any, error) {
	val, err := Decode(data)
	if err != nil {
		return nil, err
	}
	dict, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bencode: top level value is %T, not a dictionary", val)
	}
	return dict, nil
}

func (d *decoder) value() (any, error) {
	if d.pos >= len(d.data) {
		return nil, ErrUnexpectedEnd
	}
	switch c := d.data[d.pos]; {
	case c == 'i':
		return d.integer()
	case c == 'l':
		return d.list()
	case c == 'd':
		return d.dict()
	case c >= '0' && c <= '9':
		return d.str()
	default:
		return nil, fmt.Errorf("bencode: invalid byte %q at offset %d", c, d.pos)
	}
}

func (d *decoder) integer() (int64, error) {
	d.pos++ // 'i'
	end := bytes.IndexByte(d.data[d.pos:], 'e')
	if end < 0 {
		return 0, ErrUnexpectedEnd
	}
	raw := string(d.data[d.pos : d.pos+end])
	if raw == "" || raw == "-0" || (len(raw) > 1 && raw[0] == '0') || (len(raw) > 2 && raw[:2] == "-0") {
		return 0, fmt.Errorf("bencode: malformed integer %q at offset %d", raw, d.pos)
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bencode: malformed integer %q: %w", raw, err)
	}
	d.pos += end + 1
	return val, nil
}

func (d *decoder) str() (string, error) {
	colon := bytes.IndexByte(d.data[d.pos:], ':')
	if colon < 0 {
		return "", ErrUnexpectedEnd
	}
	length, err := strconv.Atoi(string(d.data[d.pos : d.pos+colon]))
	if err != nil || length < 0 {
		return "", fmt.Errorf("bencode: malformed string length at offset %d", d.pos)
	}
	start := d.pos + colon + 1
	if length > len(d.data)-start {
		return "", ErrUnexpectedEnd
	}
	d.pos = start + length
	return string(d.data[start:d.pos]), nil
}

func (d *decoder) list() ([]any, error) {
	d.pos++ // 'l'
	list := make([]any, 0)
	for {
		if d.pos >= len(d.data) {
			return nil, ErrUnexpectedEnd
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			return list, nil
		}
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
}

func (d *decoder) dict() (map[string]any, error) {
	d.pos++ // 'd'
	dict := make(map[string]any)
	for {
		if d.pos >= len(d.data) {
			return nil, ErrUnexpectedEnd
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			return dict, nil
		}
		if c := d.data[d.pos]; c < '0' || c > '9' {
			return nil, fmt.Errorf("bencode: dictionary key is not a string at offset %d", d.pos)
		}
		key, err := d.str()
		if err != nil {
			return nil, err
		}
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		dict[key] = item
	}
}

// skip advances past one value without building it.
func (d *decoder) skip() error {
	_, err := d.value()
	return err
}

// RawInfo returns the exact bytes of the top level "info" dictionary, which
// is what the info hash is computed over.
func RawInfo(data []byte) ([]byte, error) {
	d := &decoder{data: data}
	if len(data) == 0 || data[0] != 'd' {
		return nil, ErrNoInfo
	}
	d.pos++
	for d.pos < len(d.data) && d.data[d.pos] != 'e' {
		key, err := d.str()
		if err != nil {
			return nil, err
		}
		start := d.pos
		if err := d.skip(); err != nil {
			return nil, err
		}
		if key == "info" {
			if d.data[start] != 'd' {
				return nil, ErrNoInfo
			}
			return d.data[start:d.pos], nil
		}
	}
	return nil, ErrNoInfo
}

// Encode produces the canonical encoding of v. Dictionary keys are sorted.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		buf.WriteString(strconv.Itoa(len(val)))
		buf.WriteByte(':')
		buf.WriteString(val)
	case []byte:
		buf.WriteString(strconv.Itoa(len(val)))
		buf.WriteByte(':')
		buf.Write(val)
	case int:
		fmt.Fprintf(buf, "i%de", val)
	case int64:
		fmt.Fprintf(buf, "i%de", val)
	case bool:
		if val {
			buf.WriteString("i1e")
		} else {
			buf.WriteString("i0e")
		}
	case []string:
		buf.WriteByte('l')
		for _, item := range val {
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	case []any:
		buf.WriteByte('l')
		for _, item := range val {
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('d')
		for _, key := range keys {
			if err := encode(buf, key); err != nil {
				return err
			}
			if err := encode(buf, val[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	default:
		return fmt.Errorf("bencode: unable to encode %v: unknown type %T", v, v)
	}
	return nil
}
