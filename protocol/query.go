package protocol

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// queryEncode serializes an input shape into the URL-form body of the
// query and ec2 dialects: flat key/value pairs with Action and Version
// added, keys ASCII-lexicographically sorted. The query dialect
// suffixes list members with .member.N, the ec2 form flattens to .N.
func queryEncode(input any, action, version string, ec2Form bool) (string, error) {
	values := url.Values{}
	values.Set("Action", action)
	if version != "" {
		values.Set("Version", version)
	}

	if input != nil {
		v := reflect.ValueOf(input)
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v = reflect.Value{}
				break
			}
			v = v.Elem()
		}
		if v.IsValid() {
			if v.Kind() != reflect.Struct {
				return "", fmt.Errorf("query dialect input must be a struct, got %T", input)
			}
			if err := queryEncodeStruct(values, "", v, ec2Form); err != nil {
				return "", err
			}
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(url.QueryEscape(values.Get(k)), "+", "%20"))
	}
	return b.String(), nil
}

func queryEncodeStruct(values url.Values, prefix string, v reflect.Value, ec2Form bool) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("aws"); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if err := queryEncodeValue(values, name, v.Field(i), ec2Form); err != nil {
			return err
		}
	}
	return nil
}

func queryEncodeValue(values url.Values, name string, v reflect.Value, ec2Form bool) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		values.Set(name, v.String())
	case reflect.Bool:
		values.Set(name, strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		values.Set(name, strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		values.Set(name, strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		values.Set(name, strconv.FormatFloat(v.Float(), 'f', -1, 64))
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			member := fmt.Sprintf("%s.member.%d", name, i+1)
			if ec2Form {
				member = fmt.Sprintf("%s.%d", name, i+1)
			}
			if err := queryEncodeValue(values, member, v.Index(i), ec2Form); err != nil {
				return err
			}
		}
	case reflect.Struct:
		if t, ok := v.Interface().(time.Time); ok {
			values.Set(name, t.UTC().Format(time.RFC3339))
			return nil
		}
		return queryEncodeStruct(values, name, v, ec2Form)
	default:
		return fmt.Errorf("cannot form-encode %s of kind %s", name, v.Kind())
	}
	return nil
}

// queryDecode parses a form-encoded body back into flat key/value
// pairs, the inverse of queryEncode for scalar members.
func queryDecode(body string) (url.Values, error) {
	return url.ParseQuery(body)
}
