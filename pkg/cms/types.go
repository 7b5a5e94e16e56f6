package cms

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// PageID is a page identifier in its JSON text form ("42").
type PageID string

func (id PageID) String() string { return string(id) }

// HomePage is the camelized home page record. Its shape is owned by the CMS.
type HomePage map[string]any

// ID returns the page id, or "" when absent.
func (h HomePage) ID() PageID {
	id, _ := pageIDOf(h["id"])
	return id
}

// Title returns the page title, or "" when absent.
func (h HomePage) Title() string {
	s, _ := h["title"].(string)
	return s
}

// Envelope is a camelized list response: items plus metadata such as meta.totalCount.
type Envelope map[string]any

// Items returns the items array, or nil when the envelope has none.
func (e Envelope) Items() []any {
	items, _ := e["items"].([]any)
	return items
}

// TotalCount returns meta.totalCount, or -1 when the backend did not send one.
func (e Envelope) TotalCount() int64 {
	meta, _ := e["meta"].(map[string]any)
	n, ok := meta["totalCount"].(json.Number)
	if !ok {
		return -1
	}
	v, err := n.Int64()
	if err != nil {
		return -1
	}
	return v
}

// Summaries decodes the items into TopicSummary values.
func (e Envelope) Summaries() ([]TopicSummary, error) {
	items := e.Items()
	out := make([]TopicSummary, 0, len(items))
	for i, item := range items {
		var s TopicSummary
		if err := decodeInto(item, &s); err != nil {
			return nil, fmt.Errorf("topic summary[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// TopicSummary is the restricted-field view of a topic returned by Topics.
type TopicSummary struct {
	ID           PageID   `mapstructure:"id" json:"id"`
	Title        string   `mapstructure:"title" json:"title"`
	StatusColor  string   `mapstructure:"statusColor" json:"statusColor"`
	Introduction string   `mapstructure:"introduction" json:"introduction"`
	Meta         PageMeta `mapstructure:"meta" json:"meta"`
}

// PageMeta is the meta block Wagtail attaches to every page item.
type PageMeta struct {
	Type             string `mapstructure:"type" json:"type"`
	DetailURL        string `mapstructure:"detailUrl" json:"detailUrl"`
	HTMLURL          string `mapstructure:"htmlUrl" json:"htmlUrl"`
	Slug             string `mapstructure:"slug" json:"slug"`
	FirstPublishedAt string `mapstructure:"firstPublishedAt" json:"firstPublishedAt"`
	SeoTitle         string `mapstructure:"seoTitle" json:"seoTitle"`
	SearchDesc       string `mapstructure:"searchDescription" json:"searchDescription"`

	Extra map[string]any `mapstructure:",remain" json:"-"`
}

// TopicPage is a full topic record. Fields the struct does not name are kept
// in Fields under their camelCase keys.
type TopicPage struct {
	ID           PageID   `mapstructure:"id" json:"id"`
	Title        string   `mapstructure:"title" json:"title"`
	StatusColor  string   `mapstructure:"statusColor" json:"statusColor"`
	Introduction string   `mapstructure:"introduction" json:"introduction"`
	Meta         PageMeta `mapstructure:"meta" json:"meta"`

	Fields map[string]any `mapstructure:",remain" json:"fields,omitempty"`

	raw map[string]any
}

// Slug returns the slug from the page meta.
func (p TopicPage) Slug() string { return p.Meta.Slug }

// Raw returns the camelized item the page was decoded from.
func (p TopicPage) Raw() map[string]any { return p.raw }

// MarshalJSON writes the camelized item as received, so encoding a decoded
// page reproduces the API shape.
func (p TopicPage) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return json.Marshal(p.raw)
	}
	type plain TopicPage
	return json.Marshal(plain(p))
}

func decodeTopicPage(item any) (TopicPage, error) {
	var p TopicPage
	if err := decodeInto(item, &p); err != nil {
		return TopicPage{}, err
	}
	p.raw, _ = item.(map[string]any)
	return p, nil
}

var pageIDType = reflect.TypeOf(PageID(""))

// lenientHook leaves a typed field at its zero value when the payload holds
// a value of another type. The value itself survives in the raw item.
func lenientHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if data == nil {
		return data, nil
	}
	if to == pageIDType {
		id, err := pageIDOf(data)
		if err != nil {
			return PageID(""), nil
		}
		return id, nil
	}
	switch to.Kind() {
	case reflect.String:
		switch t := data.(type) {
		case string:
			return t, nil
		case json.Number:
			return t.String(), nil
		default:
			return "", nil
		}
	case reflect.Struct:
		if _, ok := data.(map[string]any); !ok {
			return map[string]any{}, nil
		}
	}
	return data, nil
}

func decodeInto(input any, out any) error {
	if _, ok := input.(map[string]any); !ok {
		return fmt.Errorf("%w: expected object, got %T", ErrUnexpectedShape, input)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: lenientHook,
		Result:     out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func pageIDOf(v any) (PageID, error) {
	switch t := v.(type) {
	case json.Number:
		return PageID(t.String()), nil
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return PageID(s), nil
		}
	case float64:
		return PageID(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case int:
		return PageID(strconv.Itoa(t)), nil
	case int64:
		return PageID(strconv.FormatInt(t, 10)), nil
	case PageID:
		if t != "" {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: page id %v (%T)", ErrUnexpectedShape, v, v)
}
