package format

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// keyword and inst are the EDN forms that have no JSON counterpart.
type (
	keyword string
	inst    string
)

// WriteEDN writes v as EDN.
//
// v goes through JSON first so json tags decide field names. Map keys become
// kebab-case keywords (user_id -> :user-id, _hints -> :hints), item statuses become
// keywords (ON_SALE -> :on-sale) and RFC 3339 timestamps become #inst literals.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return err
	}

	p := ednPrinter{pretty: pretty}
	p.value(toEDN("", tree), 0)
	p.buf.WriteByte('\n')
	_, err = w.Write(p.buf.Bytes())
	return err
}

// toEDN rewrites the fields of a decoded JSON tree that have a richer EDN form.
func toEDN(key string, v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = toEDN(k, x)
		}
	case []any:
		for i, x := range t {
			t[i] = toEDN("", x)
		}
	case string:
		switch key {
		case "status":
			if t != "" {
				return keyword(strings.ToLower(kebab(t)))
			}
		case "created_at", "updated_at":
			if _, err := time.Parse(time.RFC3339Nano, t); err == nil {
				return inst(t)
			}
		}
	}
	return v
}

func kebab(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "_")
	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}

type ednPrinter struct {
	buf    bytes.Buffer
	pretty bool
}

func (p *ednPrinter) value(v any, depth int) {
	switch t := v.(type) {
	case nil:
		p.buf.WriteString("nil")
	case bool:
		p.buf.WriteString(strconv.FormatBool(t))
	case json.Number:
		p.buf.WriteString(t.String())
	case string:
		p.buf.WriteString(strconv.Quote(t))
	case keyword:
		p.buf.WriteString(":" + string(t))
	case inst:
		p.buf.WriteString("#inst " + strconv.Quote(string(t)))
	case []any:
		p.coll('[', ']', len(t), depth, func(i int) {
			p.value(t[i], depth+1)
		})
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p.coll('{', '}', len(keys), depth, func(i int) {
			p.buf.WriteString(":" + kebab(keys[i]) + " ")
			p.value(t[keys[i]], depth+1)
		})
	}
}

// coll writes n elements between open and end. Pretty output puts one element per
// line, indented two spaces per level.
func (p *ednPrinter) coll(open, end byte, n, depth int, elem func(i int)) {
	p.buf.WriteByte(open)
	for i := 0; i < n; i++ {
		switch {
		case p.pretty:
			p.buf.WriteByte('\n')
			p.buf.WriteString(strings.Repeat("  ", depth+1))
		case i > 0:
			p.buf.WriteByte(' ')
		}
		elem(i)
	}
	if p.pretty && n > 0 {
		p.buf.WriteByte('\n')
		p.buf.WriteString(strings.Repeat("  ", depth))
	}
	p.buf.WriteByte(end)
}
