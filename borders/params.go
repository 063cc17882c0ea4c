package borders

import (
	"iter"
	"net/url"
	"strings"
)

// Params is an ordered set of query parameters. Setting an existing key
// keeps its position; deleting and setting it again moves it to the end.
// The zero value is ready to use.
type Params struct {
	keys []string
	vals map[string]string
}

// NewParams builds Params from alternating keys and values. A trailing key
// without a value gets "".
func NewParams(kv ...string) *Params {
	p := &Params{}
	for i := 0; i < len(kv); i += 2 {
		v := ""
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		p.Set(kv[i], v)
	}
	return p
}

func (p *Params) Set(key, value string) *Params {
	if p.vals == nil {
		p.vals = make(map[string]string)
	}
	if _, ok := p.vals[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.vals[key] = value
	return p
}

func (p *Params) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.vals[key]
	return v, ok
}

func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

func (p *Params) Del(key string) {
	if p == nil {
		return
	}
	if _, ok := p.vals[key]; !ok {
		return
	}
	delete(p.vals, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// All iterates over the parameters in order.
func (p *Params) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if p == nil {
			return
		}
		for _, k := range p.keys {
			if !yield(k, p.vals[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy. Cloning nil yields an empty set.
func (p *Params) Clone() *Params {
	out := &Params{}
	if p == nil {
		return out
	}
	out.keys = append([]string(nil), p.keys...)
	out.vals = make(map[string]string, len(p.vals))
	for k, v := range p.vals {
		out.vals[k] = v
	}
	return out
}

// Encode renders key=value pairs joined by '&' in order. Values are query
// escaped, keys are written verbatim.
func (p *Params) Encode() string {
	var b strings.Builder
	for k, v := range p.All() {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	return b.String()
}
