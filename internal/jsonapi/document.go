package jsonapi

import (
	"bytes"
	"encoding/json"
)

// Object is a JSON object that keeps its keys in insertion order
type Object struct {
	keys   []string
	values map[string]interface{}
}

// NewObject creates an empty ordered object
func NewObject() *Object {
	return &Object{values: make(map[string]interface{})}
}

// Set assigns a value, appending the key if it is new
func (o *Object) Set(key string, value interface{}) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key
func (o *Object) Get(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of keys
func (o *Object) Len() int {
	return len(o.keys)
}

// MarshalJSON encodes the object with its keys in insertion order
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Link is an href template entry of a document's top level "links"
type Link struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

// Document is a compound document
type Document struct {
	// Links maps relationship paths to href templates
	Links map[string]Link
	// Name is the key the primary data is emitted under
	Name string
	// Data is an *Object for a single resource or []*Object for many
	Data interface{}
	// Linked holds side-loaded resources by relation type
	Linked map[string][]*Object
}

// MarshalJSON encodes the document as links, primary data, linked.
// Empty links and linked sections are omitted.
func (d *Document) MarshalJSON() ([]byte, error) {
	obj := NewObject()
	if len(d.Links) > 0 {
		obj.Set("links", d.Links)
	}
	obj.Set(d.Name, d.Data)
	if len(d.Linked) > 0 {
		obj.Set("linked", d.Linked)
	}
	return obj.MarshalJSON()
}
