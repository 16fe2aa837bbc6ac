// Package osm fetches OpenStreetMap relations and assembles their outer ways into area boundaries.
package osm

import (
	"encoding/xml"
	"strconv"
)

// OSM represents the root element of an OpenStreetMap XML document
type OSM struct {
	XMLName   xml.Name   `xml:"osm"`
	Version   string     `xml:"version,attr"`
	Generator string     `xml:"generator,attr"`
	Nodes     []Node     `xml:"node"`
	Ways      []Way      `xml:"way"`
	Relations []Relation `xml:"relation"`
}

// Node represents an OSM node (point)
type Node struct {
	ID   int64   `xml:"id,attr"`
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Tags []Tag   `xml:"tag"`
}

// Way represents an OSM way (sequence of nodes forming a line or area)
type Way struct {
	ID    int64     `xml:"id,attr"`
	Nodes []NodeRef `xml:"nd"`
	Tags  []Tag     `xml:"tag"`
}

// NodeRef represents a reference to a node in a way
type NodeRef struct {
	Ref int64 `xml:"ref,attr"`
}

// Relation represents an OSM relation (grouping of nodes, ways, and other relations)
type Relation struct {
	ID      int64    `xml:"id,attr"`
	Members []Member `xml:"member"`
	Tags    []Tag    `xml:"tag"`
}

// Member represents a member of a relation
type Member struct {
	Type string `xml:"type,attr"`
	Ref  int64  `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

// Tag represents a key-value tag
type Tag struct {
	Key   string `xml:"k,attr"`
	Value string `xml:"v,attr"`
}

func tagValue(tags []Tag, key string) string {
	for _, tag := range tags {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

// GetTagValue returns the value of a tag by key, or empty string if not found
func (r *Relation) GetTagValue(key string) string {
	return tagValue(r.Tags, key)
}

// GetName prefers the English name since the editor UI is English-first
func (r *Relation) GetName() string {
	for _, key := range []string{"name:en", "name", "name:ar"} {
		if name := r.GetTagValue(key); name != "" {
			return name
		}
	}
	return ""
}

// GetAdminLevel returns the administrative level, -1 when absent
func (r *Relation) GetAdminLevel() int {
	level := r.GetTagValue("admin_level")
	if level == "" {
		return -1
	}
	if adminLevel, err := strconv.Atoi(level); err == nil {
		return adminLevel
	}
	return -1
}
