// Package rels parses OPC relationship parts (.rels) and resolves their
// targets to package part names.
package rels

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// Relationship types used by spreadsheet packages.
const (
	TypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	TypeWorksheet      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	TypeSharedStrings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	TypeStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
)

// Relationships is the root element of a .rels XML document.
type Relationships struct {
	Relationships []Relationship `xml:"Relationship"`
}

// Relationship is one entry in a .rels XML document.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// Set is a parsed relationship part together with the part it belongs to,
// so that relative targets can be resolved.
type Set struct {
	source string
	byID   map[string]Relationship
	order  []Relationship
}

// Parse parses the raw bytes of a .rels part.  source is the name of the
// part that owns the relationships ("" for the package root), e.g.
// "xl/workbook.xml".
func Parse(source string, data []byte) (*Set, error) {
	var r Relationships
	if err := xml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rels XML: %w", err)
	}
	s := &Set{
		source: source,
		byID:   make(map[string]Relationship, len(r.Relationships)),
		order:  r.Relationships,
	}
	for _, rel := range r.Relationships {
		s.byID[rel.ID] = rel
	}
	return s, nil
}

// PartName returns the .rels part name for the given source part, e.g.
// "xl/workbook.xml" → "xl/_rels/workbook.xml.rels" and "" → "_rels/.rels".
func PartName(source string) string {
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

// Target resolves the relationship with the given ID to a package part name.
func (s *Set) Target(id string) (string, bool) {
	rel, ok := s.byID[id]
	if !ok || rel.TargetMode == "External" {
		return "", false
	}
	return s.resolve(rel.Target), true
}

// FirstOfType resolves the first internal relationship with the given type.
func (s *Set) FirstOfType(typ string) (string, bool) {
	for _, rel := range s.order {
		if rel.Type == typ && rel.TargetMode != "External" {
			return s.resolve(rel.Target), true
		}
	}
	return "", false
}

// resolve turns a relationship target into a part name.  Absolute targets
// ("/xl/worksheets/sheet1.xml") are taken from the package root; relative
// targets are resolved against the source part's directory.
func (s *Set) resolve(target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join(path.Dir(s.source), target))
}
