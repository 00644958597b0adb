package compiler

import (
	"bytes"
	"encoding/xml"
	"strings"
)

type xmlDoc struct {
	XMLName  xml.Name    `xml:"doc"`
	Assembly xmlAssembly `xml:"assembly"`
	Members  []xmlMember `xml:"members>member"`
}

type xmlAssembly struct {
	Name string `xml:"name"`
}

type xmlMember struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary"`
}

func memberPrefix(kind string) string {
	switch kind {
	case "fn":
		return "M:"
	case "type":
		return "T:"
	default:
		return "F:"
	}
}

func renderXMLDoc(assembly string, decls []decl) (*bytes.Buffer, error) {
	doc := xmlDoc{Assembly: xmlAssembly{Name: assembly}}
	for _, d := range decls {
		if len(d.Doc) == 0 {
			continue
		}
		doc.Members = append(doc.Members, xmlMember{
			Name:    memberPrefix(d.Kind) + assembly + "." + d.Name,
			Summary: strings.Join(d.Doc, "\n"),
		})
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return &buf, nil
}
