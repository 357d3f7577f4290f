package xslt

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ErrNoRootElement is returned for empty or element-free input.
var ErrNoRootElement = errors.New("root element is missing")

// Document is a parsed, well-formed XML input document.
type Document struct {
	tree *etree.Document
	utf8 []byte
}

// ParseDocument checks data for well-formedness, decodes any declared
// encoding and builds the DOM. The document is re-serialized as UTF-8,
// which is the form handed to the transform.
func ParseDocument(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoRootElement
	}
	entities, err := checkWellFormed(data)
	if err != nil {
		return nil, err
	}

	tree := etree.NewDocument()
	tree.ReadSettings.CharsetReader = charset.NewReaderLabel
	tree.ReadSettings.PreserveCData = true
	tree.ReadSettings.Entity = entities
	// Keep CR, LF and TAB as character references so the transform sees
	// them as written and not after a second round of normalization.
	tree.WriteSettings.CanonicalText = true
	tree.WriteSettings.CanonicalAttrVal = true
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if tree.Root() == nil {
		return nil, ErrNoRootElement
	}

	normalizeDeclaration(tree)

	out, err := tree.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}
	return &Document{tree: tree, utf8: out}, nil
}

// Root returns the tag of the document element, including any prefix.
func (d *Document) Root() string {
	return d.tree.Root().FullTag()
}

// Bytes returns the UTF-8 serialization of the document.
func (d *Document) Bytes() []byte {
	return d.utf8
}

// checkWellFormed runs a strict token scan and returns the general
// entities declared in the internal DTD subset. etree alone accepts
// trailing content after the document element and several top-level
// elements.
func checkWellFormed(data []byte) (map[string]string, error) {
	entities := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = entities

	depth := 0
	roots := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.Directive:
			if depth == 0 {
				internalEntities(t, entities)
			}
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					line, _ := dec.InputPos()
					return nil, fmt.Errorf("line %d: multiple root elements", line)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("line %d: data at the root level is invalid", line)
			}
		}
	}

	if roots == 0 {
		return nil, ErrNoRootElement
	}
	return entities, nil
}

// entityDecl matches internal general entities. Parameter entities and
// external (SYSTEM/PUBLIC) entities do not match and stay undeclared.
var entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%"'<>]+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// internalEntities adds the entity declarations of a DOCTYPE directive
// to into. The first declaration of a name wins.
func internalEntities(d xml.Directive, into map[string]string) {
	if !bytes.HasPrefix(d, []byte("DOCTYPE")) {
		return
	}
	for _, m := range entityDecl.FindAllSubmatch(d, -1) {
		name := string(m[1])
		if _, seen := into[name]; seen {
			continue
		}
		value := m[2]
		if value == nil {
			value = m[3]
		}
		into[name] = string(value)
	}
}

// normalizeDeclaration rewrites the XML declaration to UTF-8 since the
// content has already been decoded.
func normalizeDeclaration(tree *etree.Document) {
	for _, tok := range tree.Child {
		pi, ok := tok.(*etree.ProcInst)
		if !ok || pi.Target != "xml" {
			continue
		}
		inst := `version="1.0" encoding="UTF-8"`
		if standalone := declAttr(pi.Inst, "standalone"); standalone != "" {
			inst += ` standalone="` + standalone + `"`
		}
		pi.Inst = inst
		return
	}
}

// declAttr extracts a pseudo-attribute value from an XML declaration.
func declAttr(inst, name string) string {
	i := strings.Index(inst, name)
	if i < 0 {
		return ""
	}
	rest := strings.TrimLeft(inst[i+len(name):], " \t")
	if !strings.HasPrefix(rest, "=") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t")
	if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
		return ""
	}
	quote := rest[0]
	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return ""
	}
	return rest[1 : 1+end]
}
