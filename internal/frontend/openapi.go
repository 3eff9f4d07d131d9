package frontend

import (
	"fmt"

	"github.com/typeforge/typeforge/internal/location"
	"github.com/typeforge/typeforge/internal/rawnode"
)

var openAPIMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// ParseOpenAPI parses an OpenAPI 3.x document. Every components.schemas
// entry roots a model under its key; inline operation payload schemas root
// additional models carrying the operation identifier as a name candidate.
func ParseOpenAPI(docID string, data []byte) (*rawnode.Document, error) {
	val, err := decodeStructured(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", docID, err)
	}
	top, ok := val.(*Obj)
	if !ok {
		return nil, fmt.Errorf("parse %s: top-level value is not a document object", docID)
	}

	doc := &rawnode.Document{ID: docID, Anchors: map[string]location.Location{}}
	root := &rawnode.Node{Loc: location.Root(docID)}
	doc.Root = root

	if comps := top.GetObj("components"); comps != nil {
		if schemas := comps.GetObj("schemas"); schemas != nil {
			base := location.Root(docID).Push("components").Push("schemas")
			for _, name := range schemas.Keys() {
				so := schemas.GetObj(name)
				if so == nil {
					return nil, fmt.Errorf("parse %s: components.schemas.%s is not a schema", docID, name)
				}
				child, err := schemaNode(so, base.Push(name), doc)
				if err != nil {
					return nil, fmt.Errorf("parse %s: %w", docID, err)
				}
				root.Defs = append(root.Defs, rawnode.Prop{Name: name, Schema: child})
				doc.Roots = append(doc.Roots, rawnode.Root{Loc: child.Loc, NameHint: name})
			}
		}
	}

	// Swagger 2.0 compatibility: definitions at the top level.
	if defs := top.GetObj("definitions"); defs != nil {
		base := location.Root(docID).Push("definitions")
		for _, name := range defs.Keys() {
			so := defs.GetObj(name)
			if so == nil {
				continue
			}
			child, err := schemaNode(so, base.Push(name), doc)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", docID, err)
			}
			root.Defs = append(root.Defs, rawnode.Prop{Name: name, Schema: child})
			doc.Roots = append(doc.Roots, rawnode.Root{Loc: child.Loc, NameHint: name})
		}
	}

	if paths := top.GetObj("paths"); paths != nil {
		base := location.Root(docID).Push("paths")
		for _, p := range paths.Keys() {
			item := paths.GetObj(p)
			if item == nil {
				continue
			}
			pathLoc := base.Push(p)
			for _, method := range openAPIMethods {
				op := item.GetObj(method)
				if op == nil {
					continue
				}
				if err := collectOperation(doc, op, pathLoc.Push(method)); err != nil {
					return nil, fmt.Errorf("parse %s: %w", docID, err)
				}
			}
		}
	}

	root.Anchors = doc.Anchors
	return doc, nil
}

// collectOperation roots inline request/response schemas of one operation.
// Pure $ref payloads are skipped: the referenced component is already a
// root of its own.
func collectOperation(doc *rawnode.Document, op *Obj, loc location.Location) error {
	opID, _ := op.GetString("operationId")

	if rb := op.GetObj("requestBody"); rb != nil {
		if err := collectContent(doc, rb.GetObj("content"), loc.Push("requestBody"), opID, "Request"); err != nil {
			return err
		}
	}
	if resp := op.GetObj("responses"); resp != nil {
		respLoc := loc.Push("responses")
		for _, status := range resp.Keys() {
			r := resp.GetObj(status)
			if r == nil {
				continue
			}
			if err := collectContent(doc, r.GetObj("content"), respLoc.Push(status), opID, "Response"); err != nil {
				return err
			}
		}
	}
	return nil
}

func collectContent(doc *rawnode.Document, content *Obj, loc location.Location, opID, role string) error {
	if content == nil {
		return nil
	}
	contentLoc := loc.Push("content")
	for _, mediaType := range content.Keys() {
		mt := content.GetObj(mediaType)
		if mt == nil {
			continue
		}
		so := mt.GetObj("schema")
		if so == nil {
			continue
		}
		if _, isRef := so.GetString("$ref"); isRef && so.Len() == 1 {
			continue
		}
		child, err := schemaNode(so, contentLoc.Push(mediaType).Push("schema"), doc)
		if err != nil {
			return err
		}
		if opID != "" {
			child.OperationID = opID + role
		}
		doc.Root.Defs = append(doc.Root.Defs, rawnode.Prop{Name: child.OperationID, Schema: child})
		doc.Roots = append(doc.Roots, rawnode.Root{
			Loc:         child.Loc,
			NameHint:    child.Title,
			OperationID: child.OperationID,
		})
	}
	return nil
}
