package reader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/tsawler/pdfgraph/core"
)

// Info returns the trailer's document information dictionary with text
// strings decoded. Only string and name values are kept. A document without
// /Info yields (nil, nil).
func (d *Document) Info() (map[string]string, error) {
	obj := d.Trailer().Get("Info")
	if obj == nil {
		return nil, nil // Info is optional
	}
	resolved, err := d.resolver.ResolveChain(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Info: %w", err)
	}
	if core.IsNull(resolved) {
		return nil, nil
	}
	dict, err := core.AsDict(resolved)
	if err != nil {
		return nil, fmt.Errorf("/Info: %w", err)
	}

	info := make(map[string]string, len(dict))
	for _, key := range dict.Keys() {
		value, err := d.resolver.ResolveChain(dict[key])
		if err != nil {
			d.logger.Debug("skipping unresolvable info entry", "key", key, "error", err)
			continue
		}
		switch v := value.(type) {
		case core.String:
			info[key] = v.Text()
		case core.Name:
			info[key] = string(v)
		}
	}
	return info, nil
}

// Metadata is the subset of the catalog's XMP packet most callers want.
type Metadata struct {
	Title       string
	Creators    []string
	Description string
	CreatorTool string
	Producer    string
	CreateDate  string
	ModifyDate  string
	// Raw is the decoded XMP packet.
	Raw []byte
}

var (
	xmpTitle       = xpath.MustCompile(`//*[local-name()='title']//*[local-name()='li']`)
	xmpCreators    = xpath.MustCompile(`//*[local-name()='creator']//*[local-name()='li']`)
	xmpDescription = xpath.MustCompile(`//*[local-name()='description']//*[local-name()='li']`)
)

// simple XMP properties, written either as elements or as attributes of
// rdf:Description
var xmpSimple = map[string]struct{ elem, attr *xpath.Expr }{}

func init() {
	for _, name := range []string{"CreatorTool", "Producer", "CreateDate", "ModifyDate"} {
		xmpSimple[name] = struct{ elem, attr *xpath.Expr }{
			elem: xpath.MustCompile(`//*[local-name()='` + name + `']`),
			attr: xpath.MustCompile(`//*[@*[local-name()='` + name + `']]`),
		}
	}
}

// Metadata decodes and parses the catalog's /Metadata stream. A document
// without one yields (nil, nil).
func (d *Document) Metadata() (*Metadata, error) {
	if d.catalog == nil {
		return nil, nil
	}
	stream, err := d.catalog.Metadata()
	if err != nil || stream == nil {
		return nil, err
	}
	data, err := d.store.DecodeStream(stream)
	if err != nil {
		return nil, fmt.Errorf("decoding /Metadata: %w", err)
	}
	return parseXMP(data)
}

func parseXMP(data []byte) (*Metadata, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XMP: %w", err)
	}

	md := &Metadata{Raw: data}
	md.Title = xmpText(root, xmpTitle)
	md.Description = xmpText(root, xmpDescription)
	md.CreatorTool = xmpProperty(root, "CreatorTool")
	md.Producer = xmpProperty(root, "Producer")
	md.CreateDate = xmpProperty(root, "CreateDate")
	md.ModifyDate = xmpProperty(root, "ModifyDate")
	for _, n := range xmlquery.QuerySelectorAll(root, xmpCreators) {
		if s := strings.TrimSpace(n.InnerText()); s != "" {
			md.Creators = append(md.Creators, s)
		}
	}
	return md, nil
}

// xmpText returns the text of the first element matching expr.
func xmpText(root *xmlquery.Node, expr *xpath.Expr) string {
	if n := xmlquery.QuerySelector(root, expr); n != nil {
		return strings.TrimSpace(n.InnerText())
	}
	return ""
}

func xmpProperty(root *xmlquery.Node, name string) string {
	q := xmpSimple[name]
	if s := xmpText(root, q.elem); s != "" {
		return s
	}
	n := xmlquery.QuerySelector(root, q.attr)
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}
