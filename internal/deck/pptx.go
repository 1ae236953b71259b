package deck

import (
	"archive/zip"
	"cmp"
	"fmt"
	"maps"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

const (
	presentationPart     = "ppt/presentation.xml"
	presentationRelsPart = "ppt/_rels/presentation.xml.rels"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PPTXExtractor reads slide text out of PowerPoint (.pptx) packages. A .pptx
// file is a zip container of XML parts; elements are matched by local name
// so extraction holds for any producer's namespace prefixes.
type PPTXExtractor struct{}

// NewPPTXExtractor builds a new extractor instance.
func NewPPTXExtractor() *PPTXExtractor {
	return &PPTXExtractor{}
}

// ExtractTexts opens the package at docPath and returns the concatenated
// shape text of every slide that has any, in presentation order.
func (e *PPTXExtractor) ExtractTexts(docPath string) ([]string, error) {
	r, err := zip.OpenReader(docPath)
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	parts := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		parts[f.Name] = f
	}

	slideParts, err := slidePartsInOrder(parts)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(slideParts))
	for _, name := range slideParts {
		text, slideErr := slideText(parts[name])
		if slideErr != nil {
			return nil, fmt.Errorf("parse slide %s: %w", name, slideErr)
		}
		if text == "" {
			continue
		}

		texts = append(texts, text)
	}

	return texts, nil
}

// slidePartsInOrder resolves the slide part names in presentation order. The
// authoritative order is the sldIdLst of ppt/presentation.xml, resolved
// through the presentation's relationships. Packages without a presentation
// part fall back to numeric slide file order.
func slidePartsInOrder(parts map[string]*zip.File) ([]string, error) {
	pres, ok := parts[presentationPart]
	if !ok {
		return slidePartsByNumber(parts), nil
	}

	rels, ok := parts[presentationRelsPart]
	if !ok {
		return slidePartsByNumber(parts), nil
	}

	targets, err := relationshipTargets(rels)
	if err != nil {
		return nil, err
	}

	doc, err := parsePart(pres)
	if err != nil {
		return nil, err
	}

	var ordered []string
	entries := xmlquery.Find(doc, "//*[local-name()='sldIdLst']/*[local-name()='sldId']")
	for _, entry := range entries {
		relID := relationshipID(entry)
		if relID == "" {
			return nil, fmt.Errorf("slide list entry without relationship id")
		}

		target, ok := targets[relID]
		if !ok {
			return nil, fmt.Errorf("unresolved slide relationship %q", relID)
		}

		partName := resolvePartPath(presentationPart, target)
		if _, ok := parts[partName]; !ok {
			return nil, fmt.Errorf("missing slide part %q", partName)
		}

		ordered = append(ordered, partName)
	}

	return ordered, nil
}

func slidePartsByNumber(parts map[string]*zip.File) []string {
	numbers := make(map[string]int)
	for name := range parts {
		m := slidePartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		numbers[name] = number
	}

	return slices.SortedFunc(
		maps.Keys(numbers),
		func(a, b string) int { return cmp.Compare(numbers[a], numbers[b]) },
	)
}

func relationshipTargets(f *zip.File) (map[string]string, error) {
	doc, err := parsePart(f)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]string)
	for _, rel := range xmlquery.Find(doc, "//*[local-name()='Relationship']") {
		id := rel.SelectAttr("Id")
		target := rel.SelectAttr("Target")
		if id == "" || target == "" {
			continue
		}

		targets[id] = target
	}

	return targets, nil
}

// relationshipID returns the value of the namespaced r:id attribute of a
// sldId element. The element also carries a plain id attribute (the slide
// id), so only namespaced id attributes qualify.
func relationshipID(entry *xmlquery.Node) string {
	for _, attr := range entry.Attr {
		if attr.Name.Local == "id" && attr.Name.Space != "" {
			return attr.Value
		}
	}
	return ""
}

// resolvePartPath resolves a relationship target against the source part's
// directory. Targets are usually relative ("slides/slide1.xml"), absolute
// targets start with a slash.
func resolvePartPath(sourcePart string, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(sourcePart), target)
}

// slideText concatenates the text of every shape on a slide in document
// order, including shapes nested in groups. Shape texts are joined by a
// single space and the result is whitespace-trimmed.
func slideText(f *zip.File) (string, error) {
	doc, err := parsePart(f)
	if err != nil {
		return "", err
	}

	var shapeTexts []string
	for _, shape := range descendantElements(doc, "sp") {
		text := shapeText(shape)
		if text == "" {
			continue
		}

		shapeTexts = append(shapeTexts, text)
	}

	return strings.TrimSpace(strings.Join(shapeTexts, " ")), nil
}

// shapeText joins the paragraphs of a shape's text body with newlines; the
// text runs of a paragraph are concatenated as-is.
func shapeText(shape *xmlquery.Node) string {
	body := xmlquery.FindOne(shape, "*[local-name()='txBody']")
	if body == nil {
		return ""
	}

	var paragraphs []string
	for _, paragraph := range xmlquery.Find(body, "*[local-name()='p']") {
		var runs strings.Builder
		for _, run := range descendantElements(paragraph, "t") {
			runs.WriteString(run.InnerText())
		}

		paragraphs = append(paragraphs, runs.String())
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n"))
}

// descendantElements returns the elements with the given local name in the
// subtree under n, in document order. The descendant XPath axis reports
// matches level by level, which would push shapes nested in groups behind
// later top-level ones.
func descendantElements(n *xmlquery.Node, local string) []*xmlquery.Node {
	var found []*xmlquery.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == local {
			found = append(found, child)
		}

		found = append(found, descendantElements(child, local)...)
	}

	return found
}

func parsePart(f *zip.File) (*xmlquery.Node, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", f.Name, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	doc, err := xmlquery.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse part %s: %w", f.Name, err)
	}

	return doc, nil
}
