// Package ddi locates and extracts subject keywords from DDI 2.5 codebook
// metadata. All structural queries are namespace-bound so they match DDI
// elements regardless of the prefix the serializer chose.
package ddi

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Namespace is the DDI 2.5 codebook XML namespace URI.
const Namespace = "ddi:codebook:2_5"

var (
	codeBookPath = mustCompileNS("//ddi:codeBook")
	keywordPath  = mustCompileNS("//ddi:codeBook/ddi:stdyDscr/ddi:stdyInfo/ddi:subject/ddi:keyword")
)

func mustCompileNS(expr string) *xpath.Expr {
	compiled, err := xpath.CompileWithNS(expr, map[string]string{"ddi": Namespace})
	if err != nil {
		panic("invalid DDI XPath: " + err.Error())
	}
	return compiled
}

// Keyword is one subject-keyword occurrence from the codeBook. Vocab and
// VocabURI are nil when the attribute is absent on the element, keeping
// "absent" distinguishable from "empty".
type Keyword struct {
	// Text is the trimmed, non-empty keyword text.
	Text string

	// Vocab is the declared vocabulary name, if any.
	Vocab *string

	// VocabURI is the declared vocabulary URI, if any.
	VocabURI *string
}

// FindCodeBook locates the codeBook element anywhere in doc.
// It returns nil when the document carries no codeBook.
func FindCodeBook(doc *xmlquery.Node) *xmlquery.Node {
	return xmlquery.QuerySelector(doc, codeBookPath)
}

// ExtractKeywords runs the fixed subject/keyword query over a codeBook
// document and returns the candidates in document order. Elements whose
// trimmed text is empty carry no matchable label and are skipped entirely;
// an empty result is a legitimate outcome, not an error.
func ExtractKeywords(doc *xmlquery.Node) []Keyword {
	nodes := xmlquery.QuerySelectorAll(doc, keywordPath)

	keywords := make([]Keyword, 0, len(nodes))
	for _, node := range nodes {
		if node.Type != xmlquery.ElementNode {
			continue
		}

		text := strings.TrimSpace(node.InnerText())
		if text == "" {
			continue
		}

		keywords = append(keywords, Keyword{
			Text:     text,
			Vocab:    attr(node, "vocab"),
			VocabURI: attr(node, "vocabURI"),
		})
	}

	return keywords
}

// attr returns the value of the named attribute, or nil when absent.
func attr(node *xmlquery.Node, name string) *string {
	for i := range node.Attr {
		if node.Attr[i].Name.Local == name {
			value := node.Attr[i].Value
			return &value
		}
	}
	return nil
}
