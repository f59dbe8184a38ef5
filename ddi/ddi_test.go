package ddi_test

import (
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/ddi"
)

func parseXML(t *testing.T, raw string) *xmlquery.Node {
	t.Helper()
	doc, err := xmlquery.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	return doc
}

func TestFindCodeBook(t *testing.T) {
	doc := parseXML(t, `
		<OAI-PMH xmlns:ddi="ddi:codebook:2_5">
			<GetRecord><record><metadata>
				<ddi:codeBook><ddi:stdyDscr/></ddi:codeBook>
			</metadata></record></GetRecord>
		</OAI-PMH>`)

	codeBook := ddi.FindCodeBook(doc)
	require.NotNil(t, codeBook)
	assert.Equal(t, "codeBook", codeBook.Data)
}

func TestFindCodeBook_Missing(t *testing.T) {
	doc := parseXML(t, `<root><child/></root>`)
	assert.Nil(t, ddi.FindCodeBook(doc))
}

func TestFindCodeBook_OtherNamespaceIgnored(t *testing.T) {
	doc := parseXML(t, `<codeBook xmlns="urn:other"><stdyDscr/></codeBook>`)
	assert.Nil(t, ddi.FindCodeBook(doc))
}

func TestExtractKeywords(t *testing.T) {
	doc := parseXML(t, `
		<ddi:codeBook xmlns:ddi="ddi:codebook:2_5">
			<ddi:stdyDscr><ddi:stdyInfo><ddi:subject>
				<ddi:keyword vocab="ELSST" vocabURI="https://elsst.cessda.eu/id/1">HOUSING</ddi:keyword>
				<ddi:keyword vocab="">INCOME</ddi:keyword>
				<ddi:keyword>  EMPLOYMENT  </ddi:keyword>
			</ddi:subject></ddi:stdyInfo></ddi:stdyDscr>
		</ddi:codeBook>`)

	keywords := ddi.ExtractKeywords(doc)
	require.Len(t, keywords, 3)

	require.NotNil(t, keywords[0].Vocab)
	assert.Equal(t, "ELSST", *keywords[0].Vocab)
	require.NotNil(t, keywords[0].VocabURI)
	assert.Equal(t, "https://elsst.cessda.eu/id/1", *keywords[0].VocabURI)
	assert.Equal(t, "HOUSING", keywords[0].Text)

	// Empty attribute is present, not absent
	require.NotNil(t, keywords[1].Vocab)
	assert.Empty(t, *keywords[1].Vocab)
	assert.Nil(t, keywords[1].VocabURI)
	assert.Equal(t, "INCOME", keywords[1].Text)

	// Text is trimmed, attributes absent
	assert.Nil(t, keywords[2].Vocab)
	assert.Nil(t, keywords[2].VocabURI)
	assert.Equal(t, "EMPLOYMENT", keywords[2].Text)
}

func TestExtractKeywords_SkipsEmptyText(t *testing.T) {
	doc := parseXML(t, `
		<ddi:codeBook xmlns:ddi="ddi:codebook:2_5">
			<ddi:stdyDscr><ddi:stdyInfo><ddi:subject>
				<ddi:keyword>   </ddi:keyword>
				<ddi:keyword></ddi:keyword>
				<ddi:keyword>POVERTY</ddi:keyword>
			</ddi:subject></ddi:stdyInfo></ddi:stdyDscr>
		</ddi:codeBook>`)

	keywords := ddi.ExtractKeywords(doc)
	require.Len(t, keywords, 1)
	assert.Equal(t, "POVERTY", keywords[0].Text)
}

func TestExtractKeywords_NoKeywords(t *testing.T) {
	doc := parseXML(t, `<ddi:codeBook xmlns:ddi="ddi:codebook:2_5"><ddi:stdyDscr/></ddi:codeBook>`)
	assert.Empty(t, ddi.ExtractKeywords(doc))
}

func TestExtractKeywords_WrongPathIgnored(t *testing.T) {
	// Keywords outside the subject/description path must not be picked up.
	doc := parseXML(t, `
		<ddi:codeBook xmlns:ddi="ddi:codebook:2_5">
			<ddi:docDscr><ddi:keyword>MISPLACED</ddi:keyword></ddi:docDscr>
		</ddi:codeBook>`)
	assert.Empty(t, ddi.ExtractKeywords(doc))
}

func TestExtractKeywords_DocumentOrder(t *testing.T) {
	doc := parseXML(t, `
		<ddi:codeBook xmlns:ddi="ddi:codebook:2_5">
			<ddi:stdyDscr><ddi:stdyInfo><ddi:subject>
				<ddi:keyword>FIRST</ddi:keyword>
				<ddi:keyword>SECOND</ddi:keyword>
				<ddi:keyword>THIRD</ddi:keyword>
			</ddi:subject></ddi:stdyInfo></ddi:stdyDscr>
		</ddi:codeBook>`)

	keywords := ddi.ExtractKeywords(doc)
	require.Len(t, keywords, 3)
	assert.Equal(t, "FIRST", keywords[0].Text)
	assert.Equal(t, "SECOND", keywords[1].Text)
	assert.Equal(t, "THIRD", keywords[2].Text)
}
