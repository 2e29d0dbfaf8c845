// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"bytes"
	"encoding/xml"
	"io"
)

// capAlert mirrors the CAP 1.2 <alert> element shape after namespace
// stripping, so "cap:alert" and "alert" decode identically.
type capAlert struct {
	Identifier string    `xml:"identifier"`
	Sender     string    `xml:"sender"`
	Sent       string    `xml:"sent"`
	Status     string    `xml:"status"`
	MsgType    string    `xml:"msgType"`
	Scope      string    `xml:"scope"`
	Code       []string  `xml:"code"`
	Note       string    `xml:"note"`
	References string    `xml:"references"`
	Incidents  string    `xml:"incidents"`
	Info       []capInfo `xml:"info"`
}

type capInfo struct {
	Language     string        `xml:"language"`
	Category     []string      `xml:"category"`
	Event        string        `xml:"event"`
	ResponseType []string      `xml:"responseType"`
	Urgency      string        `xml:"urgency"`
	Severity     string        `xml:"severity"`
	Certainty    string        `xml:"certainty"`
	Effective    string        `xml:"effective"`
	Onset        string        `xml:"onset"`
	Expires      string        `xml:"expires"`
	SenderName   string        `xml:"senderName"`
	Headline     string        `xml:"headline"`
	Description  string        `xml:"description"`
	Instruction  string        `xml:"instruction"`
	Web          string        `xml:"web"`
	Contact      string        `xml:"contact"`
	Parameter    []capParam    `xml:"parameter"`
	Area         []capArea     `xml:"area"`
}

type capParam struct {
	ValueName string `xml:"valueName"`
	Value     string `xml:"value"`
}

type capArea struct {
	AreaDesc string   `xml:"areaDesc"`
	Polygon  []string `xml:"polygon"`
	Circle   []string `xml:"circle"`
	Geocode  []string `xml:"geocode>value"`
	Altitude string   `xml:"altitude"`
	Ceiling  string   `xml:"ceiling"`
}

// rssChannel is the minimal shape of the RSS index feeds publish.
type rssChannel struct {
	XMLName xml.Name  `xml:"rss"`
	Items   []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
}

// decodeNamespaceStripped decodes XML from r into v using a decoder
// configured to strip namespace prefixes, so "cap:alert"/"alert" and
// "cap:info"/"info" are indistinguishable to the struct tags above.
func decodeNamespaceStripped(r io.Reader, v interface{}) error {
	inner := xml.NewDecoder(r)
	inner.Strict = false
	dec := xml.NewTokenDecoder(&namespaceStrippingReader{dec: inner})
	return dec.Decode(v)
}

// namespaceStrippingReader wraps an *xml.Decoder's token stream, clearing
// Name.Space on every start/end element and attribute so prefixed and
// unprefixed elements unmarshal identically.
type namespaceStrippingReader struct {
	dec *xml.Decoder
}

func (n *namespaceStrippingReader) Token() (xml.Token, error) {
	tok, err := n.dec.RawToken()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case xml.StartElement:
		t.Name.Space = ""
		for i := range t.Attr {
			t.Attr[i].Name.Space = ""
		}
		return t, nil
	case xml.EndElement:
		t.Name.Space = ""
		return t, nil
	case xml.CharData:
		// encoding/xml keeps char data verbatim, so leading and trailing
		// whitespace is trimmed here before it reaches the string fields.
		return xml.CharData(bytes.TrimSpace(t.Copy())), nil
	default:
		return tok, nil
	}
}
