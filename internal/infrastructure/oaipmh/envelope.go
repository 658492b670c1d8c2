package oaipmh

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"

	"OAIHealthCheck/internal/domain"
)

type envelope struct {
	XMLName     xml.Name     `xml:"OAI-PMH"`
	Errors      []oaiError   `xml:"error"`
	Identify    *identifyXML `xml:"Identify"`
	ListRecords *listRecords `xml:"ListRecords"`
}

type oaiError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

func (e oaiError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return "oai-pmh error " + e.Code
	}
	return fmt.Sprintf("oai-pmh error %s: %s", e.Code, msg)
}

type identifyXML struct {
	RepositoryName  string   `xml:"repositoryName"`
	BaseURL         string   `xml:"baseURL"`
	ProtocolVersion string   `xml:"protocolVersion"`
	AdminEmails     []string `xml:"adminEmail"`
	Identifiers     []string `xml:"description>oai-identifier>repositoryIdentifier"`
}

func (i identifyXML) toDomain() domain.RepositoryIdentity {
	id := domain.RepositoryIdentity{
		Name:            strings.TrimSpace(i.RepositoryName),
		BaseURL:         strings.TrimSpace(i.BaseURL),
		ProtocolVersion: strings.TrimSpace(i.ProtocolVersion),
	}
	for _, email := range i.AdminEmails {
		if email = strings.TrimSpace(email); email != "" {
			id.AdminEmail = email
			break
		}
	}
	for _, ident := range i.Identifiers {
		if ident = strings.TrimSpace(ident); ident != "" {
			id.RepositoryIdentifier = domain.Some(ident)
			break
		}
	}
	return id
}

type listRecords struct {
	Records         []recordXML     `xml:"record"`
	ResumptionToken resumptionToken `xml:"resumptionToken"`
}

type resumptionToken struct {
	Value            string `xml:",chardata"`
	CompleteListSize string `xml:"completeListSize,attr"`
	Cursor           string `xml:"cursor,attr"`
}

type recordXML struct {
	Header struct {
		Status     string `xml:"status,attr"`
		Identifier string `xml:"identifier"`
		Datestamp  string `xml:"datestamp"`
	} `xml:"header"`
	Metadata struct {
		DC struct {
			Elements []dcElement `xml:",any"`
		} `xml:"dc"`
	} `xml:"metadata"`
}

type dcElement struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func (r recordXML) deleted() bool {
	return strings.EqualFold(r.Header.Status, "deleted")
}

// toDomain groups repeated elements by local name in first-seen order.
// Empty elements become absent values.
func (r recordXML) toDomain() domain.RawRecord {
	rec := domain.RawRecord{
		Identifier: strings.TrimSpace(r.Header.Identifier),
		Datestamp:  strings.TrimSpace(r.Header.Datestamp),
	}

	index := map[string]int{}
	for _, el := range r.Metadata.DC.Elements {
		name := el.XMLName.Local
		value := domain.None()
		if text := strings.TrimSpace(el.Value); text != "" {
			value = domain.Some(text)
		}

		i, ok := index[name]
		if !ok {
			i = len(rec.Metadata)
			index[name] = i
			rec.Metadata = append(rec.Metadata, domain.Field{Name: name})
		}
		rec.Metadata[i].Values = append(rec.Metadata[i].Values, value)
	}
	return rec
}

func decodeEnvelope(body []byte) (*envelope, error) {
	d := xml.NewDecoder(bytes.NewReader(body))
	d.CharsetReader = charset.NewReaderLabel

	var env envelope
	if err := d.Decode(&env); err != nil {
		return nil, fmt.Errorf("parse oai-pmh response: %w", err)
	}
	return &env, nil
}
