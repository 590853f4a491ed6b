package testreport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nemanjakrstic/snitch/internal/types"
)

// maxDocumentSize bounds a single report document.
const maxDocumentSize = 16 << 20

// wireDocument is one JUnit-JSON document as published by the CI artifact store.
type wireDocument struct {
	Suites []json.RawMessage `json:"suites"`
}

type wireSuite struct {
	Name      string            `json:"name"`
	Failures  flexInt           `json:"failures"`
	Errors    flexInt           `json:"errors"`
	TestCases []json.RawMessage `json:"testCases"`
}

type wireCase struct {
	Name      string       `json:"name"`
	ClassName string       `json:"classname"`
	File      string       `json:"file"`
	Line      flexInt      `json:"line"`
	Type      string       `json:"type"`
	Messages  wireMessages `json:"messages"`
}

type wireMessages struct {
	Values []struct {
		Value string `json:"value"`
	} `json:"values"`
}

// flexInt accepts both JSON numbers and numeric strings; anything else is zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Tolerate garbage rather than drop the enclosing record.
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// Decode reads a JUnit-JSON report document (or an array of them) and
// returns its suites. Suites and cases that cannot be decoded are skipped;
// only input that is not JSON at all is an error.
func Decode(r io.Reader) ([]types.TestSuiteReport, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) ([]types.TestSuiteReport, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var docs []wireDocument
	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		for _, r := range raw {
			var doc wireDocument
			if err := json.Unmarshal(r, &doc); err != nil {
				continue
			}
			docs = append(docs, doc)
		}
	} else {
		var doc wireDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		docs = append(docs, doc)
	}

	var suites []types.TestSuiteReport
	for _, doc := range docs {
		for _, rawSuite := range doc.Suites {
			suite, ok := decodeSuite(rawSuite)
			if !ok {
				continue
			}
			suites = append(suites, suite)
		}
	}
	return suites, nil
}

func decodeSuite(raw json.RawMessage) (types.TestSuiteReport, bool) {
	var ws wireSuite
	if err := json.Unmarshal(raw, &ws); err != nil {
		return types.TestSuiteReport{}, false
	}
	suite := types.TestSuiteReport{
		Name:     ws.Name,
		Failures: int(ws.Failures),
		Errors:   int(ws.Errors),
	}
	for _, rawCase := range ws.TestCases {
		var wc wireCase
		if err := json.Unmarshal(rawCase, &wc); err != nil {
			continue
		}
		suite.TestCases = append(suite.TestCases, convertCase(wc))
	}
	return suite, true
}

func convertCase(wc wireCase) types.TestCase {
	tc := types.TestCase{
		Name:      wc.Name,
		ClassName: wc.ClassName,
		File:      wc.File,
		Line:      int(wc.Line),
		Type:      types.CaseType(strings.ToLower(wc.Type)),
	}
	for _, m := range wc.Messages.Values {
		tc.Messages = append(tc.Messages, m.Value)
	}
	return tc
}
