package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestScan(t *testing.T) {
	src := `package api

// @Title: Get Health
// @Route: GET /api/health
// @Description: Returns server health status
// @Response: {"status": "ok"}
func (s *Service) HandleHealth() {}

// @Route: GET /api/untitled
// @Response: ignored
func (s *Service) HandleUntitled() {}

// @Title: Add Property
// @Route: POST /api/properties/add
// @Description: Registers a property
// @Response: {"hash": "0x..."}
func (s *Service) HandleAdd() {}
`
	endpoints, err := scan(strings.NewReader(src))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d: %+v", len(endpoints), endpoints)
	}
	if endpoints[1].Route != "POST /api/properties/add" {
		t.Errorf("unexpected route %q", endpoints[1].Route)
	}

	var buf bytes.Buffer
	writeAsciiDoc(&buf, endpoints)
	if !strings.Contains(buf.String(), "== Add Property\n\n`POST /api/properties/add`") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestGeneratedReferenceIsCurrent(t *testing.T) {
	endpoints, err := scanDir("../../internal/api")
	if err != nil {
		t.Fatalf("scanDir error: %v", err)
	}
	var buf bytes.Buffer
	writeAsciiDoc(&buf, endpoints)

	want, err := os.ReadFile("../../internal/docs/content/api.adoc")
	if err != nil {
		t.Fatalf("read api.adoc: %v", err)
	}
	if buf.String() != string(want) {
		t.Errorf("api.adoc is stale, run go run ./cmd/docgen")
	}
}
