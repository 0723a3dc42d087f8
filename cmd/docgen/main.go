// Command docgen regenerates the API reference page from the @Title,
// @Route, @Description and @Response annotations on the API handlers.
//
// Run it from the repository root:
//
//	go run ./cmd/docgen
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

type Endpoint struct {
	Title       string
	Route       string
	Description string
	Response    string
}

var (
	reTitle = regexp.MustCompile(`// @Title: (.*)`)
	reRoute = regexp.MustCompile(`// @Route: (.*)`)
	reDesc  = regexp.MustCompile(`// @Description: (.*)`)
	reResp  = regexp.MustCompile(`// @Response: (.*)`)
)

func main() {
	apiDir := flag.String("api", "internal/api", "directory holding the annotated handlers")
	out := flag.String("out", "internal/docs/content/api.adoc", "output AsciiDoc file")
	flag.Parse()

	endpoints, err := scanDir(*apiDir)
	if err != nil {
		log.Fatalf("docgen: %v", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("docgen: %v", err)
	}
	writeAsciiDoc(f, endpoints)
	if err := f.Close(); err != nil {
		log.Fatalf("docgen: %v", err)
	}
	fmt.Printf("Generated %s (%d endpoints)\n", *out, len(endpoints))
}

// scanDir collects annotated endpoints from the non-test Go files in dir,
// in file name order.
func scanDir(dir string) ([]Endpoint, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	var endpoints []Endpoint
	for _, file := range files {
		name := file.Name()
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}

		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		eps, err := scan(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		endpoints = append(endpoints, eps...)
	}
	return endpoints, nil
}

// scan reads one annotation block per endpoint; @Response closes a block.
func scan(r io.Reader) ([]Endpoint, error) {
	var (
		endpoints []Endpoint
		current   Endpoint
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if match := reTitle.FindStringSubmatch(line); len(match) > 1 {
			current.Title = strings.TrimSpace(match[1])
		}
		if match := reRoute.FindStringSubmatch(line); len(match) > 1 {
			current.Route = strings.TrimSpace(match[1])
		}
		if match := reDesc.FindStringSubmatch(line); len(match) > 1 {
			current.Description = strings.TrimSpace(match[1])
		}
		if match := reResp.FindStringSubmatch(line); len(match) > 1 {
			current.Response = strings.TrimSpace(match[1])
			if current.Title != "" && current.Route != "" {
				endpoints = append(endpoints, current)
			}
			current = Endpoint{}
		}
	}
	return endpoints, scanner.Err()
}

func writeAsciiDoc(w io.Writer, endpoints []Endpoint) {
	fmt.Fprintln(w, "= API Reference")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generated from handler annotations by `docgen`. Do not edit.")
	for _, ep := range endpoints {
		fmt.Fprintf(w, "\n== %s\n\n`%s`\n\n%s\n\nResponse: `%s`\n", ep.Title, ep.Route, ep.Description, ep.Response)
	}
}
