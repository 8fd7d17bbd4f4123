package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/beetlebugorg/geoxml/pkg/geoxml"
)

func describe(err error) string {
	var fe *geoxml.FetchError
	var me *geoxml.MarkupError
	switch {
	case errors.As(err, &fe) && fe.Status != 0:
		return fmt.Sprintf("server answered HTTP %d", fe.Status)
	case errors.As(err, &fe):
		return fmt.Sprintf("could not fetch: %v", fe.Err)
	case errors.As(err, &me):
		return fmt.Sprintf("not well-formed XML: %v", me.Err)
	default:
		return err.Error()
	}
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	opts := geoxml.DefaultOptions()
	opts.Logger = logger

	// Called for every document that fails, including style files
	// referenced from a document that loaded fine
	opts.FailureHook = func(doc *geoxml.Document) {
		log.Printf("Failed %s: %s", doc.URL, describe(doc.Err))
	}

	parser := geoxml.NewParser(opts)
	defer parser.Close()

	// A failed document does not fail the batch
	set, err := parser.Parse(context.Background(),
		"https://developers.google.com/kml/documentation/KML_Samples.kml",
		"https://example.com/does-not-exist.kml")
	if err != nil {
		log.Fatal(err)
	}

	for _, doc := range set.Documents() {
		if doc.Failed {
			fmt.Printf("%s: failed\n", doc.URL)
			continue
		}
		fmt.Printf("%s: %d placemarks\n", doc.URL, len(doc.Placemarks))
	}

	if errs := set.Errors(); len(errs) > 0 {
		fmt.Printf("%d documents failed\n", len(errs))
	}

	// Parsing without sources is an error
	if _, err := parser.Parse(context.Background()); errors.Is(err, geoxml.ErrNoSources) {
		fmt.Println("Expected error:", err)
	}
}
