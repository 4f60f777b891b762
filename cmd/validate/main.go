package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/gnemet/reactgrid"
)

func main() {
	schemaPath := flag.String("schema", "", "validate against this JSON schema instead of the built-in grid schema")
	flag.Usage = func() {
		fmt.Println("Usage: grid-validator [-schema schema.json] <definition1> [definition2] ...")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	var schemaLoader gojsonschema.JSONLoader
	if *schemaPath != "" {
		abs, err := filepath.Abs(*schemaPath)
		if err != nil {
			log.Fatalf("Invalid schema path: %v", err)
		}
		schemaLoader = gojsonschema.NewReferenceLoader("file://" + abs)
	}

	allValid := true
	for _, path := range flag.Args() {
		if err := validate(schemaLoader, path); err != nil {
			fmt.Printf("❌ %s is invalid!\n   - %v\n", filepath.Base(path), err)
			allValid = false
			continue
		}
		fmt.Printf("✅ %s is valid.\n", filepath.Base(path))
	}

	if !allValid {
		os.Exit(1)
	}
}

// validate checks one definition file, with the built-in schema when
// schemaLoader is nil.
func validate(schemaLoader gojsonschema.JSONLoader, path string) error {
	if schemaLoader == nil {
		def, err := reactgrid.LoadDefinition(path)
		if err != nil {
			return err
		}
		// catch bad templates and filter ops, which the schema cannot see
		_, err = def.Config([]reactgrid.Record{})
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if !result.Valid() {
		return fmt.Errorf("%d schema errors, first: %s", len(result.Errors()), result.Errors()[0])
	}
	return nil
}
