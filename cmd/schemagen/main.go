package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"stagecraft.dev/internal/interchange"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "./schemas", "directory to write the JSON schemas")
	flag.Parse()

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}

	worldSchema := reflector.Reflect(new(interchange.WorldDoc))
	worldSchema.Title = "World Document"
	worldSchema.Description = "Validates saved project files (kind: world)"

	recSchema := reflector.Reflect(new(interchange.RecordingDoc))
	recSchema.Title = "Recording Document"
	recSchema.Description = "Validates synthesized demonstration files (kind: recording)"

	for name, schema := range map[string]*jsonschema.Schema{
		"world.schema.json":     worldSchema,
		"recording.schema.json": recSchema,
	} {
		if err := writeSchema(filepath.Join(outDir, name), schema); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Println("wrote", filepath.Join(outDir, name))
	}
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
