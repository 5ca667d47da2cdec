package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sabledisk/volumectl/internal/volume"
)

var createFile string

var createCmd = &cobra.Command{
	Use:     "create",
	GroupID: "volumes",
	Short:   "Create a volume from a construction-request document",
	Long: `Create idempotently inserts a volume and raises reference counts for the
read-only targets its construction request walks to.

The construction request is read from --file, or from stdin if --file is
omitted. A file ending in .yaml or .yml is converted to the JSON wire form
before storing. Each run stores the request under a freshly generated volume
id, so running create twice creates two volumes.`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createFile, "file", "f", "", "path to a construction-request JSON or YAML document (default: stdin)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if createFile != "" {
		f, err := os.Open(createFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", createFile, err)
		}
		defer f.Close()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read construction request: %w", err)
	}
	data, err := toWireForm(raw, createFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, _, err := loadStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.VolumeCreate(ctx, volume.Volume{ID: uuid.New(), Data: data})
	if err != nil {
		return err
	}
	return printVolume(v)
}

// toWireForm validates raw as a construction request and returns the JSON
// text to store. YAML input is bridged through an untyped decode and a JSON
// re-encode; only JSON is ever persisted.
func toWireForm(raw []byte, path string) (string, error) {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return "", fmt.Errorf("parse yaml construction request: %w", err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("convert construction request to json: %w", err)
		}
		raw = b
	}
	if _, err := volume.ParseConstructionRequest(string(raw)); err != nil {
		return "", err
	}
	return string(raw), nil
}

func printVolume(v volume.Volume) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Println(renderVolumeTable(v))
	return nil
}
