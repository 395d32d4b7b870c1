package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lexidb/lexidb/pkg/client"
	"github.com/lexidb/lexidb/pkg/types"
)

// IndexResource is the declarative shape of one YAML document accepted
// by "lexidb apply": kind Index creates the index if it does not exist
// (a no-op primary key change otherwise) and merges Spec.Settings onto
// whatever settings the index already carries.
//
// Spec.Settings is decoded as a raw map rather than types.Settings
// directly: types.Settings only carries JSON tags, and re-marshaling
// the YAML-decoded map through goccy/go-json lets the same camelCase
// keys used by the wire API work in the YAML file.
type IndexResource struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   ResourceMeta `yaml:"metadata"`
	Spec       IndexSpec    `yaml:"spec"`
}

type ResourceMeta struct {
	Name string `yaml:"name"`
}

type IndexSpec struct {
	PrimaryKey string                 `yaml:"primaryKey"`
	Settings   map[string]interface{} `yaml:"settings"`
}

func (s IndexSpec) decodeSettings() (types.Settings, error) {
	var settings types.Settings
	if len(s.Settings) == 0 {
		return settings, nil
	}
	raw, err := json.Marshal(s.Settings)
	if err != nil {
		return settings, fmt.Errorf("marshal settings: %w", err)
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return settings, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

var applyCmd = &cobra.Command{
	Use:   "apply -f FILE",
	Short: "Apply a declarative index definition from a YAML file",
	Long: `Apply reads one Index resource from a YAML file and brings the
named index's existence and settings in line with it: the index is
created if missing, then its settings are updated to match spec.settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		addr, _ := cmd.Flags().GetString("addr")
		apiKey, _ := cmd.Flags().GetString("api-key")

		if file == "" {
			return fmt.Errorf("-f/--file is required")
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %v", file, err)
		}

		var resource IndexResource
		if err := yaml.Unmarshal(data, &resource); err != nil {
			return fmt.Errorf("failed to parse YAML: %v", err)
		}
		if resource.Kind != "Index" {
			return fmt.Errorf("unsupported resource kind: %s", resource.Kind)
		}
		if resource.Metadata.Name == "" {
			return fmt.Errorf("metadata.name is required")
		}

		c := client.New(addr, client.WithAPIKey(apiKey))
		ctx := context.Background()

		return applyIndex(ctx, c, &resource)
	},
}

const applyPollInterval = 50 * time.Millisecond

func applyIndex(ctx context.Context, c *client.Client, resource *IndexResource) error {
	uid := resource.Metadata.Name

	settings, err := resource.Spec.decodeSettings()
	if err != nil {
		return fmt.Errorf("invalid spec.settings: %v", err)
	}

	if _, err := c.GetIndex(ctx, uid); err != nil {
		fmt.Printf("Creating index: %s\n", uid)
		stub, err := c.CreateIndex(ctx, uid, resource.Spec.PrimaryKey)
		if err != nil {
			return fmt.Errorf("failed to create index: %v", err)
		}
		if _, err := c.WaitForTask(ctx, stub.TaskUID, applyPollInterval); err != nil {
			return fmt.Errorf("index creation did not complete: %v", err)
		}
		fmt.Printf("✓ Index created: %s\n", uid)
	} else {
		fmt.Printf("Index already exists: %s\n", uid)
	}

	if len(resource.Spec.Settings) == 0 {
		return nil
	}

	fmt.Printf("Applying settings to: %s\n", uid)
	stub, err := c.UpdateSettings(ctx, uid, settings)
	if err != nil {
		return fmt.Errorf("failed to update settings: %v", err)
	}
	if _, err := c.WaitForTask(ctx, stub.TaskUID, applyPollInterval); err != nil {
		return fmt.Errorf("settings update did not complete: %v", err)
	}
	fmt.Printf("✓ Settings applied: %s\n", uid)

	return nil
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "Path to a YAML index resource (required)")
	applyCmd.Flags().String("addr", "http://localhost:7700", "lexidb server address")
	applyCmd.Flags().String("api-key", "", "Bearer API key")
	applyCmd.MarkFlagRequired("file")
}
