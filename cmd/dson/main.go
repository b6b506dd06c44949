// Command dson is a thin inspection wrapper around the loader: list
// library ids, fetch raw properties, and dump composed scene graphs.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/dson"
)

var (
	contentDirs []string
	configPath  string
)

// fileConfig mirrors the flags for hosts that keep their content-root
// list in a file.
type fileConfig struct {
	ContentDirectories []string `yaml:"content_directories"`
	CacheFailures      bool     `yaml:"cache_failures"`
}

func newLoader() (*dson.Loader, error) {
	var cfg fileConfig
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	loader, err := dson.New(dson.WithFailureCaching(cfg.CacheFailures))
	if err != nil {
		return nil, err
	}
	for _, dir := range cfg.ContentDirectories {
		loader.AddContentDirectory(dir)
	}
	for _, dir := range contentDirs {
		loader.AddContentDirectory(dir)
	}
	if len(loader.ContentDirectories()) == 0 {
		return nil, fmt.Errorf("no content directories registered (use --content or --config)")
	}
	return loader, nil
}

var rootCmd = &cobra.Command{
	Use:           "dson",
	Short:         "Inspect DSON content libraries and scenes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var idsCmd = &cobra.Command{
	Use:   "ids [document-url] [library-section]",
	Short: "List the asset ids in one library section of a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		ids, err := loader.AssetIDs(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [asset-url]",
	Short: "Print a raw value by URL, e.g. /data/File.dsf#id?name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		value, err := loader.ExtractProperty(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(oj.JSON(value, &oj.Options{Indent: 2, Sort: true}))
		return nil
	},
}

var sceneCmd = &cobra.Command{
	Use:   "scene [scene-url]",
	Short: "Compose a scene and print its instance hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		graph, err := loader.CreateSceneGraph(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for _, rootID := range graph.Roots() {
			printSubtree(graph, rootID, 0)
		}
		if errs := graph.Errors(); len(errs) > 0 {
			fmt.Fprintf(os.Stderr, "\n%d instance(s) failed to resolve:\n", len(errs))
			for _, instErr := range errs {
				fmt.Fprintf(os.Stderr, "  %v\n", instErr)
			}
		}
		return nil
	},
}

func printSubtree(graph *dson.Graph, id string, depth int) {
	inst, ok := graph.Instance(id)
	if !ok {
		return
	}
	kind := "?"
	if inst.Definition != nil {
		kind = string(inst.Definition.Kind())
	}
	fmt.Printf("%s%s (%s) <- %s\n", strings.Repeat("  ", depth), id, kind, inst.URL.String())
	for _, child := range inst.Children {
		printSubtree(graph, child, depth+1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&contentDirs, "content", "c", nil, "content directory (repeatable, searched in order)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config with content_directories")
	rootCmd.AddCommand(idsCmd, getCmd, sceneCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
