package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/compound/internal/config"
	"github.com/conduit-lang/compound/internal/jsonapi"
	"github.com/conduit-lang/compound/internal/logging"
	"github.com/conduit-lang/compound/internal/orm/store"
)

type renderOptions struct {
	configPath string
	fixture    string
	ids        []string
	fields     []string
	compound   bool
	selfLink   bool
	baseURL    string
	indent     bool
	verbose    bool
}

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <type>",
		Short: "Render a document from a JSON fixture",
		Long: `Load entities from a JSON fixture and print the document the server
would answer with. The fixture maps collection names to arrays of entities:

  {"people": [{"id": 9, "name": "Ada"}], "posts": [{"id": 1, "author": 9}]}`,
		Example: `  compound render posts --fixture blog.json --ids 1,2 --compound
  compound render people --fixture blog.json --fields name`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to compound.yaml (default: ./compound.yaml)")
	cmd.Flags().StringVarP(&opts.fixture, "fixture", "f", "", "JSON fixture holding the entities")
	cmd.Flags().StringSliceVar(&opts.ids, "ids", nil, "Ids of the primary entities (default: all)")
	cmd.Flags().StringSliceVar(&opts.fields, "fields", nil, "Attributes and relationships to emit")
	cmd.Flags().BoolVar(&opts.compound, "compound", false, "Side-load linked resources")
	cmd.Flags().BoolVar(&opts.selfLink, "self-link", false, "Add an href template for the primary resource")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Make href templates absolute")
	cmd.Flags().BoolVar(&opts.indent, "indent", false, "Indent the output")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log store fetches to stderr")
	cmd.MarkFlagRequired("fixture")

	return cmd
}

func runRender(cmd *cobra.Command, name string, opts *renderOptions) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if opts.verbose {
		if logger, err = logging.New("debug", true); err != nil {
			return err
		}
		defer logger.Sync()
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		return fmt.Errorf("invalid resources: %w", err)
	}

	st, err := loadFixture(opts.fixture)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, registry, st, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	req := jsonapi.Request{
		Name:     name,
		Only:     opts.fields,
		Compound: cfg.Document.Compound,
		SelfLink: cfg.Document.SelfLink,
		BaseURL:  opts.baseURL,
	}
	// explicit flags win over the configured defaults
	if cmd.Flags().Changed("compound") {
		req.Compound = opts.compound
	}
	if cmd.Flags().Changed("self-link") {
		req.SelfLink = opts.selfLink
	}

	if len(opts.ids) > 0 {
		req.Data, req.Many, err = a.assembler.Find(ctx, name, opts.ids)
	} else {
		req.Data, err = a.assembler.List(ctx, name)
		req.Many = true
	}
	if err != nil {
		return err
	}

	out, err := a.assembler.AssembleJSON(ctx, req)
	if err != nil {
		return err
	}

	if opts.indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err != nil {
			return err
		}
		out = buf.Bytes()
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// loadFixture reads a JSON object of collection name to entity arrays into
// a memory store
func loadFixture(path string) (*store.MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var collections map[string][]store.Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&collections); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	st := store.NewMemoryStore()
	for collection, records := range collections {
		st.Add(collection, records...)
	}
	return st, nil
}
